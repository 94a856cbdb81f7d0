package filter

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const DefaultWindowDays = 7

const day = 24 * time.Hour

// ParseDate reads posted_date values in the shapes the job boards emit:
// "January 2, 2026", "2026-01-02", "2026-01-02T03:04:05Z", "2026-01-02T03:04:05.000+0000",
// epoch seconds or milliseconds. Any offset is dropped and the wall clock is read
// in loc, so "...T10:00:00Z" and "...T10:00:00+07:00" compare as the same moment.
func ParseDate(raw string, loc *time.Location) (t time.Time, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}

	defer func() {
		// dateparse panics on some malformed inputs
		if r := recover(); r != nil {
			t, ok = time.Time{}, false
		}
	}()

	parsed, err := dateparse.ParseIn(raw, loc)
	if err != nil {
		return time.Time{}, false
	}
	return stripOffset(parsed, loc), true
}

func stripOffset(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

// IsRecent parses raw and checks it against the window. Unparseable or empty
// values are never recent.
func IsRecent(raw string, windowDays int, now time.Time) bool {
	t, ok := ParseDate(raw, now.Location())
	if !ok {
		return false
	}
	return IsRecentTime(t, windowDays, now)
}

// IsRecentTime reports whether t is at most windowDays whole days before now.
// Future dates are recent.
func IsRecentTime(t time.Time, windowDays int, now time.Time) bool {
	if t.IsZero() {
		return false
	}
	days := int(now.Sub(t) / day)
	return days <= windowDays
}

// Recency bundles a window with a clock.
type Recency struct {
	WindowDays int
	Now        func() time.Time
}

func NewRecency(windowDays int) Recency {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return Recency{WindowDays: windowDays, Now: time.Now}
}

func (r Recency) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// Cutoff is the exclusive lower bound of the window: anything after it is recent.
func (r Recency) Cutoff(now time.Time) time.Time {
	return now.Add(-time.Duration(r.WindowDays+1) * day)
}

func (r Recency) IsRecent(raw string) bool {
	return IsRecent(raw, r.WindowDays, r.now())
}

func (r Recency) IsRecentAt(raw string, now time.Time) bool {
	return IsRecent(raw, r.WindowDays, now)
}
