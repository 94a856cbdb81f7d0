package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected time.Time
		ok       bool
	}{
		{
			name:     "month name",
			raw:      "January 2, 2026",
			expected: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
			ok:       true,
		},
		{
			name:     "iso date",
			raw:      "2026-01-02",
			expected: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
			ok:       true,
		},
		{
			name:     "iso with Z",
			raw:      "2026-01-02T03:04:05Z",
			expected: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
			ok:       true,
		},
		{
			name:     "iso without zone",
			raw:      "2026-01-02T03:04:05",
			expected: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
			ok:       true,
		},
		{
			name:     "offset is dropped",
			raw:      "2026-01-10T20:00:00+05:00",
			expected: time.Date(2026, 1, 10, 20, 0, 0, 0, time.UTC),
			ok:       true,
		},
		{name: "empty", raw: "", ok: false},
		{name: "garbage", raw: "not a date", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.raw, time.UTC)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.expected.Equal(got), "got %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestIsRecent(t *testing.T) {
	now := time.Date(2026, 1, 18, 19, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		raw      string
		window   int
		expected bool
	}{
		{name: "today", raw: "2026-01-18", window: 7, expected: true},
		{name: "exactly window days", raw: "2026-01-11T19:00:00Z", window: 7, expected: true},
		{name: "seven days and change", raw: "2026-01-11T00:00:00Z", window: 7, expected: true},
		{name: "eight days", raw: "2026-01-10T19:00:00Z", window: 7, expected: false},
		{name: "ten days ago", raw: "January 8, 2026", window: 7, expected: false},
		{name: "future", raw: "2026-02-01", window: 7, expected: true},
		{name: "empty", raw: "", window: 7, expected: false},
		{name: "unparseable", raw: "unknown", window: 7, expected: false},
		{name: "wall clock after stripping offset", raw: "2026-01-10T20:00:00+05:00", window: 7, expected: true},
		{name: "zero window", raw: "2026-01-18T01:00:00Z", window: 0, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRecent(tt.raw, tt.window, now))
		})
	}
}

func TestIsRecent_Idempotent(t *testing.T) {
	now := time.Date(2026, 1, 18, 12, 0, 0, 0, time.UTC)
	for _, raw := range []string{"2026-01-12", "2026-01-01", "bogus", ""} {
		assert.Equal(t, IsRecent(raw, 7, now), IsRecent(raw, 7, now), raw)
	}
}

func TestIsRecentTime(t *testing.T) {
	now := time.Date(2026, 1, 18, 12, 0, 0, 0, time.UTC)

	assert.False(t, IsRecentTime(time.Time{}, 7, now))
	assert.True(t, IsRecentTime(now.Add(-7*24*time.Hour), 7, now))
	assert.False(t, IsRecentTime(now.Add(-8*24*time.Hour), 7, now))
	assert.True(t, IsRecentTime(now.Add(48*time.Hour), 7, now))
}

func TestRecency(t *testing.T) {
	now := time.Date(2026, 1, 18, 12, 0, 0, 0, time.UTC)
	r := NewRecency(0)
	r.Now = func() time.Time { return now }

	assert.Equal(t, DefaultWindowDays, r.WindowDays)
	assert.True(t, r.IsRecent("2026-01-15"))
	assert.False(t, r.IsRecent("2026-01-01"))
	assert.True(t, r.IsRecentAt("2026-01-01", time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)))

	cutoff := r.Cutoff(now)
	assert.False(t, IsRecentTime(cutoff, r.WindowDays, now))
	assert.True(t, IsRecentTime(cutoff.Add(time.Second), r.WindowDays, now))
}
