package microsoft

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"go-jobradar/internal/filter"
	"go-jobradar/internal/models"
	"go-jobradar/internal/scraper"
)

const (
	DefaultBaseURL = "https://apply.careers.microsoft.com/api/pcsx/search"
	jobURLPrefix   = "https://jobs.careers.microsoft.com/global/en/job/"
	maxStart       = 500
	sourceName     = "Microsoft"
)

type searchResponse struct {
	Data struct {
		Positions []position `json:"positions"`
	} `json:"data"`
}

type position struct {
	ID          positionID `json:"id"`
	Name        string    `json:"name"`
	Locations   []string  `json:"locations"`
	PostedTs    int64     `json:"postedTs"`
	Description string    `json:"description"`
}

// MicrosoftScraper pages through the careers search sorted by newest first and
// stops as soon as a page ends with a posting outside the window.
type MicrosoftScraper struct {
	transport  scraper.Transport
	baseURL    string
	query      string
	windowDays int
	pause      time.Duration
	now        func() time.Time
	log        *slog.Logger
}

func New(t scraper.Transport, baseURL, query string, windowDays int, log *slog.Logger) *MicrosoftScraper {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if query == "" {
		query = "Data Engineer"
	}
	if windowDays <= 0 {
		windowDays = filter.DefaultWindowDays
	}
	if log == nil {
		log = slog.Default()
	}
	return &MicrosoftScraper{
		transport:  t,
		baseURL:    baseURL,
		query:      query,
		windowDays: windowDays,
		pause:      500 * time.Millisecond,
		now:        time.Now,
		log:        log,
	}
}

func (s *MicrosoftScraper) Name() string { return sourceName }

func (s *MicrosoftScraper) SetClock(now func() time.Time) { s.now = now }

func (s *MicrosoftScraper) SetPause(d time.Duration) { s.pause = d }

func (s *MicrosoftScraper) Scrape(ctx context.Context) ([]models.Job, error) {
	var all []models.Job
	start := 0

	for {
		q := url.Values{}
		q.Set("domain", "microsoft.com")
		q.Set("query", s.query)
		q.Set("location", "United States")
		q.Set("sort_by", "timestamp")
		q.Set("start", strconv.Itoa(start))

		var resp searchResponse
		if err := scraper.FetchJSON(ctx, s.transport, &scraper.Request{URL: s.baseURL, Query: q}, &resp); err != nil {
			return all, fmt.Errorf("microsoft search at start %d: %w", start, err)
		}

		positions := resp.Data.Positions
		if len(positions) == 0 {
			break
		}
		s.log.Debug("Fetched Microsoft page", "start", start, "count", len(positions))

		now := s.now()
		for _, p := range positions {
			if p.PostedTs == 0 {
				continue
			}
			posted := time.Unix(p.PostedTs, 0).In(now.Location())
			if !filter.IsRecentTime(posted, s.windowDays, now) {
				continue
			}
			all = append(all, toJob(p, posted))
		}

		last := positions[len(positions)-1]
		if last.PostedTs != 0 && !filter.IsRecentTime(time.Unix(last.PostedTs, 0), s.windowDays, now) {
			s.log.Debug("Reached older Microsoft jobs, stopping", "start", start)
			break
		}

		start += len(positions)
		if start > maxStart {
			break
		}

		select {
		case <-ctx.Done():
			return all, ctx.Err()
		case <-time.After(s.pause):
		}
	}
	return all, nil
}

func toJob(p position, posted time.Time) models.Job {
	location := "United States"
	if len(p.Locations) > 0 {
		location = p.Locations[0]
	}
	id := string(p.ID)
	return models.Job{
		ID:               id,
		Title:            p.Name,
		Company:          sourceName,
		Location:         location,
		PostedDate:       models.FormatPostedDate(posted),
		URLNextStep:      jobURLPrefix + id,
		DescriptionShort: scraper.Truncate(scraper.HTMLToText(p.Description), 200) + "...",
		Source:           sourceName,
	}
}
