package cvs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go-jobradar/internal/models"
	"go-jobradar/internal/scraper"
)

const (
	DefaultAPIURL = "https://cvshealth.wd1.myworkdayjobs.com/wday/cxs/cvshealth/CVS_Health_Careers/jobs"
	DefaultUIURL  = "https://cvshealth.wd1.myworkdayjobs.com/en-US/CVS_Health_Careers"
	pageSize      = 20
	maxPages      = 5
	sourceName    = "CVS Health"
)

var daysAgoRegex = regexp.MustCompile(`(\d+)`)

type searchRequest struct {
	AppliedFacets map[string]any `json:"appliedFacets"`
	Limit         int            `json:"limit"`
	Offset        int            `json:"offset"`
	SearchText    string         `json:"searchText"`
}

type searchResponse struct {
	Total       int          `json:"total"`
	JobPostings []jobPosting `json:"jobPostings"`
}

type jobPosting struct {
	Title         string   `json:"title"`
	ExternalPath  string   `json:"externalPath"`
	LocationsText string   `json:"locationsText"`
	PostedOn      string   `json:"postedOn"`
	BulletFields  []string `json:"bulletFields"`
}

// CVSScraper reads the Workday job board behind careers.cvshealth.com.
type CVSScraper struct {
	transport scraper.Transport
	apiURL    string
	uiURL     string
	query     string
	now       func() time.Time
	log       *slog.Logger
}

func New(t scraper.Transport, apiURL, query string, log *slog.Logger) *CVSScraper {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if query == "" {
		query = "data engineer"
	}
	if log == nil {
		log = slog.Default()
	}
	return &CVSScraper{transport: t, apiURL: apiURL, uiURL: DefaultUIURL, query: query, now: time.Now, log: log}
}

func (s *CVSScraper) Name() string { return sourceName }

// SetClock replaces the clock used to resolve "Posted N Days Ago".
func (s *CVSScraper) SetClock(now func() time.Time) { s.now = now }

// Scrape reads up to five pages of 20 postings.
func (s *CVSScraper) Scrape(ctx context.Context) ([]models.Job, error) {
	var all []models.Job

	for page := 0; page < maxPages; page++ {
		offset := page * pageSize
		body, err := json.Marshal(searchRequest{
			AppliedFacets: map[string]any{},
			Limit:         pageSize,
			Offset:        offset,
			SearchText:    s.query,
		})
		if err != nil {
			return all, fmt.Errorf("encode cvs search: %w", err)
		}

		var resp searchResponse
		req := &scraper.Request{Method: "POST", URL: s.apiURL, Body: body}
		if err := scraper.FetchJSON(ctx, s.transport, req, &resp); err != nil {
			return all, fmt.Errorf("cvs page %d: %w", page+1, err)
		}
		if len(resp.JobPostings) == 0 {
			break
		}

		now := s.now()
		for _, p := range resp.JobPostings {
			all = append(all, s.toJob(p, now))
		}
		s.log.Debug("Fetched CVS page", "page", page+1, "count", len(resp.JobPostings))
	}
	return all, nil
}

func (s *CVSScraper) toJob(p jobPosting, now time.Time) models.Job {
	title := models.FirstNonEmpty(p.Title, "Unknown Title")
	return models.Job{
		ID:               jobIDFromPath(p.ExternalPath),
		Title:            title,
		Company:          sourceName,
		Location:         models.FirstNonEmpty(p.LocationsText, "USA"),
		PostedDate:       models.FormatPostedDate(ParsePostedOn(p.PostedOn, now)),
		URLNextStep:      s.uiURL + p.ExternalPath,
		DescriptionShort: title,
		Source:           sourceName,
	}
}

// jobIDFromPath takes the requisition id after the last underscore:
// "/job/Senior-Data-Engineer_R012345" -> "R012345".
func jobIDFromPath(path string) string {
	if i := strings.LastIndex(path, "_"); i >= 0 && path != "" {
		return path[i+1:]
	}
	return "CVS-Unknown"
}

// ParsePostedOn resolves Workday's relative labels ("Posted Today",
// "Posted Yesterday", "Posted 3 Days Ago", "Posted 30+ Days Ago") against now.
// Anything unrecognized resolves to now.
func ParsePostedOn(text string, now time.Time) time.Time {
	t := strings.ToLower(text)
	switch {
	case t == "":
		return now
	case strings.Contains(t, "today"):
		return now
	case strings.Contains(t, "yesterday"):
		return now.AddDate(0, 0, -1)
	}
	if m := daysAgoRegex.FindStringSubmatch(t); m != nil {
		if days, err := strconv.Atoi(m[1]); err == nil {
			return now.AddDate(0, 0, -days)
		}
	}
	return now
}
