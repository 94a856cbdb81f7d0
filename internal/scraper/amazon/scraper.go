package amazon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"go-jobradar/internal/models"
	"go-jobradar/internal/scraper"
)

const (
	DefaultBaseURL = "https://www.amazon.jobs/en/search.json"
	pageSize       = 50
	maxJobs        = 500
	sourceName     = "Amazon"
)

var facets = []string{
	"normalized_country_code", "normalized_state_name", "normalized_city_name",
	"location", "business_category", "category", "schedule_type_id",
	"employee_class", "normalized_location", "job_function_id", "is_manager", "is_intern",
}

var (
	jobsKeys  = []string{"jobs", "search_results", "results", "jobResults"}
	totalKeys = []string{"total_hits", "totalHits", "total_results", "count", "total"}
)

type AmazonScraper struct {
	transport scraper.Transport
	baseURL   string
	query     string
	pause     time.Duration
	log       *slog.Logger
}

func New(t scraper.Transport, baseURL, query string, log *slog.Logger) *AmazonScraper {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if query == "" {
		query = "data engineer"
	}
	if log == nil {
		log = slog.Default()
	}
	return &AmazonScraper{transport: t, baseURL: baseURL, query: query, pause: 250 * time.Millisecond, log: log}
}

func (s *AmazonScraper) Name() string { return sourceName }

// SetPause changes the delay between pages.
func (s *AmazonScraper) SetPause(d time.Duration) { s.pause = d }

func (s *AmazonScraper) buildRequest(offset int) *scraper.Request {
	q := url.Values{}
	q.Set("base_query", s.query)
	q.Set("offset", strconv.Itoa(offset))
	q.Set("result_limit", strconv.Itoa(pageSize))
	q.Set("sort", "recent")
	q.Set("country", "USA")
	q.Set("loc_query", "United States")
	q.Set("normalized_country_code[]", "USA")
	q.Set("schedule_type_id[]", "Full-Time")
	for _, f := range facets {
		q.Add("facets[]", f)
	}
	return &scraper.Request{
		URL:     s.baseURL,
		Query:   q,
		Headers: map[string]string{"Accept-Encoding": "gzip, deflate"},
	}
}

// Scrape pages through search.json until a page is empty, the reported total is
// reached or more than 500 postings were pulled. Records keep all of Amazon's
// fields.
func (s *AmazonScraper) Scrape(ctx context.Context) ([]models.Job, error) {
	var all []models.Job
	offset := 0

	for {
		var payload map[string]json.RawMessage
		if err := scraper.FetchJSON(ctx, s.transport, s.buildRequest(offset), &payload); err != nil {
			return all, fmt.Errorf("amazon page at offset %d: %w", offset, err)
		}

		raw := extractJobs(payload)
		if len(raw) == 0 {
			break
		}
		for _, r := range raw {
			job, err := toJob(r)
			if err != nil {
				s.log.Warn("⚠️ Skipping malformed Amazon job", "error", err)
				continue
			}
			all = append(all, job)
		}
		s.log.Debug("Fetched Amazon page", "offset", offset, "count", len(raw))
		offset += pageSize

		if total, ok := totalCount(payload); ok && len(all) >= total {
			break
		}
		if len(all) > maxJobs {
			s.log.Info("Limit reached, stopping", "source", sourceName, "limit", maxJobs)
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

func toJob(raw json.RawMessage) (models.Job, error) {
	var job models.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return job, err
	}
	if job.Company == "" {
		job.Company = extraString(job, "company_name")
	}
	if job.Source == "" {
		job.Source = sourceName
	}
	job.Description = scraper.HTMLToText(job.Description)
	job.BasicQualifications = scraper.HTMLToText(job.BasicQualifications)
	return job, nil
}

func extraString(job models.Job, key string) string {
	var s string
	if v, ok := job.Extra[key]; ok {
		_ = json.Unmarshal(v, &s)
	}
	return s
}

func extractJobs(payload map[string]json.RawMessage) []json.RawMessage {
	for _, k := range jobsKeys {
		var list []json.RawMessage
		if v, ok := payload[k]; ok && json.Unmarshal(v, &list) == nil && list != nil {
			return list
		}
	}
	if nested, ok := nestedData(payload); ok {
		return extractJobs(nested)
	}
	return nil
}

func totalCount(payload map[string]json.RawMessage) (int, bool) {
	for _, k := range totalKeys {
		var n int
		if v, ok := payload[k]; ok && json.Unmarshal(v, &n) == nil {
			return n, true
		}
	}
	if nested, ok := nestedData(payload); ok {
		return totalCount(nested)
	}
	return 0, false
}

func nestedData(payload map[string]json.RawMessage) (map[string]json.RawMessage, bool) {
	v, ok := payload["data"]
	if !ok {
		return nil, false
	}
	var nested map[string]json.RawMessage
	if err := json.Unmarshal(v, &nested); err != nil || nested == nil {
		return nil, false
	}
	return nested, true
}
