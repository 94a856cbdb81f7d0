package jpmc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"go-jobradar/internal/filter"
	"go-jobradar/internal/models"
	"go-jobradar/internal/scraper"
)

const (
	DefaultAPIURL = "https://jpmc.fa.oraclecloud.com/hcmRestApi/resources/latest/recruitingCEJobRequisitions"
	DefaultUIURL  = "https://jpmc.fa.oraclecloud.com/hcmUI/CandidateExperience/en/sites/CX_1001/job"
	siteNumber    = "CX_1001"
	sourceName    = "JPMorgan Chase"
)

// JPMCScraper reads JPMorgan Chase requisitions from Oracle Recruiting Cloud.
// The API returns one page of up to 50 requisitions for the keyword.
type JPMCScraper struct {
	transport scraper.Transport
	apiURL    string
	query     string
	now       func() time.Time
	log       *slog.Logger
}

func New(t scraper.Transport, apiURL, query string, log *slog.Logger) *JPMCScraper {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if query == "" {
		query = "data engineer"
	}
	if log == nil {
		log = slog.Default()
	}
	return &JPMCScraper{transport: t, apiURL: apiURL, query: query, now: time.Now, log: log}
}

func (s *JPMCScraper) Name() string { return sourceName }

func (s *JPMCScraper) SetClock(now func() time.Time) { s.now = now }

func (s *JPMCScraper) Scrape(ctx context.Context) ([]models.Job, error) {
	q := url.Values{}
	q.Set("onlyData", "true")
	q.Set("expand", "requisitionList")
	q.Set("finder", fmt.Sprintf("findReqs;siteNumber=%s,keyword=%s", siteNumber, s.query))
	q.Set("limit", "50")
	q.Set("offset", "0")

	var payload struct {
		Items []map[string]json.RawMessage `json:"items"`
	}
	if err := scraper.FetchJSON(ctx, s.transport, &scraper.Request{URL: s.apiURL, Query: q}, &payload); err != nil {
		return nil, fmt.Errorf("jpmc requisitions: %w", err)
	}

	items := payload.Items
	if len(items) > 0 {
		if list, ok := items[0]["requisitionList"]; ok {
			var reqs []map[string]json.RawMessage
			if err := json.Unmarshal(list, &reqs); err != nil {
				return nil, fmt.Errorf("decode requisitionList: %w", err)
			}
			items = reqs
		}
	}
	s.log.Debug("Fetched JPMC requisitions", "count", len(items))

	now := s.now()
	jobs := make([]models.Job, 0, len(items))
	for _, item := range items {
		jobs = append(jobs, toJob(item, now))
	}
	return jobs, nil
}

func toJob(item map[string]json.RawMessage, now time.Time) models.Job {
	title := models.FirstNonEmpty(
		field(item, "Title"), field(item, "JobTitle"), field(item, "JobName"),
		field(item, "RequisitionTitle"), "Unknown Title")
	id := models.FirstNonEmpty(field(item, "Id"), field(item, "RequisitionId"), "JPMC-Unknown")

	posted := now
	if raw := models.FirstNonEmpty(field(item, "PostedDate"), field(item, "DatePosted")); raw != "" {
		if t, ok := filter.ParseDate(raw, now.Location()); ok {
			posted = t
		}
	}

	return models.Job{
		ID:               id,
		Title:            title,
		Company:          sourceName,
		Location:         models.FirstNonEmpty(field(item, "PrimaryLocation"), "USA"),
		PostedDate:       models.FormatPostedDate(posted),
		URLNextStep:      DefaultUIURL + "/" + id,
		DescriptionShort: title,
		Source:           sourceName,
	}
}

// field reads a string or numeric value; other JSON types read as "".
func field(item map[string]json.RawMessage, key string) string {
	v, ok := item[key]
	if !ok {
		return ""
	}
	var s string
	if json.Unmarshal(v, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(v, &n) == nil {
		return n.String()
	}
	return ""
}
