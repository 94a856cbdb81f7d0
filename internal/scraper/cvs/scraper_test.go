package cvs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-jobradar/internal/scraper"
)

var now = time.Date(2026, 1, 18, 9, 30, 0, 0, time.UTC)

func TestParsePostedOn(t *testing.T) {
	tests := []struct {
		text     string
		expected time.Time
	}{
		{text: "Posted Today", expected: now},
		{text: "Posted Yesterday", expected: now.AddDate(0, 0, -1)},
		{text: "Posted 3 Days Ago", expected: now.AddDate(0, 0, -3)},
		{text: "Posted 30+ Days Ago", expected: now.AddDate(0, 0, -30)},
		{text: "", expected: now},
		{text: "Posted recently", expected: now},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParsePostedOn(tt.text, now))
		})
	}
}

func TestJobIDFromPath(t *testing.T) {
	assert.Equal(t, "R012345", jobIDFromPath("/job/Senior-Data-Engineer_R012345"))
	assert.Equal(t, "R0999-1", jobIDFromPath("/job/Data_Engineer_R0999-1"))
	assert.Equal(t, "CVS-Unknown", jobIDFromPath("/job/no-underscore"))
	assert.Equal(t, "CVS-Unknown", jobIDFromPath(""))
}

func TestScrape(t *testing.T) {
	var offsets []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "data engineer", req.SearchText)
		assert.Equal(t, 20, req.Limit)
		assert.NotNil(t, req.AppliedFacets)
		offsets = append(offsets, req.Offset)

		if req.Offset >= 40 {
			fmt.Fprint(w, `{"total": 2, "jobPostings": []}`)
			return
		}
		fmt.Fprintf(w, `{"total": 2, "jobPostings": [
			{"title": "Data Engineer", "externalPath": "/job/Data-Engineer_R%d", "locationsText": "Remote", "postedOn": "Posted 2 Days Ago"},
			{"externalPath": "/job/no-id", "postedOn": "Posted Today"}
		]}`, req.Offset)
	}))
	defer srv.Close()

	s := New(scraper.NewHTTPTransport(5*time.Second, ""), srv.URL+"/jobs", "", nil)
	s.SetClock(func() time.Time { return now })

	jobs, err := s.Scrape(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 20, 40}, offsets)
	require.Len(t, jobs, 4)

	first := jobs[0]
	assert.Equal(t, "R0", first.ID)
	assert.Equal(t, "Data Engineer", first.Title)
	assert.Equal(t, "CVS Health", first.Company)
	assert.Equal(t, "Remote", first.Location)
	assert.Equal(t, "2026-01-16T09:30:00Z", first.PostedDate)
	assert.Equal(t, DefaultUIURL+"/job/Data-Engineer_R0", first.URLNextStep)
	assert.Equal(t, "Data Engineer", first.DescriptionShort)
	assert.Equal(t, "CVS Health", first.Source)

	second := jobs[1]
	assert.Equal(t, "CVS-Unknown", second.ID)
	assert.Equal(t, "Unknown Title", second.Title)
	assert.Equal(t, "USA", second.Location)
}

func TestScrape_MaxPages(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"jobPostings": [{"title": "Data Engineer", "externalPath": "/job/x_1", "postedOn": "Posted Today"}]}`)
	}))
	defer srv.Close()

	s := New(scraper.NewHTTPTransport(5*time.Second, ""), srv.URL, "", nil)
	jobs, err := s.Scrape(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, calls)
	assert.Len(t, jobs, 5)
}

func TestScrape_ErrorKeepsEarlierPages(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"jobPostings": [{"title": "Data Engineer", "externalPath": "/job/x_1", "postedOn": "Posted Today"}]}`)
	}))
	defer srv.Close()

	s := New(scraper.NewHTTPTransport(5*time.Second, ""), srv.URL, "", nil)
	jobs, err := s.Scrape(context.Background())
	require.Error(t, err)
	assert.Len(t, jobs, 1)
}
