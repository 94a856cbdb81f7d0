package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-jobradar/internal/models"
)

func TestHTMLToText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain text", input: "  Build pipelines  ", expected: "Build pipelines"},
		{name: "paragraphs", input: "<p>First</p><p>Second</p>", expected: "First Second"},
		{name: "list and breaks", input: "Needs:<br>SQL<ul><li>Spark</li><li>Airflow</li></ul>", expected: "Needs: SQL Spark Airflow"},
		{name: "text before block", input: "5+ years<p>Python</p>required", expected: "5+ years Python required"},
		{name: "entities", input: "<div>R&amp;D &gt; 5</div>", expected: "R&D > 5"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTMLToText(tt.input))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "dé", Truncate("déjà", 2))
}

func TestRequest_FullURL(t *testing.T) {
	req := &Request{URL: "https://x/search", Query: url.Values{"q": {"data engineer"}}}
	assert.Equal(t, "https://x/search?q=data+engineer", req.FullURL())

	req = &Request{URL: "https://x/search?a=1", Query: url.Values{"b": {"2"}}}
	assert.Equal(t, "https://x/search?a=1&b=2", req.FullURL())

	assert.Equal(t, "https://x", (&Request{URL: "https://x"}).FullURL())
}

func TestHTTPTransport_Do(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			assert.Equal(t, "jobradar-test", r.Header.Get("User-Agent"))
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			assert.Equal(t, "yes", r.Header.Get("X-Extra"))
			w.Write([]byte(`{"ok": true}`))
		default:
			http.Error(w, "nope", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	tr := NewHTTPTransport(time.Second, "jobradar-test")

	var out struct {
		OK bool `json:"ok"`
	}
	err := FetchJSON(context.Background(), tr, &Request{URL: srv.URL + "/ok", Headers: map[string]string{"X-Extra": "yes"}}, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)

	_, err = tr.Do(context.Background(), &Request{URL: srv.URL + "/missing"})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Contains(t, statusErr.Error(), "GET")
}

type fakeProducer struct {
	name string
	jobs []models.Job
	err  error
}

func (f *fakeProducer) Name() string { return f.name }

func (f *fakeProducer) Scrape(ctx context.Context) ([]models.Job, error) {
	return f.jobs, f.err
}

func TestRunner_SubmitsPartialBatches(t *testing.T) {
	var mu sync.Mutex
	got := map[string]int{}
	sink := SinkFunc(func(ctx context.Context, source string, jobs []models.Job) error {
		mu.Lock()
		defer mu.Unlock()
		got[source] = len(jobs)
		return nil
	})

	r := NewRunner(sink, nil,
		&fakeProducer{name: "A", jobs: []models.Job{{ID: "1"}, {ID: "2"}}},
		&fakeProducer{name: "B", jobs: []models.Job{{ID: "3"}}, err: errors.New("timeout")},
		&fakeProducer{name: "C"},
	)

	results, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, map[string]int{"A": 2, "B": 1, "C": 0}, got)
	assert.Equal(t, "B", results[1].Source)
	assert.Error(t, results[1].Err)
	assert.NoError(t, results[0].Err)
}

func TestRunner_SinkErrorFailsRun(t *testing.T) {
	sink := SinkFunc(func(ctx context.Context, source string, jobs []models.Job) error {
		return errors.New("disk full")
	})

	r := NewRunner(sink, nil, &fakeProducer{name: "A"})
	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
