// Producers pull postings from one employer's job-search endpoint and map them
// into models.Job.

package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"go-jobradar/internal/models"
)

// Producer defines the interface that all employer scrapers must implement
type Producer interface {
	// Scrape returns the jobs collected so far. On a transient failure it returns
	// the partial list together with the error.
	Scrape(ctx context.Context) ([]models.Job, error)

	// Name is the employer name (Amazon, CVS Health, ...)
	Name() string
}

// Request is one call against a job-search API.
type Request struct {
	Method  string
	URL     string
	Query   url.Values
	Headers map[string]string
	Body    []byte
}

// FullURL is URL with Query appended.
func (r *Request) FullURL() string {
	if len(r.Query) == 0 {
		return r.URL
	}
	sep := "?"
	if strings.Contains(r.URL, "?") {
		sep = "&"
	}
	return r.URL + sep + r.Query.Encode()
}

type Response struct {
	StatusCode int
	Body       []byte
}

// Transport executes requests. Non-2xx responses come back as *StatusError.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, body)
}

// FetchJSON runs req and decodes the body into v.
func FetchJSON(ctx context.Context, t Transport, req *Request, v any) error {
	resp, err := t.Do(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL, err)
	}
	return nil
}

// HTMLToText strips markup from a job description.
func HTMLToText(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	doc.Find("br").ReplaceWithHtml(" ")
	doc.Find("p, ul, ol, li, div, h1, h2, h3, h4").Each(func(_ int, sel *goquery.Selection) {
		sel.PrependHtml(" ")
		sel.AppendHtml(" ")
	})
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
