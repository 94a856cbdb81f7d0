package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-jobradar/internal/models"
	"go-jobradar/internal/store"
)

func testServer(t *testing.T, s *store.MemoryStore) *Server {
	t.Helper()
	uiDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(uiDir, "app.js"), []byte("renderJobs(window.JOBS_DATA);"), 0644))

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(s, Options{UIDir: uiDir, GinMode: gin.TestMode}, log)
}

func serve(srv *Server, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestHealth(t *testing.T) {
	srv := testServer(t, store.NewMemoryStore())

	w := serve(srv, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "healthy", "service": "jobradar"}`, w.Body.String())
}

func TestListJobs(t *testing.T) {
	srv := testServer(t, store.NewMemoryStore(
		models.Job{ID: "A1", Title: "Data Engineer", Company: "Amazon", Source: "Amazon"},
		models.Job{ID: "M1", Title: "Senior Data Engineer", Company: "Microsoft", Location: "Redmond", Source: "Microsoft"},
		models.Job{ID: "C1", Title: "ETL Developer", Company: "CVS Health", Source: "CVS Health"},
	))

	tests := []struct {
		name   string
		target string
		ids    []string
	}{
		{name: "all", target: "/api/jobs", ids: []string{"A1", "M1", "C1"}},
		{name: "by source", target: "/api/jobs?source=microsoft", ids: []string{"M1"}},
		{name: "by text", target: "/api/jobs?q=redmond", ids: []string{"M1"}},
		{name: "no match", target: "/api/jobs?q=nothing", ids: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(srv, http.MethodGet, tt.target)
			require.Equal(t, http.StatusOK, w.Code)

			var body struct {
				Count int          `json:"count"`
				Jobs  []models.Job `json:"jobs"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, len(tt.ids), body.Count)

			got := make([]string, 0, len(body.Jobs))
			for _, j := range body.Jobs {
				got = append(got, j.ID)
			}
			assert.Equal(t, tt.ids, got)
		})
	}
}

func TestListJobs_EmptyStoreIsArray(t *testing.T) {
	srv := testServer(t, store.NewMemoryStore())

	w := serve(srv, http.MethodGet, "/api/jobs")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count": 0, "jobs": []}`, w.Body.String())
}

func TestListJobs_LoadError(t *testing.T) {
	s := store.NewMemoryStore()
	s.LoadErr = errors.New("disk gone")
	srv := testServer(t, s)

	w := serve(srv, http.MethodGet, "/api/jobs")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestJobsScript(t *testing.T) {
	srv := testServer(t, store.NewMemoryStore(models.Job{ID: "A1", Title: "Data Engineer"}))

	w := serve(srv, http.MethodGet, "/jobs.js")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "javascript")

	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "window.JOBS_DATA = ["))
	assert.True(t, strings.HasSuffix(body, "];"))
	assert.Contains(t, body, `"id": "A1"`)
}

func TestStaticUI(t *testing.T) {
	srv := testServer(t, store.NewMemoryStore())

	w := serve(srv, http.MethodGet, "/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/ui/", w.Header().Get("Location"))

	w = serve(srv, http.MethodGet, "/ui/app.js")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "renderJobs")
}
