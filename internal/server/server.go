package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"go-jobradar/internal/dedup"
	"go-jobradar/internal/models"
	"go-jobradar/internal/store"
)

const shutdownTimeout = 10 * time.Second

// Options configures the dashboard server.
type Options struct {
	Port      int
	UIDir     string
	GlobalVar string
	GinMode   string
}

// Server exposes the persisted result set to the static dashboard. It only reads
// from the store; writes go through the merge engine.
type Server struct {
	store dedup.Store
	opts  Options
	log   *slog.Logger
}

func New(s dedup.Store, opts Options, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	if opts.Port == 0 {
		opts.Port = 8080
	}
	if opts.UIDir == "" {
		opts.UIDir = "ui"
	}
	if opts.GlobalVar == "" {
		opts.GlobalVar = store.DefaultGlobalVar
	}
	return &Server{store: s, opts: opts, log: log}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	if s.opts.GinMode != "" {
		gin.SetMode(s.opts.GinMode)
	}
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(s.log))
	r.Use(CORSMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "jobradar",
		})
	})

	r.GET("/api/jobs", s.listJobs)
	r.GET("/jobs.js", s.jobsScript)

	r.Static("/ui", s.opts.UIDir)
	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/ui/")
	})

	return r
}

// listJobs returns the stored set, optionally narrowed by ?source= and ?q=.
func (s *Server) listJobs(c *gin.Context) {
	jobs, err := s.store.Load(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load jobs"})
		return
	}

	source := strings.TrimSpace(c.Query("source"))
	query := strings.ToLower(strings.TrimSpace(c.Query("q")))

	out := make([]models.Job, 0, len(jobs))
	for _, job := range jobs {
		if source != "" && !strings.EqualFold(job.Source, source) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(job.Title+" "+job.Company+" "+job.Location), query) {
			continue
		}
		out = append(out, job)
	}

	c.JSON(http.StatusOK, gin.H{
		"count": len(out),
		"jobs":  out,
	})
}

// jobsScript serves the same payload as the .js mirror, built from the store so
// it works for every backend.
func (s *Server) jobsScript(c *gin.Context) {
	jobs, err := s.store.Load(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "// failed to load jobs")
		return
	}
	data, err := store.Encode(jobs)
	if err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "// failed to encode jobs")
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/javascript; charset=utf-8", store.ScriptWrap(s.opts.GlobalVar, data))
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.opts.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("🌐 Server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	s.log.Info("Server shutdown complete")
	return nil
}
