package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"go-jobradar/internal/models"
)

// Sink receives one batch per producer per run.
type Sink interface {
	Submit(ctx context.Context, source string, jobs []models.Job) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, source string, jobs []models.Job) error

func (f SinkFunc) Submit(ctx context.Context, source string, jobs []models.Job) error {
	return f(ctx, source, jobs)
}

// Result is what one producer contributed to a run.
type Result struct {
	Source   string
	Fetched  int
	Err      error
	Duration time.Duration
}

// Runner scrapes all producers concurrently. Submissions to the sink are
// serialized.
type Runner struct {
	producers []Producer
	sink      Sink
	log       *slog.Logger
	sinkMu    sync.Mutex
}

func NewRunner(sink Sink, log *slog.Logger, producers ...Producer) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{producers: producers, sink: sink, log: log}
}

// Run returns one Result per producer in registration order. Producer errors are
// reported in the results; only a sink error fails the run.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	results := make([]Result, len(r.producers))
	g, gctx := errgroup.WithContext(ctx)

	for i, p := range r.producers {
		i, p := i, p
		g.Go(func() error {
			start := time.Now()
			r.log.Info("🔍 Scraping", "source", p.Name())

			jobs, err := p.Scrape(gctx)
			results[i] = Result{Source: p.Name(), Fetched: len(jobs), Err: err, Duration: time.Since(start)}
			if err != nil {
				r.log.Warn("⚠️ Scraper failed, submitting partial batch", "source", p.Name(), "fetched", len(jobs), "error", err)
			} else {
				r.log.Info("✅ Scraped", "source", p.Name(), "fetched", len(jobs), "took", results[i].Duration.Round(time.Millisecond))
			}

			r.sinkMu.Lock()
			defer r.sinkMu.Unlock()
			if err := r.sink.Submit(gctx, p.Name(), jobs); err != nil {
				return fmt.Errorf("submit %s batch: %w", p.Name(), err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
