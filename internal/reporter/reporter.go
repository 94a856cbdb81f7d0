package reporter

import (
	"context"
	"errors"
	"log/slog"

	"go-jobradar/internal/dedup"
)

// Reporter announces the outcome of a persist call.
type Reporter interface {
	ReportRun(ctx context.Context, source string, s dedup.Summary) error
}

// LogReporter writes each new posting to the log.
type LogReporter struct {
	log *slog.Logger
}

func NewLogReporter(log *slog.Logger) *LogReporter {
	if log == nil {
		log = slog.Default()
	}
	return &LogReporter{log: log}
}

func (r *LogReporter) ReportRun(ctx context.Context, source string, s dedup.Summary) error {
	for _, job := range s.Added {
		r.log.Info("🆕 New posting",
			"source", source,
			"title", job.Title,
			"company", job.Company,
			"location", job.Location,
			"posted", job.PostedDate,
			"url", job.Link())
	}
	r.log.Info("📊 Run finished", "source", source, "run_id", s.RunID, "final", s.Final, "added", len(s.Added), "evicted", s.Evicted)
	return nil
}

// Multi fans a report out to every reporter and joins their errors.
type Multi []Reporter

func (m Multi) ReportRun(ctx context.Context, source string, s dedup.Summary) error {
	var errs []error
	for _, r := range m {
		if err := r.ReportRun(ctx, source, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
