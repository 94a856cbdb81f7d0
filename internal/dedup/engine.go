package dedup

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"go-jobradar/internal/filter"
	"go-jobradar/internal/models"
)

// Store loads and replaces the whole persisted result set.
type Store interface {
	Load(ctx context.Context) ([]models.Job, error)
	Save(ctx context.Context, jobs []models.Job) error
}

// Locker serializes Persist calls across processes that share one Store.
type Locker interface {
	Lock(ctx context.Context) (func(), error)
}

// Summary describes one Persist call.
type Summary struct {
	RunID    string       `json:"run_id"`
	Raw      int          `json:"raw"`
	Kept     int          `json:"kept"`
	Previous int          `json:"previous"`
	Merged   int          `json:"merged"`
	Final    int          `json:"final"`
	Evicted  int          `json:"evicted"`
	Added    []models.Job `json:"added"`
}

// Engine filters a batch, merges it into the persisted set by identity key and
// writes the result back. The persisted set only ever holds recent, in-scope postings.
type Engine struct {
	mu         sync.Mutex
	store      Store
	locker     Locker
	classifier *filter.Classifier
	windowDays int
	now        func() time.Time
	log        *slog.Logger
}

type Option func(*Engine)

func WithClassifier(c *filter.Classifier) Option {
	return func(e *Engine) {
		if c != nil {
			e.classifier = c
		}
	}
}

func WithWindowDays(days int) Option {
	return func(e *Engine) {
		if days > 0 {
			e.windowDays = days
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func WithLocker(l Locker) Option {
	return func(e *Engine) {
		e.locker = l
	}
}

func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:      store,
		windowDays: filter.DefaultWindowDays,
		now:        time.Now,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.classifier == nil {
		c, _ := filter.NewClassifier(filter.DefaultKeywords(), filter.DefaultMaxExperienceYears)
		e.classifier = c
	}
	return e
}

// Accept reports whether a freshly scraped job belongs in the result set.
func (e *Engine) Accept(job models.Job, now time.Time) bool {
	if !e.classifier.IsTargetTitle(job.Title) {
		return false
	}
	if e.classifier.HasExcessiveExperience(job.ExperienceText()) {
		return false
	}
	return filter.IsRecent(job.PostedDate, e.windowDays, now)
}

// Persist merges batch into the stored set. A record whose identity key is already
// stored replaces it in place. Every record, old or new, is re-checked for recency
// so stale postings drop out even when batch is empty. Only Save errors are returned.
func (e *Engine) Persist(ctx context.Context, batch []models.Job) (Summary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.locker != nil {
		unlock, err := e.locker.Lock(ctx)
		if err != nil {
			return Summary{}, fmt.Errorf("acquire store lock: %w", err)
		}
		defer unlock()
	}

	now := e.now()
	summary := Summary{RunID: uuid.NewString(), Raw: len(batch)}
	log := e.log.With("run_id", summary.RunID)

	prior, err := e.store.Load(ctx)
	if err != nil {
		log.Warn("⚠️ Could not load stored jobs, starting from empty", "error", err)
		prior = nil
	}
	summary.Previous = len(prior)

	kept := make([]models.Job, 0, len(batch))
	for _, job := range batch {
		if e.Accept(job, now) {
			kept = append(kept, job)
		}
	}
	summary.Kept = len(kept)
	log.Info("🔍 Filtered batch", "raw", summary.Raw, "kept", summary.Kept)

	priorKeys := make(map[string]struct{}, len(prior))
	for _, job := range prior {
		priorKeys[job.IdentityKey()] = struct{}{}
	}

	merged := mergeByKey(prior, kept)
	summary.Merged = len(merged)

	final := make([]models.Job, 0, len(merged))
	for _, job := range merged {
		if !filter.IsRecent(job.PostedDate, e.windowDays, now) {
			continue
		}
		final = append(final, job)
		if _, seen := priorKeys[job.IdentityKey()]; !seen {
			summary.Added = append(summary.Added, job)
		}
	}
	summary.Final = len(final)
	summary.Evicted = summary.Merged - summary.Final

	if err := e.store.Save(ctx, final); err != nil {
		return summary, fmt.Errorf("save %d jobs: %w", len(final), err)
	}

	log.Info("💾 Persisted jobs",
		"previous", summary.Previous,
		"merged", summary.Merged,
		"final", summary.Final,
		"evicted", summary.Evicted,
		"added", len(summary.Added))
	return summary, nil
}

// mergeByKey concatenates the slices and keeps one record per identity key. The
// last record wins, at the position where the key first appeared.
func mergeByKey(slices ...[]models.Job) []models.Job {
	index := make(map[string]int)
	var out []models.Job
	for _, jobs := range slices {
		for _, job := range jobs {
			key := job.IdentityKey()
			if i, ok := index[key]; ok {
				out[i] = job
				continue
			}
			index[key] = len(out)
			out = append(out, job)
		}
	}
	return out
}
