package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go-jobradar/internal/browser"
	"go-jobradar/internal/config"
	"go-jobradar/internal/database"
	"go-jobradar/internal/dedup"
	"go-jobradar/internal/filter"
	"go-jobradar/internal/logger"
	"go-jobradar/internal/models"
	"go-jobradar/internal/reporter"
	"go-jobradar/internal/scraper"
	"go-jobradar/internal/scraper/amazon"
	"go-jobradar/internal/scraper/cvs"
	"go-jobradar/internal/scraper/jpmc"
	"go-jobradar/internal/scraper/microsoft"
	"go-jobradar/internal/store"
	"go-jobradar/internal/telegram"
)

// app holds what every subcommand needs: config, logger and the backing store.
type app struct {
	cfg    *config.Config
	log    *slog.Logger
	store  dedup.Store
	locker dedup.Locker
	// repo is set for the postgres backend so runs can be recorded.
	repo    *database.Repository
	closers []func()
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	appLogger, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	slog.SetDefault(appLogger.Logger)

	a := &app{cfg: cfg, log: appLogger.Logger}
	if err := a.openStore(ctx); err != nil {
		a.Close()
		return nil, err
	}
	a.log.Info("🔧 Config loaded", "backend", cfg.Storage.Backend, "window_days", cfg.Filter.WindowDays)
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	s := a.cfg.Storage
	switch s.Backend {
	case "postgres":
		repo, err := database.ConnectDB(ctx, a.cfg.Database.URL)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, repo.Close)
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		a.store, a.locker, a.repo = repo, repo, repo
	case "redis":
		client, err := store.NewRedisClient(ctx, a.cfg.Redis.URL)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		rs := store.NewRedisStore(client, a.cfg.Redis.Key)
		a.store, a.locker = rs, rs.Locker(s.LockTTL)
	default:
		fs := store.NewFileStore(s.Path, s.GlobalVar)
		lock := dedup.NewFileLock(fs.Path)
		lock.TTL = s.LockTTL
		a.store, a.locker = fs, lock
	}
	a.locker = waitLocker{Locker: a.locker, wait: s.LockWait}
	return nil
}

// Close releases connections in reverse order of opening.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// waitLocker bounds how long Lock waits for another writer.
type waitLocker struct {
	dedup.Locker
	wait time.Duration
}

func (l waitLocker) Lock(ctx context.Context) (func(), error) {
	if l.wait <= 0 {
		return l.Locker.Lock(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()
	return l.Locker.Lock(ctx)
}

func (a *app) engine() (*dedup.Engine, error) {
	classifier, err := filter.NewClassifier(a.cfg.Filter.Keywords, a.cfg.Filter.MaxExperienceYears)
	if err != nil {
		return nil, fmt.Errorf("failed to build classifier: %w", err)
	}
	return dedup.NewEngine(a.store,
		dedup.WithClassifier(classifier),
		dedup.WithWindowDays(a.cfg.Filter.WindowDays),
		dedup.WithLocker(a.locker),
		dedup.WithLogger(a.log),
	), nil
}

func (a *app) reporters() reporter.Multi {
	reps := reporter.Multi{reporter.NewLogReporter(a.log)}
	tg := a.cfg.Telegram
	if !tg.Enabled() {
		a.log.Info("Telegram not configured, notifications go to the log only")
		return reps
	}
	bot, err := telegram.NewBot(tg.Token, tg.ChatID, tg.MaxMessages)
	if err != nil {
		a.log.Warn("⚠️ Failed to init Telegram bot, continuing without it", "error", err)
		return reps
	}
	a.log.Info("🤖 Telegram Bot initialized.")
	return append(reps, bot)
}

// persist runs one batch through the engine, records the run and reports it.
// Reporter failures are logged; only persist failures are returned.
func (a *app) persist(ctx context.Context, engine *dedup.Engine, reps reporter.Reporter, source string, jobs []models.Job) error {
	summary, err := engine.Persist(ctx, jobs)
	if err != nil {
		return fmt.Errorf("persist %s batch: %w", source, err)
	}
	if a.repo != nil {
		if err := a.repo.RecordRun(ctx, summary); err != nil {
			a.log.Warn("⚠️ Failed to record run", "run_id", summary.RunID, "error", err)
		}
	}
	if err := reps.ReportRun(ctx, source, summary); err != nil {
		a.log.Warn("⚠️ Failed to report run", "source", source, "error", err)
	}
	return nil
}

// sourceNames are the producers known to the CLI, in run order.
var sourceNames = []string{"amazon", "cvs", "jpmc", "microsoft"}

// producers builds the selected producers over one shared transport. The returned
// func closes the transport.
func (a *app) producers(ctx context.Context, names []string, useBrowser bool) ([]scraper.Producer, func(), error) {
	tc := a.cfg.Transport
	var (
		transport scraper.Transport
		closeFn   = func() {}
	)
	if useBrowser || tc.Browser {
		bt, err := browser.NewTransport(ctx, browser.Options{
			Headless:      tc.Headless,
			UserAgent:     tc.UserAgent,
			CookieFiles:   tc.CookieFiles,
			WarmupURLs:    tc.WarmupURLs,
			MinDelayMs:    tc.MinDelayMs,
			MaxDelayMs:    tc.MaxDelayMs,
			TimeoutMs:     float64(tc.Timeout.Milliseconds()),
			ScreenshotDir: tc.ScreenshotDir,
		}, a.log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to init browser transport: %w", err)
		}
		a.log.Info("✅ Browser initialized successfully!")
		transport = bt
		closeFn = func() { _ = bt.Close() }
	} else {
		transport = scraper.NewHTTPTransport(tc.Timeout, tc.UserAgent)
	}

	src := a.cfg.Sources
	var out []scraper.Producer
	for _, name := range names {
		switch name {
		case "amazon":
			out = append(out, amazon.New(transport, src.Amazon.URL, src.Amazon.Query, a.log))
		case "cvs":
			out = append(out, cvs.New(transport, src.CVS.URL, src.CVS.Query, a.log))
		case "jpmc":
			out = append(out, jpmc.New(transport, src.JPMC.URL, src.JPMC.Query, a.log))
		case "microsoft":
			out = append(out, microsoft.New(transport, src.Microsoft.URL, src.Microsoft.Query, a.cfg.Filter.WindowDays, a.log))
		default:
			closeFn()
			return nil, nil, fmt.Errorf("unknown source %q (want one of %v)", name, sourceNames)
		}
	}
	return out, closeFn, nil
}
