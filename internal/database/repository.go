package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-jobradar/internal/dedup"
	"go-jobradar/internal/models"
)

const defaultLockName = "jobradar:persist"

type Repository struct {
	db           *pgxpool.Pool
	lockName     string
	pollInterval time.Duration
}

func ConnectDB(ctx context.Context, connString string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	// Transaction-mode poolers (PgBouncer, Supabase) reject cached prepared statements.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &Repository{db: pool, lockName: defaultLockName, pollInterval: 250 * time.Millisecond}, nil
}

func (r *Repository) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS job_postings (
	position     INTEGER     NOT NULL,
	identity_key TEXT        PRIMARY KEY,
	record       JSONB       NOT NULL,
	saved_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS persist_runs (
	run_id      TEXT        PRIMARY KEY,
	raw_count   INTEGER     NOT NULL,
	kept_count  INTEGER     NOT NULL,
	final_count INTEGER     NOT NULL,
	evicted     INTEGER     NOT NULL,
	added       INTEGER     NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// EnsureSchema creates the tables if they do not exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// ---------------- JOB SET ----------------

// Load returns the stored set in saved order.
func (r *Repository) Load(ctx context.Context) ([]models.Job, error) {
	rows, err := r.db.Query(ctx, "SELECT record FROM job_postings ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		return nil, fmt.Errorf("failed to read jobs: %w", err)
	}

	jobs := make([]models.Job, 0, len(records))
	for i, rec := range records {
		var job models.Job
		if err := json.Unmarshal(rec, &job); err != nil {
			return nil, fmt.Errorf("failed to decode job at position %d: %w", i, err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Save replaces the stored set in one transaction.
func (r *Repository) Save(ctx context.Context, jobs []models.Job) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM job_postings"); err != nil {
		return fmt.Errorf("failed to clear jobs: %w", err)
	}

	batch := &pgx.Batch{}
	for i, job := range jobs {
		rec, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("failed to encode job %s: %w", job.IdentityKey(), err)
		}
		batch.Queue("INSERT INTO job_postings (position, identity_key, record) VALUES ($1, $2, $3)",
			i, job.IdentityKey(), string(rec))
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert jobs: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit jobs: %w", err)
	}
	return nil
}

// RecordRun stores the counters of one persist call.
func (r *Repository) RecordRun(ctx context.Context, s dedup.Summary) error {
	query := `
		INSERT INTO persist_runs (run_id, raw_count, kept_count, final_count, evicted, added)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (run_id) DO NOTHING`
	_, err := r.db.Exec(ctx, query, s.RunID, s.Raw, s.Kept, s.Final, s.Evicted, len(s.Added))
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// ---------------- LOCKING ----------------

// Lock takes a session advisory lock on a connection held until unlock.
func (r *Repository) Lock(ctx context.Context) (func(), error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	for {
		var ok bool
		err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock(hashtext($1))", r.lockName).Scan(&ok)
		if err != nil && ctx.Err() == nil {
			conn.Release()
			return nil, fmt.Errorf("failed to take advisory lock: %w", err)
		}
		if ok {
			return func() {
				_, _ = conn.Exec(context.Background(), "SELECT pg_advisory_unlock(hashtext($1))", r.lockName)
				conn.Release()
			}, nil
		}

		select {
		case <-ctx.Done():
			conn.Release()
			return nil, fmt.Errorf("%w: advisory lock %q: %v", dedup.ErrLockHeld, r.lockName, ctx.Err())
		case <-time.After(r.pollInterval):
		}
	}
}
