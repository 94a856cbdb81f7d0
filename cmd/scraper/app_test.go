package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-jobradar/internal/config"
	"go-jobradar/internal/dedup"
)

func TestReadBatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id": "A1", "title": "Data Engineer"}, {"jobId": 9}]`), 0644))

	jobs, err := readBatch(path)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "A1", jobs[0].ID)
	assert.Equal(t, "9", jobs[1].JobID)

	jobs, err = readBatch("")
	require.NoError(t, err)
	assert.Nil(t, jobs)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"id": "A1"}`), 0644))
	_, err = readBatch(bad)
	assert.Error(t, err)

	_, err = readBatch(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestWaitLocker_GivesUp(t *testing.T) {
	lock := dedup.NewFileLock(filepath.Join(t.TempDir(), "jobs.json"))
	lock.PollInterval = 10 * time.Millisecond

	unlock, err := lock.Lock(context.Background())
	require.NoError(t, err)
	defer unlock()

	start := time.Now()
	_, err = waitLocker{Locker: lock, wait: 50 * time.Millisecond}.Lock(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, dedup.ErrLockHeld))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSourceNamesBuildProducers(t *testing.T) {
	a := &app{cfg: testConfig(t), log: slog.New(slog.NewTextHandler(io.Discard, nil))}

	producers, closeFn, err := a.producers(context.Background(), sourceNames, false)
	require.NoError(t, err)
	defer closeFn()
	assert.Len(t, producers, len(sourceNames))

	_, _, err = a.producers(context.Background(), []string{"monster"}, false)
	assert.ErrorContains(t, err, "unknown source")
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("JOBS_STORE", "")
	t.Setenv("PORT", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	return cfg
}
