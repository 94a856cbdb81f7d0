package dedup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrLockHeld is returned when another writer keeps the lock until ctx is done.
var ErrLockHeld = errors.New("another writer holds the store lock")

const (
	DefaultLockTTL      = 10 * time.Minute
	defaultPollInterval = 200 * time.Millisecond
)

// FileLock is a sidecar lock file created with O_EXCL. A lock file older than TTL
// is treated as left behind by a crashed writer and removed.
type FileLock struct {
	Path         string
	TTL          time.Duration
	PollInterval time.Duration
}

// NewFileLock guards the store at storePath with storePath + ".lock".
func NewFileLock(storePath string) *FileLock {
	return &FileLock{Path: storePath + ".lock", TTL: DefaultLockTTL, PollInterval: defaultPollInterval}
}

func (l *FileLock) Lock(ctx context.Context) (func(), error) {
	ttl := l.TTL
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	poll := l.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}

	if err := os.MkdirAll(filepath.Dir(l.Path), 0755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}

	for {
		f, err := os.OpenFile(l.Path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			_, _ = fmt.Fprintf(f, `{"pid":%d,"time":%d}`+"\n", os.Getpid(), time.Now().Unix())
			_ = f.Close()
			return func() { _ = os.Remove(l.Path) }, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create lock file: %w", err)
		}

		if fi, statErr := os.Stat(l.Path); statErr == nil && time.Since(fi.ModTime()) >= ttl {
			_ = os.Remove(l.Path)
			continue
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrLockHeld, l.Path, ctx.Err())
		case <-time.After(poll):
		}
	}
}
