package store

import (
	"context"
	"sync"

	"go-jobradar/internal/models"
)

// MemoryStore keeps the result set in memory. LoadErr and SaveErr, when set, are
// returned by the next calls.
type MemoryStore struct {
	mu      sync.Mutex
	jobs    []models.Job
	saves   int
	LoadErr error
	SaveErr error
}

func NewMemoryStore(initial ...models.Job) *MemoryStore {
	return &MemoryStore{jobs: cloneJobs(initial)}
}

func (m *MemoryStore) Load(ctx context.Context) ([]models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return cloneJobs(m.jobs), nil
}

func (m *MemoryStore) Save(ctx context.Context, jobs []models.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.jobs = cloneJobs(jobs)
	m.saves++
	return nil
}

// Jobs returns what the last successful Save stored.
func (m *MemoryStore) Jobs() []models.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneJobs(m.jobs)
}

func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func cloneJobs(jobs []models.Job) []models.Job {
	if jobs == nil {
		return nil
	}
	out := make([]models.Job, len(jobs))
	copy(out, jobs)
	return out
}
