package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"go-jobradar/internal/models"
)

// Batch is one producer's scrape result on its way to the single writer.
type Batch struct {
	RunID       string       `json:"run_id"`
	Source      string       `json:"source"`
	PublishedAt time.Time    `json:"published_at"`
	Jobs        []models.Job `json:"jobs"`
}

func NewBatch(source string, jobs []models.Job) Batch {
	if jobs == nil {
		jobs = []models.Job{}
	}
	return Batch{RunID: uuid.NewString(), Source: source, PublishedAt: time.Now().UTC(), Jobs: jobs}
}

// DecodeBatch parses and checks a message body.
func DecodeBatch(body []byte) (Batch, error) {
	var b Batch
	if err := json.Unmarshal(body, &b); err != nil {
		return Batch{}, fmt.Errorf("parse batch: %w", err)
	}
	if _, err := uuid.Parse(b.RunID); err != nil {
		return Batch{}, fmt.Errorf("invalid run_id %q: %w", b.RunID, err)
	}
	if b.Source == "" {
		return Batch{}, fmt.Errorf("batch %s has no source", b.RunID)
	}
	return b, nil
}
