package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"go-jobradar/internal/models"
)

// Publisher sends scrape batches to the queue. It is not safe for concurrent use.
type Publisher struct {
	*client
}

func NewPublisher(config Config, logger *slog.Logger) (*Publisher, error) {
	c, err := dial(config, logger)
	if err != nil {
		return nil, err
	}
	return &Publisher{client: c}, nil
}

// Publish sends b as a persistent message, retrying with exponential backoff.
func (p *Publisher) Publish(ctx context.Context, b Batch) error {
	body, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}

	maxRetries := p.config.PublishRetries
	baseDelay := p.config.PublishRetryDelay

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := p.channel.PublishWithContext(
			ctx,
			"",                 // exchange
			p.config.QueueName, // routing key
			false,              // mandatory
			false,              // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				Body:         body,
				DeliveryMode: amqp.Persistent,
				Timestamp:    b.PublishedAt,
				MessageId:    b.RunID,
			},
		)
		if err == nil {
			p.logger.Info("📤 Published batch",
				slog.String("run_id", b.RunID),
				slog.String("source", b.Source),
				slog.Int("jobs", len(b.Jobs)),
			)
			return nil
		}
		lastErr = err

		if attempt < maxRetries {
			backoffDelay := baseDelay * time.Duration(1<<uint(attempt))
			p.logger.Warn("Failed to publish batch, retrying...",
				slog.Int("attempt", attempt+1),
				slog.Duration("retry_after", backoffDelay),
				slog.Any("error", err),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoffDelay):
			}
		}
	}
	return fmt.Errorf("failed to publish batch after %d attempts: %w", maxRetries+1, lastErr)
}

// Submit lets a Publisher serve as the scraper run's sink.
func (p *Publisher) Submit(ctx context.Context, source string, jobs []models.Job) error {
	return p.Publish(ctx, NewBatch(source, jobs))
}
