package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Handler processes one batch. An error stops the consumer and leaves the
// message unacknowledged so the broker redelivers it.
type Handler func(ctx context.Context, b Batch) error

// Consumer is the single writer: it takes one batch at a time.
type Consumer struct {
	*client
	tag string
}

func NewConsumer(config Config, tag string, logger *slog.Logger) (*Consumer, error) {
	c, err := dial(config, logger)
	if err != nil {
		return nil, err
	}
	return &Consumer{client: c, tag: tag}, nil
}

var errDeliveriesClosed = errors.New("rabbitmq delivery channel closed")

// Run consumes until ctx is done, the channel closes or the handler fails.
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	if err := c.channel.Qos(
		1,     // prefetch count
		0,     // prefetch size
		false, // global
	); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := c.channel.Consume(
		c.config.QueueName, // queue
		c.tag,              // consumer tag
		false,              // auto-ack
		false,              // exclusive
		false,              // no-local
		false,              // no-wait
		nil,                // args
	)
	if err != nil {
		return fmt.Errorf("failed to consume messages: %w", err)
	}
	c.logger.Info("📥 Consuming batches", slog.String("queue", c.config.QueueName), slog.String("consumer_tag", c.tag))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Consumer stopped - context canceled")
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errDeliveriesClosed
			}
			if err := c.handle(ctx, d.Body, d, handler); err != nil {
				return err
			}
		}
	}
}

// acknowledger is the part of amqp.Delivery the consumer needs.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func (c *client) handle(ctx context.Context, body []byte, ack acknowledger, handler Handler) error {
	b, err := DecodeBatch(body)
	if err != nil {
		c.logger.Error("Dropping malformed batch",
			slog.String("error", err.Error()),
			slog.Int("body_size", len(body)),
		)
		if nackErr := ack.Nack(false, false); nackErr != nil {
			c.logger.Error("Failed to NACK malformed batch", slog.String("error", nackErr.Error()))
		}
		return nil
	}

	if err := handler(ctx, b); err != nil {
		return fmt.Errorf("handle batch %s from %s: %w", b.RunID, b.Source, err)
	}

	if err := ack.Ack(false); err != nil {
		return fmt.Errorf("ack batch %s: %w", b.RunID, err)
	}
	return nil
}
