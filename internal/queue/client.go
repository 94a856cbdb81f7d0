package queue

import (
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const DefaultQueueName = "jobradar.batches"

// Config holds RabbitMQ connection configuration
type Config struct {
	URL               string
	QueueName         string
	RetryAttempts     int
	RetryInterval     time.Duration
	Heartbeat         time.Duration
	PublishRetries    int
	PublishRetryDelay time.Duration
}

func (c *Config) withDefaults() {
	if c.QueueName == "" {
		c.QueueName = DefaultQueueName
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 3
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = 2 * time.Second
	}
	if c.Heartbeat <= 0 {
		c.Heartbeat = 10 * time.Second
	}
	if c.PublishRetries <= 0 {
		c.PublishRetries = 3
	}
	if c.PublishRetryDelay <= 0 {
		c.PublishRetryDelay = 100 * time.Millisecond
	}
}

// client owns one connection and channel bound to a durable queue on the
// default exchange.
type client struct {
	config  Config
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *slog.Logger
}

func dial(config Config, logger *slog.Logger) (*client, error) {
	config.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	c := &client{config: config, logger: logger}

	amqpConfig := amqp.Config{
		Heartbeat: config.Heartbeat,
		Locale:    "en_US",
	}

	var err error
	for attempt := 1; attempt <= config.RetryAttempts; attempt++ {
		logger.Info("Connecting to RabbitMQ",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", config.RetryAttempts),
		)

		c.conn, err = amqp.DialConfig(config.URL, amqpConfig)
		if err == nil {
			break
		}

		logger.Error("Failed to connect to RabbitMQ",
			slog.Any("error", err),
			slog.Int("attempt", attempt),
		)
		if attempt < config.RetryAttempts {
			time.Sleep(config.RetryInterval)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", config.RetryAttempts, err)
	}

	c.channel, err = c.conn.Channel()
	if err != nil {
		c.conn.Close()
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		config.QueueName, // name
		true,             // durable
		false,            // auto-delete
		false,            // exclusive
		false,            // no-wait
		nil,              // arguments
	)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	logger.Info("RabbitMQ client initialized", slog.String("queue", config.QueueName))
	return c, nil
}

func (c *client) Close() error {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.logger.Error("Failed to close RabbitMQ channel", slog.Any("error", err))
		}
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
