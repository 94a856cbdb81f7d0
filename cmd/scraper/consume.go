package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go-jobradar/internal/queue"
)

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Persist batches from the queue, one at a time",
	Long:  "Run the single writer: take scrape batches from RabbitMQ and merge each into the store before acknowledging it.",
	RunE:  runConsume,
}

func init() {
	rootCmd.AddCommand(consumeCmd)
}

func runConsume(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.RabbitMQ.URL == "" {
		return errors.New("consume needs RABBITMQ_URL")
	}

	engine, err := a.engine()
	if err != nil {
		return err
	}
	reps := a.reporters()

	host, _ := os.Hostname()
	consumer, err := queue.NewConsumer(queue.Config{URL: a.cfg.RabbitMQ.URL, QueueName: a.cfg.RabbitMQ.Queue}, "jobradar-"+host, a.log)
	if err != nil {
		return fmt.Errorf("failed to init consumer: %w", err)
	}
	defer consumer.Close()

	return consumer.Run(ctx, func(ctx context.Context, b queue.Batch) error {
		a.log.Info("📦 Batch received", "run_id", b.RunID, "source", b.Source, "jobs", len(b.Jobs))
		return a.persist(ctx, engine, reps, b.Source, b.Jobs)
	})
}
