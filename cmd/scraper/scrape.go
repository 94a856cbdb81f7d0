package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"go-jobradar/internal/models"
	"go-jobradar/internal/queue"
	"go-jobradar/internal/scraper"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape job boards and persist or publish the results",
	Long:  "Run the selected producers concurrently. Each producer's batch is merged into the store, or published to the queue with --publish.",
	RunE:  runScrape,
}

var (
	scrapeSources []string
	scrapeBrowser bool
	scrapePublish bool
)

func init() {
	scrapeCmd.Flags().StringSliceVar(&scrapeSources, "source", nil, "Sources to scrape (amazon, cvs, jpmc, microsoft); defaults to the enabled sources in config, or all")
	scrapeCmd.Flags().BoolVar(&scrapeBrowser, "browser", false, "Send requests through a headless browser")
	scrapeCmd.Flags().BoolVar(&scrapePublish, "publish", false, "Publish batches to RabbitMQ instead of persisting them")

	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	runner, cleanup, err := a.scrapeRunner(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	return a.scrapeOnce(ctx, runner)
}

// scrapeRunner builds the producers and sink selected by the scrape flags.
func (a *app) scrapeRunner(ctx context.Context) (*scraper.Runner, func(), error) {
	names := scrapeSources
	if len(names) == 0 {
		names = a.cfg.EnabledSources()
	}
	if len(names) == 0 {
		names = sourceNames
	}

	producers, closeTransport, err := a.producers(ctx, names, scrapeBrowser)
	if err != nil {
		return nil, nil, err
	}

	sink, closeSink, err := a.scrapeSink()
	if err != nil {
		closeTransport()
		return nil, nil, err
	}

	a.log.Info("🚀 Scrape configured", "sources", names, "publish", scrapePublish)
	return scraper.NewRunner(sink, a.log, producers...), func() {
		closeSink()
		closeTransport()
	}, nil
}

func (a *app) scrapeOnce(ctx context.Context, runner *scraper.Runner) error {
	results, err := runner.Run(ctx)
	for _, r := range results {
		a.log.Info("📊 Source finished", "source", r.Source, "fetched", r.Fetched, "took", r.Duration, "failed", r.Err != nil)
	}
	if err != nil {
		return fmt.Errorf("scrape run failed: %w", err)
	}
	a.log.Info("✅ Scrape complete")
	return nil
}

func (a *app) scrapeSink() (scraper.Sink, func(), error) {
	if scrapePublish {
		if a.cfg.RabbitMQ.URL == "" {
			return nil, nil, fmt.Errorf("--publish needs RABBITMQ_URL")
		}
		pub, err := queue.NewPublisher(queue.Config{URL: a.cfg.RabbitMQ.URL, QueueName: a.cfg.RabbitMQ.Queue}, a.log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to init publisher: %w", err)
		}
		return pub, func() { _ = pub.Close() }, nil
	}

	engine, err := a.engine()
	if err != nil {
		return nil, nil, err
	}
	reps := a.reporters()
	return scraper.SinkFunc(func(ctx context.Context, source string, jobs []models.Job) error {
		return a.persist(ctx, engine, reps, source, jobs)
	}), func() {}, nil
}
