// Package main is the jobradar command line: scrape job boards, persist batches
// through the merge engine, export the result set and run the queue consumer.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"go-jobradar/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "jobradar",
	Short:         "Collect recent data-engineering job postings",
	Long:          "jobradar scrapes career sites, keeps recent data-engineering postings and merges them into one deduplicated result set.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Path to the YAML config file")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
