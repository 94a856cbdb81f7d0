package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"go-jobradar/internal/models"
)

var persistCmd = &cobra.Command{
	Use:   "persist",
	Short: "Merge a batch of job records into the store",
	Long:  "Read a JSON array of job records and merge it into the store. Without --batch an empty batch is persisted, which only evicts stale postings.",
	RunE:  runPersist,
}

var (
	persistBatchFile string
	persistSource    string
)

func init() {
	persistCmd.Flags().StringVar(&persistBatchFile, "batch", "", "Path to a JSON array of job records (\"-\" for stdin)")
	persistCmd.Flags().StringVar(&persistSource, "source", "manual", "Source label used in reports")

	rootCmd.AddCommand(persistCmd)
}

func runPersist(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	batch, err := readBatch(persistBatchFile)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	engine, err := a.engine()
	if err != nil {
		return err
	}
	return a.persist(ctx, engine, a.reporters(), persistSource, batch)
}

func readBatch(path string) ([]models.Job, error) {
	if path == "" {
		return nil, nil
	}

	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read batch: %w", err)
	}

	var jobs []models.Job
	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("failed to parse batch %s: %w", path, err)
	}
	return jobs, nil
}
