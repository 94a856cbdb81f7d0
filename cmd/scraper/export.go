package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"go-jobradar/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the stored result set to a JSON file and its .js mirror",
	RunE:  runExport,
}

var exportOut string

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", store.DefaultPath, "Output JSON path; the .js mirror is written next to it")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	jobs, err := a.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load jobs: %w", err)
	}
	if err := store.WriteFiles(exportOut, a.cfg.Storage.GlobalVar, jobs); err != nil {
		return fmt.Errorf("failed to export jobs: %w", err)
	}
	a.log.Info("💾 Exported jobs", "count", len(jobs), "path", exportOut)
	return nil
}
