package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newScrapeCmd(root *rootOptions) *cobra.Command {
	var maxJobs int

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Run one scrape cycle",
		Long: "Walk the configured search queries page by page, embed new listings and store them. " +
			"The cycle summary is printed even when the cycle ends early.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if maxJobs <= 0 {
				maxJobs = cfg.Scrape.MaxJobs
			}

			a, err := buildApp(cmd.Context(), cfg, logger, true)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			result, runErr := a.service.RunScrapeCycle(cmd.Context(), maxJobs)
			if result != nil {
				if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			}
			if runErr != nil {
				return fmt.Errorf("scrape cycle failed: %w", runErr)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&maxJobs, "max-jobs", "n", 0, "Maximum listings to ingest (default scrape.max_jobs)")
	return cmd
}
