package main

import (
	"fmt"

	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/vectorstore"
	"github.com/spf13/cobra"
)

func newHealthCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Report vector store health and the active embedding model",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			a, err := buildApp(cmd.Context(), cfg, logger, false)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			report, err := a.service.Health(cmd.Context())
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if report.Status != vectorstore.StatusOK {
				return fmt.Errorf("vector store is %s", report.Status)
			}
			return nil
		},
	}
}
