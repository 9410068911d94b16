package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newIngestCVCmd(root *rootOptions) *cobra.Command {
	var userID, source string

	cmd := &cobra.Command{
		Use:   "ingest-cv",
		Short: "Ingest a CV from the object store",
		Long: "Read the CV text at --source from the configured object store, embed it and " +
			"store it as the profile of --user-id, replacing any previous profile.",
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

			profile, err := a.service.IngestCV(cmd.Context(), userID, source)
			if err != nil {
				return fmt.Errorf("failed to ingest CV: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), profile.Archived())
		},
	}

	cmd.Flags().StringVarP(&userID, "user-id", "u", "", "User the CV belongs to (required)")
	cmd.Flags().StringVarP(&source, "source", "s", "", "Object store location of the CV text (required)")
	_ = cmd.MarkFlagRequired("user-id")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}
