package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteProfileCmd(root *rootOptions) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "delete-profile",
		Short: "Delete a user's CV profile and its archived artifact",
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

			if err := a.service.DeleteProfile(cmd.Context(), userID); err != nil {
				return fmt.Errorf("failed to delete profile: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted profile of %s\n", userID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user-id", "u", "", "User whose profile to delete (required)")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}
