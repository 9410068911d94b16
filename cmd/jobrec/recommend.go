package main

import (
	"fmt"
	"strings"

	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/types"
	"github.com/spf13/cobra"
)

func newRecommendCmd(root *rootOptions) *cobra.Command {
	var (
		userID   string
		topN     int
		location string
		level    string
	)

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend job listings for a user",
		Long:  "Rank stored job listings by similarity to the CV profile of --user-id.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if topN == 0 {
				topN = cfg.Match.DefaultTopN
			}

			filters := &types.Filters{Location: strings.TrimSpace(location)}
			if level != "" {
				parsed, err := types.ParseExperienceLevel(level)
				if err != nil {
					return err
				}
				filters.ExperienceLevel = parsed
			}

			a, err := buildApp(cmd.Context(), cfg, logger, false)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			resp, err := a.service.Recommend(cmd.Context(), userID, topN, filters)
			if err != nil {
				return fmt.Errorf("failed to recommend jobs: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVarP(&userID, "user-id", "u", "", "User to recommend jobs for (required)")
	cmd.Flags().IntVarP(&topN, "top-n", "n", 0, "Number of recommendations, 1 to 100 (default match.default_top_n)")
	cmd.Flags().StringVar(&location, "location", "", "Only listings whose location contains this text")
	cmd.Flags().StringVar(&level, "experience-level", "", "Only listings of this level: junior, mid, senior or unspecified")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}
