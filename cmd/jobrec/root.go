package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/config"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	debug      bool
	json       bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "jobrec",
		Short: "AI-powered job recommendation service",
		Long: "jobrec embeds CVs and scraped job listings into a shared vector space " +
			"and recommends the listings closest to a candidate's profile.",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML or JSON config file")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&opts.json, "json-logs", false, "Write logs as JSON")

	cmd.AddCommand(
		newServeCmd(opts),
		newIngestCVCmd(opts),
		newScrapeCmd(opts),
		newRecommendCmd(opts),
		newDeleteProfileCmd(opts),
		newHealthCmd(opts),
	)
	return cmd
}

// load reads and validates the configuration and builds the logger.
// Flags override the log settings of the file.
func (o *rootOptions) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if o.debug {
		cfg.Log.Debug = true
	}
	if o.json {
		cfg.Log.JSON = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logger, nil
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
