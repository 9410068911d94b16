package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long:  "Start an HTTP server exposing CV ingestion, scrape cycles, recommendations and health endpoints.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx, cfg, logger, true)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					logger.Warn("failed to close resources", zap.Error(err))
				}
			}()

			limits := cfg.RateLimit.Limiter()
			srv := server.New(a.service, server.Config{
				Port:            cfg.Server.Port,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
				AllowedOrigins:  cfg.Server.AllowedOrigins,
				RateLimit:       limits,
				DefaultTopN:     cfg.Match.DefaultTopN,
				DefaultMaxJobs:  cfg.Scrape.MaxJobs,
			}, logger.Named("server"))

			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "Port to listen on (overrides server.port)")
	return cmd
}
