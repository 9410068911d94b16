package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/config"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/cvingest"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/embedding"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/fetch"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/jobingest"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/match"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/objectstore"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/ratelimit"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/recommender"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/scrape"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/vectorstore"
	"go.uber.org/zap"
)

// newProvider creates the embedding provider; tests replace it.
var newProvider = func(ctx context.Context, cfg config.EmbeddingConfig) (embedding.Provider, error) {
	key := cfg.APIKey()
	if key == "" {
		return nil, fmt.Errorf("an API key is required for embedding provider %q", cfg.Provider)
	}
	if cfg.Provider == string(embedding.ProviderOpenAI) {
		return embedding.NewOpenAIProvider(key, cfg.OpenAIBaseURL)
	}
	return embedding.NewProvider(ctx, embedding.ProviderName(cfg.Provider), key)
}

// app holds the wired service and everything that must be closed with it.
type app struct {
	service *recommender.Service
	closers []func() error
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// buildApp wires the service from cfg. Scraping is only wired when
// withScrape is set, so one-shot commands skip the Redis connection.
func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, withScrape bool) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	provider, err := newProvider(ctx, cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding provider: %w", err)
	}
	a.closers = append(a.closers, provider.Close)

	gateway, err := embedding.NewGateway(provider, cfg.Embedding.Gateway(), logger.Named("embedding"))
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store.Close)

	objects, err := objectstore.Open(ctx, cfg.ObjectStore.Open())
	if err != nil {
		return nil, fmt.Errorf("failed to open object store: %w", err)
	}
	a.closers = append(a.closers, objects.Close)

	deps := recommender.Deps{
		Store:   store,
		Objects: objects,
		CVs:     cvingest.New(gateway, store, cvingest.Options{Retry: cfg.Store.Retry()}, logger.Named("cvingest")),
		Engine:  match.NewEngine(store, match.Options{OverFetch: cfg.Match.OverFetch, Retry: cfg.Store.Retry()}, logger.Named("match")),
		Model:   gateway,
	}

	if withScrape {
		jobs, err := buildJobIngestor(ctx, a, cfg, gateway, store, logger)
		if err != nil {
			return nil, err
		}
		deps.Jobs = jobs
	}

	a.service, err = recommender.New(deps, logger)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (vectorstore.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		logger.Warn("using in-memory vector store; data is lost on exit")
		return vectorstore.NewMemoryStore(), nil
	default:
		store, err := vectorstore.ConnectPG(ctx, vectorstore.PGOptions{
			DatabaseURL:  cfg.Store.DatabaseURL,
			Dimensions:   cfg.Embedding.Dimensions,
			QueryTimeout: cfg.Store.QueryTimeout,
			Migrate:      cfg.Store.Migrate,
		}, logger.Named("vectorstore"))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to vector store: %w", err)
		}
		return store, nil
	}
}

func buildJobIngestor(ctx context.Context, a *app, cfg *config.Config, embedder embedding.Embedder, store vectorstore.Store, logger *zap.Logger) (*jobingest.Ingestor, error) {
	sc := cfg.Scrape
	sources, err := buildSources(sc, logger.Named("scrape"))
	if err != nil {
		return nil, err
	}

	var seen jobingest.SeenCache
	if sc.RedisURL != "" {
		cache, err := jobingest.NewRedisSeenCache(ctx, sc.RedisURL, sc.SeenTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, cache.Close)
		seen = cache
	}

	return jobingest.New(jobingest.Deps{
		Sources:  sources,
		Embedder: embedder,
		Store:    store,
		Pacer:    ratelimit.NewPacer(sc.MinDelay),
		Seen:     seen,
	}, jobingest.Options{
		MaxPages:               sc.MaxPages,
		MaxConsecutiveFailures: sc.MaxConsecutiveFailures,
		EmbedConcurrency:       sc.EmbedConcurrency,
		DefaultLocation:        sc.DefaultLocation,
		StoreRetry:             cfg.Store.Retry(),
	}, logger.Named("jobingest"))
}

// buildSources creates one source per configured query.
func buildSources(sc config.ScrapeConfig, logger *zap.Logger) ([]scrape.Source, error) {
	fetcher := fetch.NewClient(fetch.DefaultOptions())

	var renderer fetch.Renderer
	if sc.UseBrowser {
		renderer = fetch.NewBrowserRenderer(fetch.BrowserOptions{}, logger)
	}

	var buildErr error
	sources, err := scrape.QuerySources(sc.BaseURL, sc.Queries, func(name, searchURL string) scrape.Source {
		if sc.Format == config.FormatJSON {
			src, err := scrape.NewJSONSource(fetcher, name, searchURL, sc.PageSize)
			if err != nil {
				buildErr = err
				return nil
			}
			return src
		}
		return scrape.NewHTMLSource(fetcher, scrape.HTMLSourceOptions{
			Name:      name,
			SearchURL: searchURL,
			PageSize:  sc.PageSize,
			Renderer:  renderer,
		}, logger)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build scrape sources: %w", err)
	}
	if buildErr != nil {
		return nil, fmt.Errorf("failed to build scrape sources: %w", buildErr)
	}
	return sources, nil
}
