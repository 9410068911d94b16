// Package config loads the service configuration from an optional file,
// environment variables and defaults.
package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/embedding"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/objectstore"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/ratelimit"
	"github.com/mohamedelhariry00/AI-Powered-Job-Recommendation-System/internal/retry"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. JOBREC_SCRAPE_MAX_PAGES.
const EnvPrefix = "JOBREC"

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Scrape formats.
const (
	FormatHTML = "html"
	FormatJSON = "json"
)

// wellKnownEnv maps keys to the conventional un-prefixed variables also honored.
var wellKnownEnv = map[string]string{
	"store.database_url":       "DATABASE_URL",
	"embedding.gemini_api_key": "GEMINI_API_KEY",
	"embedding.openai_api_key": "OPENAI_API_KEY",
	"scrape.redis_url":         "REDIS_URL",
}

// DefaultQueries are the searches walked by a scrape cycle.
var DefaultQueries = []string{"software engineer", "developer", "data analyst", "marketing", "sales"}

// Config is the full service configuration.
type Config struct {
	Embedding   EmbeddingConfig   `mapstructure:"embedding"`
	Store       StoreConfig       `mapstructure:"store"`
	ObjectStore ObjectStoreConfig `mapstructure:"objectstore"`
	Scrape      ScrapeConfig      `mapstructure:"scrape"`
	Match       MatchConfig       `mapstructure:"match"`
	Server      ServerConfig      `mapstructure:"server"`
	RateLimit   RateLimitConfig   `mapstructure:"ratelimit"`
	Log         LogConfig         `mapstructure:"log"`
}

// EmbeddingConfig selects the embedding provider and its retry policy.
// Empty models and zero dimensions take the provider defaults.
type EmbeddingConfig struct {
	Provider      string        `mapstructure:"provider" validate:"oneof=gemini openai"`
	GeminiAPIKey  string        `mapstructure:"gemini_api_key"`
	OpenAIAPIKey  string        `mapstructure:"openai_api_key"`
	OpenAIBaseURL string        `mapstructure:"openai_base_url" validate:"omitempty,url"`
	PrimaryModel  string        `mapstructure:"primary_model"`
	FallbackModel string        `mapstructure:"fallback_model"`
	Dimensions    int           `mapstructure:"dimensions" validate:"min=0"`
	MaxAttempts   int           `mapstructure:"max_attempts" validate:"min=1,max=10"`
	BaseDelay     time.Duration `mapstructure:"base_delay"`
	MaxDelay      time.Duration `mapstructure:"max_delay"`
	Cooldown      time.Duration `mapstructure:"cooldown"`
	CallTimeout   time.Duration `mapstructure:"call_timeout"`
	MaxInputChars int           `mapstructure:"max_input_chars" validate:"min=1"`
}

// StoreConfig selects the vector store.
type StoreConfig struct {
	Driver       string        `mapstructure:"driver" validate:"oneof=postgres memory"`
	DatabaseURL  string        `mapstructure:"database_url"`
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
	Migrate      bool          `mapstructure:"migrate"`
	// Transient store failures are retried with jittered exponential backoff.
	RetryAttempts  int           `mapstructure:"retry_attempts" validate:"min=1,max=10"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
	RetryMaxDelay  time.Duration `mapstructure:"retry_max_delay"`
}

// ObjectStoreConfig selects where CVs are read from and profiles archived to.
type ObjectStoreConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=gcs fs"`
	Bucket string `mapstructure:"bucket"`
	Root   string `mapstructure:"root"`
}

// ScrapeConfig controls scrape cycles.
type ScrapeConfig struct {
	BaseURL                string        `mapstructure:"base_url" validate:"required,url"`
	Queries                []string      `mapstructure:"queries"`
	Format                 string        `mapstructure:"format" validate:"oneof=html json"`
	PageSize               int           `mapstructure:"page_size" validate:"min=1"`
	MaxPages               int           `mapstructure:"max_pages" validate:"min=1"`
	MaxJobs                int           `mapstructure:"max_jobs" validate:"min=1"`
	MinDelay               time.Duration `mapstructure:"min_delay"`
	MaxConsecutiveFailures int           `mapstructure:"max_consecutive_failures" validate:"min=1"`
	EmbedConcurrency       int           `mapstructure:"embed_concurrency" validate:"min=1,max=64"`
	UseBrowser             bool          `mapstructure:"use_browser"`
	DefaultLocation        string        `mapstructure:"default_location"`
	RedisURL               string        `mapstructure:"redis_url"`
	SeenTTL                time.Duration `mapstructure:"seen_ttl"`
}

// MatchConfig tunes recommendations.
type MatchConfig struct {
	OverFetch   int `mapstructure:"over_fetch" validate:"min=1,max=20"`
	DefaultTopN int `mapstructure:"default_top_n" validate:"min=1,max=100"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// RateLimitConfig throttles API clients.
type RateLimitConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Limit   int           `mapstructure:"limit" validate:"min=0"`
	Window  time.Duration `mapstructure:"window"`
}

// LogConfig controls logger output.
type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

func setDefaults(v *viper.Viper) {
	gw := embedding.DefaultConfig(embedding.ProviderGemini)
	v.SetDefault("embedding.provider", string(embedding.ProviderGemini))
	v.SetDefault("embedding.gemini_api_key", "")
	v.SetDefault("embedding.openai_api_key", "")
	v.SetDefault("embedding.openai_base_url", "")
	v.SetDefault("embedding.primary_model", "")
	v.SetDefault("embedding.fallback_model", "")
	v.SetDefault("embedding.dimensions", 0)
	v.SetDefault("embedding.max_attempts", gw.MaxAttempts)
	v.SetDefault("embedding.base_delay", gw.BaseDelay)
	v.SetDefault("embedding.max_delay", gw.MaxDelay)
	v.SetDefault("embedding.cooldown", gw.Cooldown)
	v.SetDefault("embedding.call_timeout", gw.CallTimeout)
	v.SetDefault("embedding.max_input_chars", gw.MaxInputChars)

	v.SetDefault("store.driver", StoreDriverPostgres)
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.query_timeout", 10*time.Second)
	v.SetDefault("store.migrate", true)
	storeRetry := retry.DefaultPolicy()
	v.SetDefault("store.retry_attempts", storeRetry.MaxAttempts)
	v.SetDefault("store.retry_base_delay", storeRetry.BaseDelay)
	v.SetDefault("store.retry_max_delay", storeRetry.MaxDelay)

	v.SetDefault("objectstore.driver", string(objectstore.DriverFS))
	v.SetDefault("objectstore.bucket", "")
	v.SetDefault("objectstore.root", "./data")

	v.SetDefault("scrape.base_url", "https://wuzzuf.net/search/jobs/?a=hpb")
	v.SetDefault("scrape.queries", DefaultQueries)
	v.SetDefault("scrape.format", FormatHTML)
	v.SetDefault("scrape.page_size", 15)
	v.SetDefault("scrape.max_pages", 3)
	v.SetDefault("scrape.max_jobs", 50)
	v.SetDefault("scrape.min_delay", 2*time.Second)
	v.SetDefault("scrape.max_consecutive_failures", 3)
	v.SetDefault("scrape.embed_concurrency", 4)
	v.SetDefault("scrape.use_browser", false)
	v.SetDefault("scrape.default_location", "Egypt")
	v.SetDefault("scrape.redis_url", "")
	v.SetDefault("scrape.seen_ttl", 72*time.Hour)

	v.SetDefault("match.over_fetch", 3)
	v.SetDefault("match.default_top_n", 10)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.limit", 300)
	v.SetDefault("ratelimit.window", time.Minute)

	v.SetDefault("log.json", false)
	v.SetDefault("log.debug", false)
}

// Load builds the configuration from defaults, the optional file at path
// (JSON or YAML, by extension) and the environment, in increasing priority.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range wellKnownEnv {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Embedding.applyProviderDefaults()

	return &cfg, nil
}

func (c *EmbeddingConfig) applyProviderDefaults() {
	defaults := embedding.DefaultConfig(embedding.ProviderName(c.Provider))
	if c.PrimaryModel == "" {
		c.PrimaryModel = defaults.PrimaryModel
		if c.FallbackModel == "" {
			c.FallbackModel = defaults.FallbackModel
		}
	}
	if c.Dimensions == 0 {
		c.Dimensions = defaults.Dimensions
	}
}

// Validate checks value ranges and the combinations each driver needs.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		return strings.SplitN(field.Tag.Get("mapstructure"), ",", 2)[0]
	})
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %s", describe(err))
	}

	if c.Store.Driver == StoreDriverPostgres && c.Store.DatabaseURL == "" {
		return fmt.Errorf("config error: 'store.database_url' (or DATABASE_URL) is required for the postgres store")
	}
	if c.Store.QueryTimeout <= 0 {
		return fmt.Errorf("config error: 'store.query_timeout' must be positive")
	}
	if c.Store.RetryBaseDelay <= 0 || c.Store.RetryMaxDelay < c.Store.RetryBaseDelay {
		return fmt.Errorf("config error: 'store.retry_base_delay' must be positive and not exceed 'store.retry_max_delay'")
	}

	switch objectstore.Driver(c.ObjectStore.Driver) {
	case objectstore.DriverGCS:
		if c.ObjectStore.Bucket == "" {
			return fmt.Errorf("config error: 'objectstore.bucket' is required for the gcs driver")
		}
	case objectstore.DriverFS:
		if c.ObjectStore.Root == "" {
			return fmt.Errorf("config error: 'objectstore.root' is required for the fs driver")
		}
	}

	e := c.Embedding
	if e.BaseDelay <= 0 || e.MaxDelay < e.BaseDelay {
		return fmt.Errorf("config error: 'embedding.base_delay' must be positive and not exceed 'embedding.max_delay'")
	}
	if e.CallTimeout <= 0 {
		return fmt.Errorf("config error: 'embedding.call_timeout' must be positive")
	}
	if e.Cooldown < 0 {
		return fmt.Errorf("config error: 'embedding.cooldown' must be non-negative")
	}

	if c.Scrape.MinDelay < 0 {
		return fmt.Errorf("config error: 'scrape.min_delay' must be non-negative")
	}
	if c.Scrape.RedisURL != "" && c.Scrape.SeenTTL <= 0 {
		return fmt.Errorf("config error: 'scrape.seen_ttl' must be positive when redis is configured")
	}

	if c.RateLimit.Enabled && c.RateLimit.Window <= 0 {
		return fmt.Errorf("config error: 'ratelimit.window' must be positive when rate limiting is enabled")
	}

	return nil
}

// describe renders the first validator failure as "section.field: rule".
func describe(err error) string {
	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			return fmt.Sprintf("'%s' failed %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value())
		}
		return fmt.Sprintf("'%s' failed %s (got %v)", field, fe.Tag(), fe.Value())
	}
	return err.Error()
}

// APIKey returns the key of the selected provider.
func (c EmbeddingConfig) APIKey() string {
	if c.Provider == string(embedding.ProviderOpenAI) {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

// Gateway converts the section into the gateway policy.
func (c EmbeddingConfig) Gateway() embedding.Config {
	return embedding.Config{
		Provider:      embedding.ProviderName(c.Provider),
		PrimaryModel:  c.PrimaryModel,
		FallbackModel: c.FallbackModel,
		Dimensions:    c.Dimensions,
		MaxAttempts:   c.MaxAttempts,
		BaseDelay:     c.BaseDelay,
		MaxDelay:      c.MaxDelay,
		Cooldown:      c.Cooldown,
		CallTimeout:   c.CallTimeout,
		MaxInputChars: c.MaxInputChars,
	}
}

// Retry converts the section into the retry policy for store calls.
func (c StoreConfig) Retry() retry.Policy {
	return retry.Policy{
		MaxAttempts: c.RetryAttempts,
		BaseDelay:   c.RetryBaseDelay,
		MaxDelay:    c.RetryMaxDelay,
	}
}

// Open converts the section into object store settings.
func (c ObjectStoreConfig) Open() objectstore.Config {
	return objectstore.Config{
		Driver: objectstore.Driver(c.Driver),
		Bucket: c.Bucket,
		Root:   c.Root,
	}
}

// Limiter converts the section into limiter settings with the default routes.
func (c RateLimitConfig) Limiter() ratelimit.Config {
	cfg := ratelimit.DefaultConfig()
	cfg.Enabled = c.Enabled
	cfg.DefaultLimit = c.Limit
	cfg.DefaultWindow = c.Window
	return cfg
}
