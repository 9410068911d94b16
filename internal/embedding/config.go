// Package embedding turns text into vectors through an external embedding service,
// owning the retry, backoff and model-fallback policy around it.
package embedding

import (
	"fmt"
	"time"
)

// ProviderName identifies an embedding service.
type ProviderName string

const (
	ProviderGemini ProviderName = "gemini"
	ProviderOpenAI ProviderName = "openai"
)

// Config holds the gateway policy and model selection.
type Config struct {
	Provider      ProviderName
	PrimaryModel  string
	FallbackModel string
	// Dimensions is the expected vector length; 0 disables the check.
	Dimensions int

	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	Cooldown      time.Duration
	CallTimeout   time.Duration
	MaxInputChars int
}

// DefaultConfig returns the default policy for a provider.
func DefaultConfig(provider ProviderName) Config {
	cfg := Config{
		Provider:      provider,
		MaxAttempts:   3,
		BaseDelay:     500 * time.Millisecond,
		MaxDelay:      10 * time.Second,
		Cooldown:      5 * time.Minute,
		CallTimeout:   20 * time.Second,
		MaxInputChars: 8000,
	}

	switch provider {
	case ProviderOpenAI:
		cfg.PrimaryModel = "text-embedding-3-small"
		cfg.FallbackModel = "text-embedding-ada-002"
		cfg.Dimensions = 1536
	default:
		cfg.Provider = ProviderGemini
		cfg.PrimaryModel = "text-embedding-004"
		cfg.FallbackModel = "embedding-001"
		cfg.Dimensions = 768
	}

	return cfg
}

// Validate checks the policy values.
func (c Config) Validate() error {
	if c.PrimaryModel == "" {
		return fmt.Errorf("embedding config error: primary model is required")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("embedding config error: max attempts must be at least 1")
	}
	if c.MaxInputChars < 1 {
		return fmt.Errorf("embedding config error: max input chars must be positive")
	}
	if c.Dimensions < 0 {
		return fmt.Errorf("embedding config error: dimensions must be non-negative")
	}
	if c.CallTimeout <= 0 {
		return fmt.Errorf("embedding config error: call timeout must be positive")
	}
	return nil
}

// models returns the models to try in order.
func (c Config) models() []string {
	if c.FallbackModel == "" || c.FallbackModel == c.PrimaryModel {
		return []string{c.PrimaryModel}
	}
	return []string{c.PrimaryModel, c.FallbackModel}
}
