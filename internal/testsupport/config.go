package testsupport

import (
	"path/filepath"
	"testing"

	"reelsync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithBatchSize overrides the drain batch size on the test config.
func WithBatchSize(size int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Reconcile.BatchSize = size
	}
}

// WithFailurePolicy overrides the candidate failure policy on the test config.
func WithFailurePolicy(policy string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Reconcile.FailurePolicy = policy
	}
}

// WithGemini enables the disambiguation service against the given base URL.
func WithGemini(baseURL string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Gemini.Enabled = true
		cfg.Gemini.APIKey = "test"
		cfg.Gemini.BaseURL = baseURL
	}
}
