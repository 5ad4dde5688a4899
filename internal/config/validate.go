package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	if err := c.validateReconcile(); err != nil {
		return err
	}
	if err := c.validateGemini(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateReconcile() error {
	switch c.Reconcile.FailurePolicy {
	case PolicySkip, PolicyRetry:
	default:
		return fmt.Errorf("reconcile.failure_policy must be %q or %q, got %q", PolicySkip, PolicyRetry, c.Reconcile.FailurePolicy)
	}
	if c.Reconcile.BatchSize <= 0 {
		return errors.New("reconcile.batch_size must be positive")
	}
	return nil
}

func (c *Config) validateGemini() error {
	if !c.Gemini.Enabled {
		return nil
	}
	if c.Gemini.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/reelsync/config.toml"
		}
		return fmt.Errorf("gemini.api_key is required when gemini.enabled is true; edit %s (create with 'reelsync config init')", defaultPath)
	}
	if c.Gemini.BaseURL == "" {
		return errors.New("gemini.base_url must be set when gemini.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	return nil
}
