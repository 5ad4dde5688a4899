package config

import "strings"

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return err
	}

	c.Reconcile.FailurePolicy = strings.ToLower(strings.TrimSpace(c.Reconcile.FailurePolicy))
	if c.Reconcile.FailurePolicy == "" {
		c.Reconcile.FailurePolicy = defaultFailurePolicy
	}
	if c.Reconcile.BatchSize <= 0 {
		c.Reconcile.BatchSize = defaultBatchSize
	}
	if c.Reconcile.StaleAfterHours <= 0 {
		c.Reconcile.StaleAfterHours = defaultStaleAfterHours
	}

	c.Gemini.APIKey = strings.TrimSpace(c.Gemini.APIKey)
	c.Gemini.BaseURL = strings.TrimRight(strings.TrimSpace(c.Gemini.BaseURL), "/")
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = defaultGeminiBaseURL
	}
	c.Gemini.Model = strings.TrimSpace(c.Gemini.Model)
	if c.Gemini.Model == "" {
		c.Gemini.Model = defaultGeminiModel
	}
	if c.Gemini.TimeoutSeconds <= 0 {
		c.Gemini.TimeoutSeconds = defaultGeminiTimeout
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}
