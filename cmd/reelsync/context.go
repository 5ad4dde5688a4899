package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"reelsync/internal/config"
	"reelsync/internal/logging"
	"reelsync/internal/reconcile"
	"reelsync/internal/services/gemini"
	"reelsync/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// withStore opens the catalog store for a read-only command.
func (c *commandContext) withStore(fn func(*config.Config, *store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(cfg, st)
}

// withLockedStore opens the store under the database write lock. Mutating
// commands go through here so two concurrent writers cannot interleave.
func (c *commandContext) withLockedStore(fn func(*config.Config, *store.Store, *slog.Logger) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock %s: %w", cfg.LockPath(), err)
	}
	if !locked {
		return fmt.Errorf("another reelsync process holds %s", cfg.LockPath())
	}
	defer func() {
		_ = lock.Unlock()
	}()

	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(cfg, st, logger)
}

// newEngine wires the reconcile engine, attaching the Gemini client when the
// config enables it.
func newEngine(cfg *config.Config, st *store.Store, logger *slog.Logger) *reconcile.Engine {
	var opts []reconcile.EngineOption
	if client := newGeminiClient(cfg); client != nil {
		opts = append(opts,
			reconcile.WithNameParser(client),
			reconcile.WithDirectorFinder(client),
		)
	}
	return reconcile.NewEngine(st, cfg, logger, opts...)
}

func newGeminiClient(cfg *config.Config) *gemini.Client {
	if !cfg.Gemini.Enabled {
		return nil
	}
	return gemini.NewClient(cfg.Gemini.APIKey,
		gemini.WithBaseURL(cfg.Gemini.BaseURL),
		gemini.WithModel(cfg.Gemini.Model),
		gemini.WithTimeout(cfg.Gemini.Timeout()),
	)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
