package cli

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/harun/toolpilot/internal/config"
	"github.com/harun/toolpilot/internal/logger"
	"github.com/harun/toolpilot/pkg/history"
)

// loadConfig reads the configuration and applies flag overrides
func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.NewLoader(a.cfgFile).WithEnvFile(a.envFile).Load()
	if err != nil {
		return nil, err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.yes {
		cfg.Confirm.AutoApprove = true
	}
	return cfg, nil
}

// setupLogger configures the global logger from cfg. Console logs go to
// stderr so they never mix with results.
func (a *app) setupLogger(cfg *config.Config) (*logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Console:   true,
		Pretty:    true,
		Out:       a.stderr,
		Redaction: cfg.Logging.Redaction,
		MaxSize:   cfg.Logging.MaxSize,
		MaxAge:    cfg.Logging.MaxAge,
		Compress:  cfg.Logging.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return log, nil
}

// openHistory opens the run history, or returns nil when it is disabled
// or unavailable
func openHistory(cfg *config.Config, log *zerolog.Logger) *history.Store {
	if !cfg.History.Enabled {
		return nil
	}
	store, err := history.Open(history.Config{DBPath: cfg.History.Path, Logger: log})
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.History.Path).Msg("Run history unavailable")
		return nil
	}
	return store
}
