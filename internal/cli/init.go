// Package cli provides the initialization steps shared by every gigfin
// subcommand: env loading, logging, config and the ledger store.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"gigfin/internal/backend"
	"gigfin/internal/config"
	"gigfin/internal/ledger"
	"gigfin/internal/log"
)

// SetupLogger initializes structured logging from LOG_LEVEL and LOG_FORMAT
// and sets it as the default logger.
func SetupLogger(cfg *config.Config) *log.Logger {
	lc := log.DefaultConfig()
	if cfg != nil {
		lc.Level = log.ParseLevel(cfg.LogLevel)
		lc.Format = cfg.LogFormat
	}
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Env is what a subcommand needs to run.
type Env struct {
	Config *config.Config
	Logger *log.Logger
	Store  *ledger.Store

	backend *backend.BackendResult
}

// Close releases the blob backend.
func (e *Env) Close() error {
	return e.backend.Close()
}

// Bootstrap loads env and config, sets up logging, opens the configured
// backend and loads the ledger state.
func Bootstrap(ctx context.Context) (*Env, error) {
	LoadEnvFile()
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		return nil, err
	}
	logger := SetupLogger(cfg)
	return Open(ctx, cfg, logger)
}

// Open connects the backend named in cfg and loads the store from it.
func Open(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Env, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Slog()).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}

	store, err := ledger.Open(ctx, res.Store,
		ledger.WithKey(cfg.StateKey),
		ledger.WithLogger(logger.WithComponent(log.ComponentLedger).Slog()))
	if err != nil {
		_ = res.Close()
		return nil, err
	}
	return &Env{Config: cfg, Logger: logger, Store: store, backend: res}, nil
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. The
// shutdown is logged only when a signal arrives, not when cancel is called.
func GracefulShutdown(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
