// Package cli provides common process initialization shared by
// cmd/honoraires, cmd/honoraires-worker and cmd/ledgerctl.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"honoraires/internal/backend"
	"honoraires/internal/cache"
	"honoraires/internal/config"
	"honoraires/internal/log"
	"honoraires/internal/services"
)

const cacheCleanupInterval = 5 * time.Minute

// SetupLogger installs a text logger at LOG_LEVEL tagged with component as
// the process default and returns it.
func SetupLogger(component string) *slog.Logger {
	level, err := config.ParseLogLevel(os.Getenv("LOG_LEVEL"))
	l := log.New(log.Config{Level: level, Component: component, Output: os.Stdout})
	logger := l.Logger.With(log.FieldComponent, component)
	slog.SetDefault(logger)
	if err != nil {
		logger.Warn("Ignoring LOG_LEVEL", "error", err)
	}
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// Ledger bundles a ready ledger service with what must be released at exit.
type Ledger struct {
	Service *services.LedgerService
	Caches  *cache.Manager
	cleanup backend.CleanupFunc
}

// Close stops cache cleanup and releases the backend.
func (l *Ledger) Close() error {
	l.Caches.Stop()
	if l.cleanup != nil {
		return l.cleanup()
	}
	return nil
}

// OpenLedger builds the configured backend and the ledger service on top.
// withEvents=false skips AMQP even when configured.
func OpenLedger(ctx context.Context, logger *slog.Logger, cfg *config.Config, withEvents bool) (*Ledger, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	if !withEvents {
		bcfg.AMQPURL = ""
	}

	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	clients := services.NewClientDirectory(res.Store, bcfg.ClientCacheSize, bcfg.ClientCacheTTL)
	manager := cache.NewManager()
	clients.Register(manager)
	manager.StartCleanup(cacheCleanupInterval)

	return &Ledger{
		Service: services.NewLedgerService(res.Store, res.Events, clients),
		Caches:  manager,
		cleanup: res.Cleanup,
	}, nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *slog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-ctx.Done():
			logger.Info("Context cancelled")
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup ran.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
