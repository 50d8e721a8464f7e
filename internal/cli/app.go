package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yurawu27/splittie/internal/billing"
	"github.com/yurawu27/splittie/internal/calculator"
	"github.com/yurawu27/splittie/internal/config"
	"github.com/yurawu27/splittie/internal/directory"
	"github.com/yurawu27/splittie/internal/metrics"
	"github.com/yurawu27/splittie/internal/money"
	"github.com/yurawu27/splittie/internal/storage"
	"github.com/yurawu27/splittie/internal/storage/postgres"
	"github.com/yurawu27/splittie/internal/storage/sqlite"
)

// app holds the components every command shares.
type app struct {
	cfg       config.Config
	store     storage.Store
	metrics   *metrics.Metrics
	syncer    *directory.Syncer
	manager   *billing.Manager
	formatter *money.Formatter
}

// openStore opens the backend named by cfg.Database.Driver.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (storage.Store, error) {
	switch cfg.Driver {
	case "sqlite":
		store, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		slog.Info("Storage initialized", "driver", cfg.Driver, "database", cfg.Path)
		return store, nil
	case "postgres":
		store, err := postgres.New(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		slog.Info("Storage initialized", "driver", cfg.Driver)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	formatter, err := money.NewFormatter(cfg.Billing.Currency)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid currency", err)
	}

	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to initialize storage", err)
	}

	m := metrics.New()
	syncer := directory.NewSyncer(store,
		directory.WithRetry(cfg.Directory.MaxAttempts, cfg.Directory.Backoff),
		directory.WithMetrics(m),
	)
	engine := calculator.Engine{AllowNegativeCosts: cfg.Billing.AllowNegativeItemCosts}

	return &app{
		cfg:       cfg,
		store:     store,
		metrics:   m,
		syncer:    syncer,
		manager:   billing.NewManager(store, syncer, engine, m),
		formatter: formatter,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Warn("Failed to close storage", "error", err)
	}
}
