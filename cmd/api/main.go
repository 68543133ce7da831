// Package main is the entry point for the estatehub pricing API.
//
// It loads configuration, builds the catalog from the configured source
// (failing fast when it does not validate), starts the background reloader
// and serves HTTP until SIGINT or SIGTERM.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"estatehub/internal/api/handlers"
	"estatehub/internal/billing"
	"estatehub/internal/bootstrap"
	"estatehub/internal/catalog"
	"estatehub/internal/config"
	"estatehub/internal/core"
	"estatehub/internal/db"
	"estatehub/internal/metrics"
	"estatehub/internal/pricing"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := bootstrap.NewLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)
	logger.Info("pricing API starting",
		"environment", cfg.Environment,
		"build", cfg.Build,
		"port", cfg.Server.Port,
		"catalog_source", cfg.Catalog.Source,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	recorder, err := bootstrap.NewMetrics(ctx, cfg, logger)
	if err != nil {
		return err
	}

	pool, err := bootstrap.OpenPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}

	srv, err := buildServer(ctx, cfg, pool, recorder, logger)
	if err != nil {
		if pool != nil {
			pool.Close()
		}
		return err
	}

	return srv.ListenAndServe(ctx)
}

// buildServer assembles the catalog, the pricing service and the HTTP
// chassis. The reloader runs until ctx is cancelled.
func buildServer(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, recorder metrics.Recorder, logger *slog.Logger) (*core.Server, error) {
	source, err := bootstrap.NewSource(ctx, cfg, pool, logger)
	if err != nil {
		return nil, err
	}

	initial, err := source.Load(ctx)
	recorder.RecordCatalogReload(ctx, source.Name(), err == nil)
	if err != nil {
		return nil, fmt.Errorf("loading catalog from %s: %w", source.Name(), err)
	}
	catalog.LogLoaded(logger, source.Name(), initial)

	store := catalog.NewStore(initial)
	reloader := catalog.NewReloader(source, store, cfg.Catalog.ReloadInterval, recorder, logger)
	go reloader.Run(ctx)

	formatter, err := pricing.NewFormatter(cfg.Pricing.Locale, cfg.Pricing.Currency)
	if err != nil {
		return nil, err
	}

	svcCfg := billing.ServiceConfig{
		Store:     store,
		Formatter: formatter,
		Metrics:   recorder,
		Logger:    logger,
	}
	if pool != nil {
		svcCfg.Usage = db.NewCouponUsageRepo(pool)
	} else {
		logger.Warn("no DATABASE_URL configured, coupon redemptions are kept in memory")
	}
	svc := billing.NewService(svcCfg)

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating server: %w", err)
	}
	srv.Metrics = recorder
	srv.HealthProbes = append(srv.HealthProbes, store)
	if pool != nil {
		srv.HealthProbes = append(srv.HealthProbes, core.NewProbe("database", pool.Ping))
		srv.OnShutdown = append(srv.OnShutdown, func(context.Context) error {
			pool.Close()
			return nil
		})
	}

	pricingHandler := handlers.NewPricingHandler(svc, srv.Validator, logger)
	srv.V1RouteRegistrars = append(srv.V1RouteRegistrars, pricingHandler.RegisterRoutes)
	srv.MountRoutes()

	return srv, nil
}
