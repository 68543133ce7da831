// Package main implements catalog-sync, the operator tool that validates a
// pricing catalog and publishes it to the API's runtime sources.
//
// The catalog is read from the configured CATALOG_SOURCE (static by default)
// and built with the same integrity checks the API applies at startup.
//
// Usage:
//
//	go run ./cmd/catalog-sync -validate-only
//	CATALOG_SOURCE=file CATALOG_FILE=catalog.json go run ./cmd/catalog-sync -postgres
//	go run ./cmd/catalog-sync -s3
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5"

	"estatehub/internal/bootstrap"
	"estatehub/internal/catalog"
	"estatehub/internal/config"
	"estatehub/internal/db"
)

type options struct {
	validateOnly bool
	postgres     bool
	s3           bool
}

func main() {
	var opts options
	flag.BoolVar(&opts.validateOnly, "validate-only", false, "Build and report the catalog without publishing it")
	flag.BoolVar(&opts.postgres, "postgres", false, "Replace the catalog tables in DATABASE_URL")
	flag.BoolVar(&opts.s3, "s3", false, "Upload the catalog document to CATALOG_S3_BUCKET/CATALOG_S3_KEY")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "EstateHub catalog sync\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  catalog-sync [-validate-only] [-postgres] [-s3]\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	if err := opts.check(); err != nil {
		flag.Usage()
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	logger := bootstrap.NewLogger(os.Stderr, cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := bootstrap.OpenPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	if pool != nil {
		defer pool.Close()
	}

	source, err := bootstrap.NewSource(ctx, cfg, pool, logger)
	if err != nil {
		return err
	}
	c, err := source.Load(ctx)
	if err != nil {
		return fmt.Errorf("building catalog from %s: %w", source.Name(), err)
	}
	writeReport(os.Stdout, source.Name(), c)

	if opts.validateOnly {
		return nil
	}

	if opts.postgres {
		if pool == nil {
			return errors.New("-postgres requires DATABASE_URL")
		}
		err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			return db.NewCatalogRepo(tx, logger).Sync(ctx, c)
		})
		if err != nil {
			return fmt.Errorf("syncing catalog to postgres: %w", err)
		}
		logger.Info("catalog synced to postgres", "version", c.Version())
	}

	if opts.s3 {
		if cfg.Catalog.S3Bucket == "" {
			return errors.New("-s3 requires CATALOG_S3_BUCKET")
		}
		awsCfg, err := bootstrap.LoadAWS(ctx, cfg.AWS)
		if err != nil {
			return err
		}
		exporter := catalog.NewS3Exporter(bootstrap.NewS3Client(awsCfg, cfg.AWS),
			cfg.Catalog.S3Bucket, cfg.Catalog.S3Key, cfg.Catalog.Compress)
		if err := exporter.Export(ctx, c); err != nil {
			return fmt.Errorf("exporting catalog to s3: %w", err)
		}
		logger.Info("catalog exported to s3",
			"bucket", cfg.Catalog.S3Bucket,
			"key", cfg.Catalog.S3Key,
			"version", c.Version(),
		)
	}
	return nil
}

func (o options) check() error {
	if o.validateOnly && (o.postgres || o.s3) {
		return errors.New("-validate-only cannot be combined with -postgres or -s3")
	}
	if !o.validateOnly && !o.postgres && !o.s3 {
		return errors.New("nothing to do: pass -validate-only, -postgres or -s3")
	}
	return nil
}

// writeReport prints a summary of the built catalog and every annual price
// that departs from the monthly x10 convention.
func writeReport(w io.Writer, source string, c *catalog.Catalog) {
	fmt.Fprintf(w, "catalog %s from %s\n", c.Version(), source)
	fmt.Fprintf(w, "  plans:     %d\n", len(c.Plans()))
	fmt.Fprintf(w, "  add-ons:   %d\n", len(c.AddOns()))
	fmt.Fprintf(w, "  campaigns: %d\n", len(c.Campaigns()))

	devs := c.Deviations()
	if len(devs) == 0 {
		fmt.Fprintln(w, "  annual prices follow the x10 convention")
		return
	}
	fmt.Fprintf(w, "  %d annual price deviation(s):\n", len(devs))
	for _, d := range devs {
		fmt.Fprintf(w, "    - %s\n", d)
	}
}
