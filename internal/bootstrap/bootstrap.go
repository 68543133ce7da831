// Package bootstrap wires configuration into the runtime dependencies shared
// by the binaries: logger, AWS clients, database pool and catalog source.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"

	"estatehub/internal/catalog"
	"estatehub/internal/config"
	"estatehub/internal/db"
	"estatehub/internal/metrics"
)

// NewLogger creates a JSON slog.Logger writing to w at the given level.
// Unknown levels fall back to info.
func NewLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// LoadAWS resolves AWS credentials from the default chain for the
// configured region.
func LoadAWS(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
	}
	return awsCfg, nil
}

// NewS3Client builds an S3 client, honouring AWS_ENDPOINT_URL (LocalStack,
// MinIO) with path-style addressing.
func NewS3Client(awsCfg aws.Config, cfg config.AWSConfig) *s3.Client {
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
		}
	})
}

// NewMetrics returns a CloudWatch recorder when metrics are enabled and a
// no-op recorder otherwise.
func NewMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (metrics.Recorder, error) {
	if !cfg.Observability.EnableMetrics {
		return metrics.Noop{}, nil
	}
	awsCfg, err := LoadAWS(ctx, cfg.AWS)
	if err != nil {
		return nil, err
	}
	client := cloudwatch.NewFromConfig(awsCfg, func(o *cloudwatch.Options) {
		if cfg.AWS.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
		}
	})
	return metrics.NewCloudWatchMetrics(client, cfg.Observability.MetricNamespace, logger), nil
}

// OpenPool opens the database pool when DATABASE_URL is set. It returns a
// nil pool otherwise.
func OpenPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	if cfg.URL.Empty() {
		return nil, nil
	}
	return db.NewPool(ctx, cfg)
}

// NewSource returns the catalog source selected by CATALOG_SOURCE. The
// postgres source requires pool.
func NewSource(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) (catalog.Source, error) {
	switch cfg.Catalog.Source {
	case config.SourceStatic, "":
		return catalog.StaticSource{}, nil
	case config.SourceFile:
		return catalog.FileSource{Path: cfg.Catalog.File}, nil
	case config.SourceS3:
		awsCfg, err := LoadAWS(ctx, cfg.AWS)
		if err != nil {
			return nil, err
		}
		return catalog.NewS3Source(NewS3Client(awsCfg, cfg.AWS), cfg.Catalog.S3Bucket, cfg.Catalog.S3Key, nil), nil
	case config.SourcePostgres:
		if pool == nil {
			return nil, fmt.Errorf("catalog source postgres requires DATABASE_URL")
		}
		return db.NewCatalogRepo(pool, logger), nil
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Catalog.Source)
	}
}
