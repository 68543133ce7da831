// Package config defines the configuration of the estatehub pricing
// processes. Configuration is loaded once at startup and is immutable
// thereafter.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> struct defaults (Lowest)
//
// Any invalid value causes LoadConfig to fail and the process to exit.
package config

import (
	"time"

	"estatehub/internal/types"
)

// SecretString is an alias for types.SecretString so configuration never
// prints credentials.
type SecretString = types.SecretString

// Catalog source kinds accepted by CATALOG_SOURCE.
const (
	SourceStatic   = "static"
	SourceFile     = "file"
	SourceS3       = "s3"
	SourcePostgres = "postgres"
)

// Config is the top-level configuration struct.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server        ServerConfig
	Database      DatabaseConfig
	Catalog       CatalogConfig
	AWS           AWSConfig
	Pricing       PricingConfig
	Observability ObservabilityConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo `ignored:"true"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string        `envconfig:"PORT" default:"8080" validate:"required,numeric"`
	CorsAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s" validate:"gt=0"`
	ShutdownTimeout    time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s" validate:"gt=0"`
}

// DatabaseConfig holds database connection and pool tuning parameters.
// URL is only required when something uses PostgreSQL.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL"`

	MaxConns          int32         `envconfig:"DB_MAX_CONNS" default:"10" validate:"min=1"`
	MinConns          int32         `envconfig:"DB_MIN_CONNS" default:"1" validate:"min=0"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
}

// CatalogConfig selects where the pricing catalog is loaded from.
type CatalogConfig struct {
	Source         string        `envconfig:"CATALOG_SOURCE" default:"static" validate:"oneof=static file s3 postgres"`
	File           string        `envconfig:"CATALOG_FILE" validate:"required_if=Source file"`
	S3Bucket       string        `envconfig:"CATALOG_S3_BUCKET" validate:"required_if=Source s3"`
	S3Key          string        `envconfig:"CATALOG_S3_KEY" default:"catalog/current.json.zst"`
	ReloadInterval time.Duration `envconfig:"CATALOG_RELOAD_INTERVAL" default:"0s" validate:"min=0"`
	Compress       bool          `envconfig:"CATALOG_COMPRESS" default:"true"`
}

// AWSConfig holds AWS regional configuration.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"eu-west-1"`

	// LocalStack Support (Empty in Prod)
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL" validate:"omitempty,url"`
}

// PricingConfig controls how money is rendered for display.
type PricingConfig struct {
	Locale   string `envconfig:"PRICING_LOCALE" default:"en-US" validate:"required"`
	Currency string `envconfig:"PRICING_CURRENCY" default:"EUR" validate:"required,len=3,uppercase"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"EstateHub/Pricing"`
	EnableMetrics   bool   `envconfig:"ENABLE_METRICS" default:"false"`
}

// BuildInfo holds build-time metadata injected via ldflags.
// These values are NOT populated from environment variables.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// NeedsDatabase reports whether the configured catalog source reads from
// PostgreSQL.
func (c *Config) NeedsDatabase() bool {
	return c.Catalog.Source == SourcePostgres
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
	// ErrDotenv indicates an explicitly named dotenv file could not be read.
	ErrDotenv ConfigErrorType = "DOTENV_FAILED"
)
