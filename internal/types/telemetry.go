package types

// Telemetry metric names for CloudWatch.
// All components MUST use these constants.
const (
	// Metric Names
	MetricAPILatency      = "APILatency"
	MetricAPIRequestCount = "APIRequestCount"
	MetricQuoteComputed   = "QuoteComputed"
	MetricCouponOutcome   = "CouponOutcome"
	MetricCatalogReload   = "CatalogReload"

	// Dimension Keys
	DimEndpoint     = "Endpoint"
	DimMethod       = "Method"
	DimStatus       = "Status"
	DimTier         = "Tier"
	DimInterval     = "Interval"
	DimCouponStatus = "CouponStatus"
	DimResult       = "Result"

	// Metric Namespace
	MetricNamespace = "EstateHub/Pricing"
)
