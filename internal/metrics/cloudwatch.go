// Package metrics publishes pricing telemetry to AWS CloudWatch.
package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"estatehub/internal/types"
)

// putTimeout bounds a single PutMetricData call made outside a request
// context.
const putTimeout = 2 * time.Second

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Recorder is the full set of pricing metrics. The HTTP chassis, the
// billing service and the catalog reloader each depend on the subset they
// emit.
type Recorder interface {
	RecordRequest(method, endpoint, status string, duration time.Duration)
	RecordQuote(ctx context.Context, tier types.PlanTier, interval types.BillingInterval, status types.CouponStatus)
	RecordCatalogReload(ctx context.Context, source string, success bool)
}

var (
	_ Recorder = (*CloudWatchMetrics)(nil)
	_ Recorder = Noop{}
)

// CloudWatchMetrics emits metrics to CloudWatch. Publishing failures are
// logged and never surface to the caller.
//
// Metrics emitted:
//   - APILatency, APIRequestCount: Dims {Method, Endpoint, Status}
//   - QuoteComputed: Dims {Tier, Interval}
//   - CouponOutcome: Dims {Tier, CouponStatus}, only when a coupon was given
//   - CatalogReload: Dims {Result}
type CloudWatchMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger
}

// NewCloudWatchMetrics creates a CloudWatchMetrics publishing to namespace
// (types.MetricNamespace when empty).
func NewCloudWatchMetrics(client CloudWatchClient, namespace string, logger *slog.Logger) *CloudWatchMetrics {
	if namespace == "" {
		namespace = types.MetricNamespace
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchMetrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// RecordRequest emits request latency in milliseconds and a request count.
func (m *CloudWatchMetrics) RecordRequest(method, endpoint, status string, duration time.Duration) {
	dims := []cwtypes.Dimension{
		dimension(types.DimMethod, method),
		dimension(types.DimEndpoint, endpoint),
		dimension(types.DimStatus, status),
	}

	ctx, cancel := context.WithTimeout(context.Background(), putTimeout)
	defer cancel()

	m.put(ctx, "request",
		cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricAPILatency),
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       cwtypes.StandardUnitMilliseconds,
			Dimensions: dims,
		},
		cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricAPIRequestCount),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: dims,
		},
	)
}

// RecordQuote counts a computed quote and, when a coupon was supplied, its
// outcome.
func (m *CloudWatchMetrics) RecordQuote(ctx context.Context, tier types.PlanTier, interval types.BillingInterval, status types.CouponStatus) {
	data := []cwtypes.MetricDatum{{
		MetricName: aws.String(types.MetricQuoteComputed),
		Value:      aws.Float64(1),
		Unit:       cwtypes.StandardUnitCount,
		Dimensions: []cwtypes.Dimension{
			dimension(types.DimTier, string(tier)),
			dimension(types.DimInterval, string(interval)),
		},
	}}
	if status != types.CouponNone {
		data = append(data, cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricCouponOutcome),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: []cwtypes.Dimension{
				dimension(types.DimTier, string(tier)),
				dimension(types.DimCouponStatus, string(status)),
			},
		})
	}
	m.put(ctx, "quote", data...)
}

// RecordCatalogReload counts a catalog load attempt by result.
func (m *CloudWatchMetrics) RecordCatalogReload(ctx context.Context, source string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	m.put(ctx, "catalog reload", cwtypes.MetricDatum{
		MetricName: aws.String(types.MetricCatalogReload),
		Value:      aws.Float64(1),
		Unit:       cwtypes.StandardUnitCount,
		Dimensions: []cwtypes.Dimension{dimension(types.DimResult, result)},
	})
	m.logger.DebugContext(ctx, "catalog reload recorded", "source", source, "success", success)
}

func (m *CloudWatchMetrics) put(ctx context.Context, what string, data ...cwtypes.MetricDatum) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	}
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to record "+what+" metric", "error", err.Error())
	}
}

func dimension(name, value string) cwtypes.Dimension {
	return cwtypes.Dimension{Name: aws.String(name), Value: aws.String(value)}
}

// Noop discards every metric. It is used when ENABLE_METRICS is off.
type Noop struct{}

func (Noop) RecordRequest(string, string, string, time.Duration) {}

func (Noop) RecordQuote(context.Context, types.PlanTier, types.BillingInterval, types.CouponStatus) {
}

func (Noop) RecordCatalogReload(context.Context, string, bool) {}
