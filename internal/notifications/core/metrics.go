package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"rainalert/internal/types"
)

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Compile-time assertion that CloudWatchNotificationMetrics implements NotificationMetrics.
var _ NotificationMetrics = (*CloudWatchNotificationMetrics)(nil)

// CloudWatchNotificationMetrics implements NotificationMetrics by emitting
// metrics to AWS CloudWatch.
//
// Metrics emitted:
//   - DeliveryAttempt: Dims {Channel, Result, Provider} -- on every delivery outcome
//   - DeliveryAttemptLatency: Dims {Channel, Provider} -- time taken for the attempt
type CloudWatchNotificationMetrics struct {
	client    CloudWatchClient
	namespace string
	provider  string
	logger    *slog.Logger
}

// CloudWatchMetricsConfig holds the settings for CloudWatchNotificationMetrics.
type CloudWatchMetricsConfig struct {
	Namespace string // defaults to types.MetricNamespace
	Provider  string // value of the Provider dimension, e.g. "twilio"
	Logger    *slog.Logger
}

// NewCloudWatchNotificationMetrics creates a new CloudWatchNotificationMetrics
// that publishes to the configured CloudWatch namespace.
func NewCloudWatchNotificationMetrics(client CloudWatchClient, cfg CloudWatchMetricsConfig) *CloudWatchNotificationMetrics {
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = types.MetricNamespace
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchNotificationMetrics{
		client:    client,
		namespace: namespace,
		provider:  cfg.Provider,
		logger:    logger,
	}
}

func (m *CloudWatchNotificationMetrics) dimensions(channel types.ChannelType) []cwtypes.Dimension {
	dims := []cwtypes.Dimension{
		{
			Name:  aws.String(types.DimChannel),
			Value: aws.String(string(channel)),
		},
	}
	if m.provider != "" {
		dims = append(dims, cwtypes.Dimension{
			Name:  aws.String(types.DimProvider),
			Value: aws.String(m.provider),
		})
	}
	return dims
}

// RecordDelivery emits a DeliveryAttempt metric with Channel and Result dimensions:
//
//	Metric: DeliveryAttempt, Dims: {Channel: "sms", Result: "success", Provider: "twilio"}
func (m *CloudWatchNotificationMetrics) RecordDelivery(ctx context.Context, channel types.ChannelType, result MetricResult) {
	dims := append(m.dimensions(channel), cwtypes.Dimension{
		Name:  aws.String(types.DimResult),
		Value: aws.String(string(result)),
	})

	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(types.MetricDeliveryAttempt),
				Value:      aws.Float64(1),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: dims,
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.ErrorContext(ctx, "failed to record delivery metric",
			"error", err,
			"channel", string(channel),
			"result", string(result),
		)
	}
}

// RecordLatency emits a delivery latency metric with the Channel dimension.
// Duration is recorded in milliseconds for CloudWatch precision.
func (m *CloudWatchNotificationMetrics) RecordLatency(ctx context.Context, channel types.ChannelType, duration time.Duration) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(types.MetricDeliveryLatency),
				Value:      aws.Float64(float64(duration.Milliseconds())),
				Unit:       cwtypes.StandardUnitMilliseconds,
				Dimensions: m.dimensions(channel),
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.ErrorContext(ctx, "failed to record latency metric",
			"error", err,
			"channel", string(channel),
			"duration_ms", duration.Milliseconds(),
		)
	}
}
