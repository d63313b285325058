// Package core provides the shared notification infrastructure used by the
// delivery channels. Today that is delivery telemetry: every channel reports
// the outcome and latency of each attempt through NotificationMetrics.
package core

import (
	"context"
	"time"

	"rainalert/internal/types"
)

// MetricResult categorizes a delivery outcome for metrics reporting.
type MetricResult string

const (
	MetricSuccess MetricResult = "success"
	MetricFailed  MetricResult = "failed"
	MetricSkipped MetricResult = "skipped"
)

// NotificationMetrics abstracts CloudWatch/telemetry operations for the
// notification system. Implementations must not fail the delivery they
// describe; publishing errors are logged and dropped.
type NotificationMetrics interface {
	RecordDelivery(ctx context.Context, channel types.ChannelType, result MetricResult)
	RecordLatency(ctx context.Context, channel types.ChannelType, duration time.Duration)
}

// NoOpNotificationMetrics discards every metric. It is used when metrics are
// disabled and in tests.
type NoOpNotificationMetrics struct{}

var _ NotificationMetrics = NoOpNotificationMetrics{}

func (NoOpNotificationMetrics) RecordDelivery(context.Context, types.ChannelType, MetricResult) {}

func (NoOpNotificationMetrics) RecordLatency(context.Context, types.ChannelType, time.Duration) {}
