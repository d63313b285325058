package types

// Telemetry metric names for CloudWatch.
const (
	// Metric Names
	MetricDeliveryAttempt = "DeliveryAttempt"
	MetricDeliveryLatency = "DeliveryAttemptLatency"

	// Dimension Keys
	DimChannel  = "Channel"
	DimResult   = "Result"
	DimProvider = "Provider"

	// Metric Namespace
	MetricNamespace = "RainAlert"
)

// ChannelType identifies a notification delivery channel.
type ChannelType string

const ChannelSMS ChannelType = "sms"
