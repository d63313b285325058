// Package config defines the configuration of the rain alert job.
// Configuration is loaded once at process start and is immutable thereafter;
// components receive the subset they need by parameter and never read the
// environment themselves.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> AWS SSM Parameter Store (Lowest)
//
// Provider credentials are deliberately optional at load time. A missing
// credential is reported as a ConfigurationError by the component that needs
// it, at the moment it needs it.
package config

import (
	"log/slog"
	"strings"
	"time"

	"rainalert/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type used
// throughout configuration to prevent accidental logging of sensitive values.
type SecretString = types.SecretString

// Config is the top-level configuration struct.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Location      LocationConfig
	Weather       WeatherConfig
	Messaging     MessagingConfig
	HTTP          HTTPConfig
	AWS           AWSConfig
	Observability ObservabilityConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// LocationConfig holds the single point the forecast is requested for.
// Defaults to central Stockholm.
type LocationConfig struct {
	Latitude  float64 `envconfig:"FORECAST_LATITUDE" default:"59.334591" validate:"min=-90,max=90"`
	Longitude float64 `envconfig:"FORECAST_LONGITUDE" default:"18.063240" validate:"min=-180,max=180"`
}

// Coordinates returns the configured location as a domain value.
func (l LocationConfig) Coordinates() types.Coordinates {
	return types.Coordinates{Latitude: l.Latitude, Longitude: l.Longitude}
}

// WeatherConfig holds the OpenWeatherMap credentials.
type WeatherConfig struct {
	APIKey  SecretString `envconfig:"OWM_API_KEY"`
	BaseURL string       `envconfig:"OWM_BASE_URL" default:"https://api.openweathermap.org" validate:"required,url"`
}

// MessagingConfig holds the Twilio credentials and the sender/recipient pair.
type MessagingConfig struct {
	AccountSID SecretString `envconfig:"TWILIO_ACCOUNT_SID"`
	AuthToken  SecretString `envconfig:"TWILIO_AUTH_TOKEN"`
	From       string       `envconfig:"MY_TWILIO_PHONE_NO"`
	To         string       `envconfig:"MY_PHONE_NO"`
	BaseURL    string       `envconfig:"TWILIO_BASE_URL" default:"https://api.twilio.com" validate:"required,url"`
}

// HTTPConfig bounds every outbound provider call.
type HTTPConfig struct {
	Timeout   time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s" validate:"gt=0"`
	UserAgent string        `envconfig:"HTTP_USER_AGENT" default:"RainAlert/1.0"`
}

// AWSConfig holds AWS regional configuration used by SSM and CloudWatch.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`

	// LocalStack Support (Empty in Prod)
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	MetricsEnabled  bool   `envconfig:"METRICS_ENABLED" default:"false"`
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"RainAlert"`
}

// BuildInfo holds build-time metadata injected via ldflags.
// These values are NOT populated from environment variables.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// SlogLevel converts LogLevel into a slog.Level. Unknown values map to Info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MissingCredentials returns the environment variable names of the five
// provider values that are unset, in a stable order.
func (c *Config) MissingCredentials() []string {
	var missing []string
	if c.Weather.APIKey.IsZero() {
		missing = append(missing, "OWM_API_KEY")
	}
	if c.Messaging.AccountSID.IsZero() {
		missing = append(missing, "TWILIO_ACCOUNT_SID")
	}
	if c.Messaging.AuthToken.IsZero() {
		missing = append(missing, "TWILIO_AUTH_TOKEN")
	}
	if c.Messaging.From == "" {
		missing = append(missing, "MY_TWILIO_PHONE_NO")
	}
	if c.Messaging.To == "" {
		missing = append(missing, "MY_PHONE_NO")
	}
	return missing
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrMissingEnv indicates a required environment variable was not found.
	ErrMissingEnv ConfigErrorType = "MISSING_ENV"
	// ErrSSMResolution indicates a failure when fetching secrets from AWS SSM.
	ErrSSMResolution ConfigErrorType = "SSM_FAILURE"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
