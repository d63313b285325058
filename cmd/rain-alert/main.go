// Package main is the entrypoint for the rain alert job.
//
// One process run is one poll: fetch the next 12 hours of forecast for the
// configured point, and text the umbrella reminder if precipitation is
// expected. The binary runs once from the command line (cron, systemd timer)
// or, when AWS_LAMBDA_FUNCTION_NAME is set, as a Lambda function invoked by
// an EventBridge schedule.
//
// This file handles dependency wiring and delegates all business logic to the
// internal/scheduler package (RainPoller.Poll).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"rainalert/internal/config"
	"rainalert/internal/external"
	"rainalert/internal/notifications/core"
	"rainalert/internal/notifications/sms"
	"rainalert/internal/scheduler"
	"rainalert/internal/types"
)

func main() {
	// The level is raised or lowered once LOG_LEVEL is known.
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		logger.Info("RainAlert Lambda initializing (cold start)")
		a, err := bootstrap(ctx, logger, level)
		if err != nil {
			logger.Error("startup failed", errorAttrs(err)...)
			os.Exit(types.ExitCodeFor(err))
		}
		lambda.Start(newHandler(a.poller, logger))
		return
	}

	root := newRootCmd(logger, func(ctx context.Context) (*app, error) {
		return bootstrap(ctx, logger, level)
	})
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(types.ExitCodeFor(err))
	}
}

// pollRunner is the subset of scheduler.RainPoller used by the entry points.
type pollRunner interface {
	Poll(ctx context.Context) (*scheduler.PollResult, error)
}

// app is the wired pipeline for one process.
type app struct {
	cfg    *config.Config
	poller pollRunner
}

// bootstrap loads configuration and constructs every client once.
func bootstrap(ctx context.Context, logger *slog.Logger, level *slog.LevelVar) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if level != nil {
		level.Set(cfg.SlogLevel())
	}

	logger.Info("configuration loaded",
		"environment", cfg.Environment,
		"version", cfg.Build.String(),
		"latitude", cfg.Location.Latitude,
		"longitude", cfg.Location.Longitude,
		"metrics_enabled", cfg.Observability.MetricsEnabled,
	)
	if missing := cfg.MissingCredentials(); len(missing) > 0 {
		logger.Warn("provider credentials not set; the run fails when one is needed",
			"missing", missing,
		)
	}

	metrics, err := newMetrics(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, poller: newPoller(cfg, metrics, logger)}, nil
}

// loadConfig resolves _SSM_PARAM pointers outside local development and
// returns a configuration-category error on any failure.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(secretProvider(os.Getenv))
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeConfigLoad, err.Error(), err)
	}
	return cfg, nil
}

// secretProvider picks where _SSM_PARAM pointers resolve. SECRET_PROVIDER=env
// reads each pointer as another environment variable name, for containers
// that inject secrets without SSM access.
func secretProvider(getenv func(string) string) config.SecretProvider {
	if getenv("SECRET_PROVIDER") == "env" {
		return config.NewEnvVarProvider()
	}
	region := getenv("AWS_REGION")
	if region == "" {
		region = "us-east-1"
	}
	return config.NewSSMProvider(region, getenv("AWS_ENDPOINT_URL"))
}

// newMetrics returns CloudWatch delivery metrics when enabled, otherwise a
// no-op.
func newMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (core.NotificationMetrics, error) {
	if !cfg.Observability.MetricsEnabled {
		return core.NoOpNotificationMetrics{}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeConfigLoad, "failed to load AWS SDK config", err)
	}
	cwClient := cloudwatch.NewFromConfig(awsCfg, func(o *cloudwatch.Options) {
		if cfg.AWS.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
		}
	})

	return core.NewCloudWatchNotificationMetrics(cwClient, core.CloudWatchMetricsConfig{
		Namespace: cfg.Observability.MetricNamespace,
		Provider:  sms.ProviderName,
		Logger:    logger,
	}), nil
}

// newPoller wires the provider clients, dispatcher and poller from cfg.
func newPoller(cfg *config.Config, metrics core.NotificationMetrics, logger *slog.Logger) *scheduler.RainPoller {
	httpClient := &http.Client{Timeout: cfg.HTTP.Timeout}

	weather := external.NewOpenWeatherClient(httpClient, external.OpenWeatherClientConfig{
		BaseURL:   cfg.Weather.BaseURL,
		UserAgent: cfg.HTTP.UserAgent,
		Logger:    logger,
	})
	twilio := external.NewTwilioClient(httpClient, external.TwilioClientConfig{
		BaseURL:   cfg.Messaging.BaseURL,
		UserAgent: cfg.HTTP.UserAgent,
		Logger:    logger,
	})

	dispatcher := sms.NewDispatcher(sms.DispatcherConfig{
		Provider: twilio,
		Metrics:  metrics,
		Logger:   logger,
	})

	return scheduler.NewRainPoller(scheduler.RainPollerConfig{
		Forecasts:     weather,
		Dispatcher:    dispatcher,
		Location:      cfg.Location.Coordinates(),
		WeatherAPIKey: cfg.Weather.APIKey,
		AccountID:     cfg.Messaging.AccountSID.Unmask(),
		AuthToken:     cfg.Messaging.AuthToken,
		Sender:        cfg.Messaging.From,
		Recipient:     cfg.Messaging.To,
		Logger:        logger,
	})
}

// runOnce performs one poll under a fresh run ID.
func runOnce(ctx context.Context, p pollRunner, logger *slog.Logger) (*scheduler.PollResult, error) {
	runID := uuid.NewString()
	ctx = types.WithRunID(ctx, runID)

	logger.InfoContext(ctx, "rain alert run started", "run_id", runID)

	result, err := p.Poll(ctx)
	if err != nil {
		attrs := append([]any{"run_id", runID}, errorAttrs(err)...)
		logger.ErrorContext(ctx, "rain alert run failed", attrs...)
		return nil, err
	}

	logger.InfoContext(ctx, "rain alert run finished",
		"run_id", runID,
		"outcome", result.Outcome,
		"message", result.Message,
	)
	return result, nil
}

// errorAttrs renders err with its category, code and exit code.
func errorAttrs(err error) []any {
	attrs := []any{"error", err, "exit_code", types.ExitCodeFor(err)}
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		attrs = append(attrs, "category", appErr.Category(), "code", appErr.Code)
	}
	return attrs
}

// newHandler creates the Lambda handler. Each invocation is one poll; the
// scheduled event payload carries nothing the poll needs.
func newHandler(p pollRunner, logger *slog.Logger) func(ctx context.Context) (*scheduler.PollResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context) (*scheduler.PollResult, error) {
		return runOnce(ctx, p, logger)
	}
}

// newRootCmd builds the CLI. The root command runs one poll; build is called
// only when a poll is requested so that `version` needs no configuration.
func newRootCmd(logger *slog.Logger, build func(ctx context.Context) (*app, error)) *cobra.Command {
	root := &cobra.Command{
		Use:           "rain-alert",
		Short:         "Text an umbrella reminder when rain is forecast",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := build(cmd.Context())
			if err != nil {
				logger.Error("startup failed", errorAttrs(err)...)
				return err
			}

			result, err := runOnce(cmd.Context(), a.poller, logger)
			if err != nil {
				cmd.PrintErrf("rain alert failed: %v\n", err)
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.Message)
			return nil
		},
	}

	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "rain-alert "+config.NewBuildInfo().String())
			return nil
		},
	}
}
