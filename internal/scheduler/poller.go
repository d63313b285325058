package scheduler

import (
	"context"
	"errors"
	"log/slog"

	"rainalert/internal/external"
	"rainalert/internal/forecasts"
	"rainalert/internal/types"
)

// AlertDispatcher sends the alert text. Implemented by sms.Dispatcher.
type AlertDispatcher interface {
	Dispatch(ctx context.Context, message, sender, recipient, accountID string, authToken types.SecretString) (*types.MessageReceipt, error)
}

// RainPoller sequences fetch, classify and dispatch. It makes no decisions
// of its own and returns every component error unchanged.
type RainPoller struct {
	forecasts  external.ForecastProvider
	dispatcher AlertDispatcher

	location  types.Coordinates
	apiKey    types.SecretString
	count     int
	accountID string
	authToken types.SecretString
	sender    string
	recipient string

	logger *slog.Logger
}

// RainPollerConfig holds the configuration for creating a RainPoller.
type RainPollerConfig struct {
	Forecasts  external.ForecastProvider
	Dispatcher AlertDispatcher

	Location      types.Coordinates
	WeatherAPIKey types.SecretString
	EntryCount    int // defaults to forecasts.WindowSize

	AccountID string
	AuthToken types.SecretString
	Sender    string
	Recipient string

	Logger *slog.Logger
}

// NewRainPoller creates a new RainPoller with the given configuration.
func NewRainPoller(cfg RainPollerConfig) *RainPoller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	count := cfg.EntryCount
	if count == 0 {
		count = forecasts.WindowSize
	}
	return &RainPoller{
		forecasts:  cfg.Forecasts,
		dispatcher: cfg.Dispatcher,
		location:   cfg.Location,
		apiKey:     cfg.WeatherAPIKey,
		count:      count,
		accountID:  cfg.AccountID,
		authToken:  cfg.AuthToken,
		sender:     cfg.Sender,
		recipient:  cfg.Recipient,
		logger:     logger,
	}
}

// Poll runs one fetch, classify, dispatch cycle. Dispatch is attempted only
// after a successful fetch that classifies as precipitation.
func (p *RainPoller) Poll(ctx context.Context) (*PollResult, error) {
	window, err := p.forecasts.FetchForecast(ctx, p.location, p.apiKey, p.count)
	if err != nil {
		p.stageFailed(ctx, StageFetch, err)
		return nil, err
	}

	result := &PollResult{
		RunID:          types.GetRunID(ctx),
		WillRain:       forecasts.Classify(window),
		Entries:        window.Len(),
		ConditionCodes: window.ConditionCodes(),
	}

	if !result.WillRain {
		result.Outcome = OutcomeNoRain
		result.Message = NoRainMessage
		p.logger.InfoContext(ctx, NoRainMessage,
			"entries", result.Entries,
			"condition_codes", result.ConditionCodes,
		)
		return result, nil
	}

	if first, ok := forecasts.FirstPrecipitation(window); ok {
		attrs := []any{
			"condition_code", first.ConditionCode,
			"family", forecasts.Family(first.ConditionCode),
			"description", first.Description,
		}
		if !first.Time.IsZero() {
			attrs = append(attrs, "at", first.Time)
		}
		p.logger.InfoContext(ctx, "precipitation forecasted", attrs...)
	}

	receipt, err := p.dispatcher.Dispatch(ctx, UmbrellaMessage, p.sender, p.recipient, p.accountID, p.authToken)
	if err != nil {
		p.stageFailed(ctx, StageDispatch, err)
		return nil, err
	}

	result.Outcome = OutcomeAlertSent
	result.Message = UmbrellaMessage
	result.Receipt = receipt
	return result, nil
}

// stageFailed reports which stage failed and why. The error itself is
// returned to the caller untouched.
func (p *RainPoller) stageFailed(ctx context.Context, stage Stage, err error) {
	attrs := []any{"stage", stage, "error", err}
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		attrs = append(attrs, "category", appErr.Category(), "code", appErr.Code)
		if len(appErr.Details) > 0 {
			attrs = append(attrs, "details", appErr.Details)
		}
	}
	p.logger.ErrorContext(ctx, "stage failed", attrs...)
}
