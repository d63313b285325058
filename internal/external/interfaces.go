package external

import (
	"context"

	"rainalert/internal/types"
)

// ---------------------------------------------------------------------------
// Weather Integration (OpenWeatherMap)
// ---------------------------------------------------------------------------

// ForecastProvider abstracts the weather forecast endpoint.
type ForecastProvider interface {
	// FetchForecast performs exactly one request for the next count forecast
	// entries at coords. apiKey is passed through unvalidated; the provider
	// rejects a bad key.
	FetchForecast(ctx context.Context, coords types.Coordinates, apiKey types.SecretString, count int) (*types.ForecastWindow, error)
}

// ---------------------------------------------------------------------------
// Messaging Integration (Twilio)
// ---------------------------------------------------------------------------

// SMSProvider abstracts the message-create call of the messaging provider.
type SMSProvider interface {
	// CreateMessage performs exactly one message-create call and returns the
	// provider's synchronous receipt. It does not judge the returned status.
	CreateMessage(ctx context.Context, input types.SMSInput) (*types.MessageReceipt, error)
}

// Compile-time assertions.
var (
	_ ForecastProvider = (*OpenWeatherClient)(nil)
	_ SMSProvider      = (*TwilioClient)(nil)
)
