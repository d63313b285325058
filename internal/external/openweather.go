package external

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rainalert/internal/types"
)

// openWeatherAPIBase is the default OpenWeatherMap API base URL.
// Overridable in tests via OpenWeatherClientConfig.BaseURL.
const openWeatherAPIBase = "https://api.openweathermap.org"

// forecastPath is the 5-day/3-hour forecast endpoint.
const forecastPath = "/data/2.5/forecast"

// OpenWeatherClientConfig holds the configuration for creating an
// OpenWeatherClient.
type OpenWeatherClientConfig struct {
	BaseURL   string // Override for testing; defaults to openWeatherAPIBase
	UserAgent string
	Logger    *slog.Logger
}

// OpenWeatherClient implements ForecastProvider against the OpenWeatherMap
// forecast API through BaseClient.
type OpenWeatherClient struct {
	base    *BaseClient
	baseURL string
	logger  *slog.Logger
}

// NewOpenWeatherClient creates a new OpenWeatherClient. The httpClient timeout
// bounds the single forecast call.
func NewOpenWeatherClient(httpClient *http.Client, cfg OpenWeatherClientConfig) *OpenWeatherClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	base := NewBaseClient(
		httpClient,
		"openweathermap",
		types.ErrCodeTransportForecast,
		cfg.UserAgent,
		WithLogger(logger),
	)

	return NewOpenWeatherClientWithBase(base, cfg)
}

// NewOpenWeatherClientWithBase creates an OpenWeatherClient with a
// pre-configured BaseClient. This is useful for testing when you want to
// control the circuit breaker.
func NewOpenWeatherClientWithBase(base *BaseClient, cfg OpenWeatherClientConfig) *OpenWeatherClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openWeatherAPIBase
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &OpenWeatherClient{
		base:    base,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}
}

// FetchForecast requests the next count entries for coords.
//
// Error mapping:
//   - invalid coordinates or count < 1 -> configuration error, no request made
//   - connectivity failure, timeout, non-2xx -> transport error with status and body
//   - 2xx with an unexpected body shape -> types.ErrCodeMalformedForecast
func (c *OpenWeatherClient) FetchForecast(
	ctx context.Context,
	coords types.Coordinates,
	apiKey types.SecretString,
	count int,
) (*types.ForecastWindow, error) {
	if err := coords.Validate(); err != nil {
		return nil, err
	}
	if count < 1 {
		return nil, types.NewAppError(
			types.ErrCodeConfigInvalidCount,
			fmt.Sprintf("forecast entry count must be positive, got %d", count),
			nil,
		)
	}

	req := c.base.R(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParams(map[string]string{
			"lat":   strconv.FormatFloat(coords.Latitude, 'f', -1, 64),
			"lon":   strconv.FormatFloat(coords.Longitude, 'f', -1, 64),
			"cnt":   strconv.Itoa(count),
			"appid": apiKey.Unmask(),
		})

	resp, err := c.base.Execute(req, http.MethodGet, c.baseURL+forecastPath)
	if err != nil {
		return nil, err
	}

	if !resp.IsSuccess() {
		return nil, c.base.StatusError(resp, "forecast provider returned non-success status")
	}

	window, err := parseForecast(resp.Body())
	if err != nil {
		return nil, err
	}
	window.Location = coords

	c.logger.DebugContext(ctx, "forecast fetched",
		"entries", window.Len(),
		"requested", count,
		"condition_codes", window.ConditionCodes(),
	)

	return window, nil
}

// ---------------------------------------------------------------------------
// Response Parsing
// ---------------------------------------------------------------------------

// Pointer fields distinguish an absent field from its zero value.
type owmForecastResponse struct {
	List *[]owmForecastItem `json:"list"`
}

type owmForecastItem struct {
	Dt      int64         `json:"dt"`
	Weather *[]owmWeather `json:"weather"`
}

type owmWeather struct {
	ID          *int   `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
}

// parseForecast maps the provider body to a ForecastWindow. Only the first
// weather element of each entry is consulted.
func parseForecast(body []byte) (*types.ForecastWindow, error) {
	var raw owmForecastResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, malformed("forecast body is not the expected JSON", body, err)
	}
	if raw.List == nil {
		return nil, malformed("forecast body has no list field", body, nil)
	}

	entries := make([]types.ForecastEntry, 0, len(*raw.List))
	for i, item := range *raw.List {
		if item.Weather == nil || len(*item.Weather) == 0 {
			return nil, malformed(fmt.Sprintf("forecast entry %d has no weather conditions", i), body, nil)
		}
		first := (*item.Weather)[0]
		if first.ID == nil {
			return nil, malformed(fmt.Sprintf("forecast entry %d has no condition code", i), body, nil)
		}

		entry := types.ForecastEntry{
			ConditionCode: *first.ID,
			Condition:     first.Main,
			Description:   first.Description,
		}
		if item.Dt > 0 {
			entry.Time = time.Unix(item.Dt, 0).UTC()
		}
		entries = append(entries, entry)
	}

	return &types.ForecastWindow{Entries: entries}, nil
}

func malformed(message string, body []byte, err error) *types.AppError {
	return types.NewAppErrorWithDetails(
		types.ErrCodeMalformedForecast,
		message,
		err,
		map[string]any{"body": bodySnippet(body)},
	)
}
