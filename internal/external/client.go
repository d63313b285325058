// Package external provides the anti-corruption layer between the rain alert
// pipeline and third-party vendor APIs. All outbound HTTP calls are routed
// through the BaseClient, which enforces consistent transport behavior:
// circuit breaking, trace propagation, and error mapping. There are no retries;
// a failed call fails the run.
package external

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"rainalert/internal/types"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
)

// maxErrorBodyLen bounds the provider body copied into error messages.
const maxErrorBodyLen = 512

// BaseClient wraps a resty client and a circuit breaker to enforce consistent
// behavior on all outbound HTTP calls. Provider clients (OpenWeatherMap,
// Twilio) hold a BaseClient to inherit this behavior.
type BaseClient struct {
	client    *resty.Client
	breaker   *gobreaker.CircuitBreaker[*resty.Response]
	userAgent string

	// unavailableCode is the transport code reported for connectivity
	// failures and 5xx responses from this provider.
	unavailableCode types.ErrorCode
}

// BaseClientOption is a functional option for configuring a BaseClient.
type BaseClientOption func(*BaseClient)

// WithLogger routes resty's internal warnings through the given logger.
func WithLogger(logger *slog.Logger) BaseClientOption {
	return func(c *BaseClient) {
		if logger != nil {
			c.client.SetLogger(restyLogger{logger: logger})
		}
	}
}

// NewBaseClient creates a BaseClient with the given http client, circuit
// breaker name, transport error code, and user agent string.
func NewBaseClient(
	httpClient *http.Client,
	breakerName string,
	unavailableCode types.ErrorCode,
	userAgent string,
	opts ...BaseClientOption,
) *BaseClient {
	cb := gobreaker.NewCircuitBreaker[*resty.Response](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
	})

	return NewBaseClientWithBreaker(httpClient, cb, unavailableCode, userAgent, opts...)
}

// NewBaseClientWithBreaker creates a BaseClient with a caller-provided circuit
// breaker. This is useful for testing or when sharing a breaker across clients.
func NewBaseClientWithBreaker(
	httpClient *http.Client,
	breaker *gobreaker.CircuitBreaker[*resty.Response],
	unavailableCode types.ErrorCode,
	userAgent string,
	opts ...BaseClientOption,
) *BaseClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	bc := &BaseClient{
		client:          resty.NewWithClient(httpClient).SetLogger(restyLogger{logger: slog.Default()}),
		breaker:         breaker,
		userAgent:       userAgent,
		unavailableCode: unavailableCode,
	}

	for _, opt := range opts {
		opt(bc)
	}

	return bc
}

// R starts a request bound to ctx with the trace ID (X-B3-TraceId, from the
// run ID) and User-Agent headers set.
func (c *BaseClient) R(ctx context.Context) *resty.Request {
	req := c.client.R().SetContext(ctx)
	if traceID := types.GetRunID(ctx); traceID != "" {
		req.SetHeader("X-B3-TraceId", traceID)
	}
	if c.userAgent != "" {
		req.SetHeader("User-Agent", c.userAgent)
	}
	return req
}

// Execute performs exactly one HTTP call through the circuit breaker.
//
// On 2xx/3xx/4xx other than 429, Execute returns the response as-is; the
// caller decides what a 4xx means for its provider. On connectivity failure,
// timeout, 429, 5xx, or an open circuit, Execute returns a types.AppError in
// the transport category carrying the status and body when there is one.
func (c *BaseClient) Execute(req *resty.Request, method, url string) (*resty.Response, error) {
	resp, err := c.breaker.Execute(func() (*resty.Response, error) {
		r, doErr := req.Execute(method, url)
		if doErr != nil {
			return nil, doErr
		}
		// 5xx and 429 count against the breaker.
		if r.StatusCode() >= 500 || r.StatusCode() == http.StatusTooManyRequests {
			return r, fmt.Errorf("upstream returned %d", r.StatusCode())
		}
		return r, nil
	})
	if err != nil {
		return nil, c.mapError(resp, err)
	}
	return resp, nil
}

// StatusError builds the transport error for a response the caller treats as
// a failure. The status and the provider's body are kept in Details.
func (c *BaseClient) StatusError(resp *resty.Response, message string) *types.AppError {
	return c.statusError(c.unavailableCode, resp, message, nil)
}

func (c *BaseClient) statusError(code types.ErrorCode, resp *resty.Response, message string, err error) *types.AppError {
	body := bodySnippet(resp.Body())
	msg := fmt.Sprintf("%s: status %d", message, resp.StatusCode())
	if body != "" {
		msg += ": " + body
	}
	return types.NewAppErrorWithDetails(code, msg, err, map[string]any{
		"status": resp.StatusCode(),
		"body":   body,
	})
}

// mapError translates HTTP-level failures into domain-level AppErrors.
func (c *BaseClient) mapError(resp *resty.Response, err error) *types.AppError {
	// Circuit breaker open.
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return types.NewAppError(
			types.ErrCodeTransportCircuitOpen,
			"circuit breaker is open; upstream service unavailable",
			err,
		)
	}

	if resp != nil {
		switch {
		case resp.StatusCode() == http.StatusTooManyRequests:
			return c.statusError(types.ErrCodeTransportRateLimited, resp, "upstream rate limit exceeded", err)
		case resp.StatusCode() >= 500:
			return c.statusError(c.unavailableCode, resp, "upstream returned an error", err)
		}
	}

	if isTimeout(err) {
		return types.NewAppError(c.unavailableCode, "upstream request timed out", err)
	}

	// Network error, DNS failure, refused connection, etc.
	return types.NewAppError(c.unavailableCode, "upstream request failed", err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// bodySnippet trims and bounds a provider body for error output.
func bodySnippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBodyLen {
		s = s[:maxErrorBodyLen] + "..."
	}
	return s
}

// restyLogger adapts slog to resty.Logger.
type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "resty")
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "resty")
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "resty")
}
