package external

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"rainalert/internal/types"
)

// twilioAPIBase is the default Twilio REST API base URL.
// Overridable in tests via TwilioClientConfig.BaseURL.
const twilioAPIBase = "https://api.twilio.com"

// TwilioClientConfig holds the configuration for creating a TwilioClient.
type TwilioClientConfig struct {
	BaseURL   string // Override for testing; defaults to twilioAPIBase
	UserAgent string
	Logger    *slog.Logger
}

// TwilioClient implements SMSProvider by calling the Twilio Programmable
// Messaging REST API directly through BaseClient.
type TwilioClient struct {
	base    *BaseClient
	baseURL string
	logger  *slog.Logger
}

// NewTwilioClient creates a new TwilioClient.
func NewTwilioClient(httpClient *http.Client, cfg TwilioClientConfig) *TwilioClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	base := NewBaseClient(
		httpClient,
		"twilio",
		types.ErrCodeTransportMessaging,
		cfg.UserAgent,
		WithLogger(logger),
	)

	return NewTwilioClientWithBase(base, cfg)
}

// NewTwilioClientWithBase creates a TwilioClient with a pre-configured
// BaseClient.
func NewTwilioClientWithBase(base *BaseClient, cfg TwilioClientConfig) *TwilioClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = twilioAPIBase
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &TwilioClient{
		base:    base,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}
}

// twilioMessage is the subset of the Message resource we read.
type twilioMessage struct {
	SID          string  `json:"sid"`
	Status       string  `json:"status"`
	ErrorCode    *int    `json:"error_code"`
	ErrorMessage *string `json:"error_message"`
}

// twilioError is the body Twilio returns with a 4xx/5xx status.
type twilioError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

// CreateMessage creates one outbound SMS. The receipt status is returned
// unjudged; deciding acceptance belongs to the caller.
//
// Error mapping:
//   - connectivity failure, timeout, 429, 5xx -> handled by BaseClient
//   - other non-2xx -> types.ErrCodeTransportMessaging with Twilio's code and message
//   - 2xx with an unreadable body -> types.ErrCodeTransportMessaging
func (c *TwilioClient) CreateMessage(ctx context.Context, input types.SMSInput) (*types.MessageReceipt, error) {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json",
		c.baseURL, url.PathEscape(input.AccountID))

	req := c.base.R(ctx).
		SetHeader("Accept", "application/json").
		SetBasicAuth(input.AccountID, input.AuthToken.Unmask()).
		SetFormData(map[string]string{
			"To":   input.To,
			"From": input.From,
			"Body": input.Body,
		})

	resp, err := c.base.Execute(req, http.MethodPost, endpoint)
	if err != nil {
		return nil, err
	}

	if !resp.IsSuccess() {
		appErr := c.base.StatusError(resp, "messaging provider returned non-success status")
		var apiErr twilioError
		if json.Unmarshal(resp.Body(), &apiErr) == nil && apiErr.Code != 0 {
			appErr = appErr.WithDetails(map[string]any{
				"provider_code":    apiErr.Code,
				"provider_message": apiErr.Message,
				"more_info":        apiErr.MoreInfo,
			})
		}
		return nil, appErr
	}

	var msg twilioMessage
	if err := json.Unmarshal(resp.Body(), &msg); err != nil {
		return nil, types.NewAppErrorWithDetails(
			types.ErrCodeTransportMessaging,
			"messaging provider returned an unreadable message resource",
			err,
			map[string]any{"status": resp.StatusCode(), "body": bodySnippet(resp.Body())},
		)
	}

	receipt := &types.MessageReceipt{
		ID:     msg.SID,
		Status: types.MessageStatus(msg.Status),
	}
	if msg.ErrorCode != nil {
		receipt.ErrorCode = *msg.ErrorCode
	}
	if msg.ErrorMessage != nil {
		receipt.ErrorMessage = *msg.ErrorMessage
	}

	c.logger.DebugContext(ctx, "message created",
		"sid", receipt.ID,
		"status", receipt.Status,
	)

	return receipt, nil
}

// TwilioAccount is the subset of the Account resource used to confirm a
// credential pair.
type TwilioAccount struct {
	SID          string `json:"sid"`
	FriendlyName string `json:"friendly_name"`
	Status       string `json:"status"`
}

// FetchAccount reads the account resource for accountID. It succeeds only
// when authToken belongs to that account; a 401 comes back as a non-success
// status error.
func (c *TwilioClient) FetchAccount(ctx context.Context, accountID string, authToken types.SecretString) (*TwilioAccount, error) {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s.json",
		c.baseURL, url.PathEscape(accountID))

	req := c.base.R(ctx).
		SetHeader("Accept", "application/json").
		SetBasicAuth(accountID, authToken.Unmask())

	resp, err := c.base.Execute(req, http.MethodGet, endpoint)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, c.base.StatusError(resp, "messaging provider rejected account lookup")
	}

	var account TwilioAccount
	if err := json.Unmarshal(resp.Body(), &account); err != nil {
		return nil, types.NewAppErrorWithDetails(
			types.ErrCodeTransportMessaging,
			"messaging provider returned an unreadable account resource",
			err,
			map[string]any{"status": resp.StatusCode(), "body": bodySnippet(resp.Body())},
		)
	}
	return &account, nil
}
