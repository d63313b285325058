// Package sms delivers the alert text message.
//
// The Dispatcher owns the decision of whether a message-create call
// succeeded: the provider client only reports what Twilio said, and the
// Dispatcher checks the reported status against the acceptance set.
package sms

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rainalert/internal/external"
	"rainalert/internal/notifications/core"
	"rainalert/internal/types"
)

// ProviderName is the Provider dimension on delivery metrics.
const ProviderName = "twilio"

// Dispatcher sends one SMS per call through an external.SMSProvider.
type Dispatcher struct {
	provider external.SMSProvider
	metrics  core.NotificationMetrics
	logger   *slog.Logger
	now      func() time.Time
}

// DispatcherConfig holds the dependencies needed to create a Dispatcher.
type DispatcherConfig struct {
	Provider external.SMSProvider
	Metrics  core.NotificationMetrics // optional; defaults to no-op
	Logger   *slog.Logger
}

// NewDispatcher creates a new Dispatcher with the given dependencies.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = core.NoOpNotificationMetrics{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		provider: cfg.Provider,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Type returns the channel type identifier for SMS.
func (d *Dispatcher) Type() types.ChannelType {
	return types.ChannelSMS
}

// Dispatch sends message from sender to recipient using the given account
// credentials. It makes exactly one provider call, and none at all when any
// input is empty.
//
// Error mapping:
//   - empty accountID, authToken, sender, recipient, or message -> types.ErrCodeConfigMissingCredential
//   - provider call failed -> types.ErrCodeDispatchFailed wrapping the transport error
//   - provider status outside the acceptance set -> types.ErrCodeDispatchRejected
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	message, sender, recipient, accountID string,
	authToken types.SecretString,
) (*types.MessageReceipt, error) {
	if missing := missingInputs(message, sender, recipient, accountID, authToken); len(missing) > 0 {
		return nil, types.NewAppErrorWithDetails(
			types.ErrCodeConfigMissingCredential,
			"cannot send SMS without "+strings.Join(missing, ", "),
			nil,
			map[string]any{"missing": missing},
		)
	}

	d.logger.InfoContext(ctx, "attempting SMS delivery", "to", RedactPhone(recipient))

	start := d.now()
	receipt, err := d.provider.CreateMessage(ctx, types.SMSInput{
		AccountID: accountID,
		AuthToken: authToken,
		From:      sender,
		To:        recipient,
		Body:      message,
	})
	d.metrics.RecordLatency(ctx, types.ChannelSMS, d.now().Sub(start))

	if err != nil {
		d.metrics.RecordDelivery(ctx, types.ChannelSMS, core.MetricFailed)
		return nil, types.NewAppError(
			types.ErrCodeDispatchFailed,
			fmt.Sprintf("message create failed: %v", err),
			err,
		)
	}

	if receipt == nil {
		d.metrics.RecordDelivery(ctx, types.ChannelSMS, core.MetricFailed)
		return nil, types.NewAppError(types.ErrCodeDispatchFailed, "message create returned no receipt", nil)
	}

	if !receipt.Status.IsAccepted() {
		d.metrics.RecordDelivery(ctx, types.ChannelSMS, core.MetricFailed)
		return nil, rejected(receipt)
	}

	d.metrics.RecordDelivery(ctx, types.ChannelSMS, core.MetricSuccess)
	d.logger.InfoContext(ctx, "SMS sent successfully",
		"sid", receipt.ID,
		"status", receipt.Status,
		"to", RedactPhone(recipient),
	)

	return receipt, nil
}

// missingInputs names the empty inputs, credentials first.
func missingInputs(message, sender, recipient, accountID string, authToken types.SecretString) []string {
	var missing []string
	if accountID == "" {
		missing = append(missing, "account ID")
	}
	if authToken.IsZero() {
		missing = append(missing, "auth token")
	}
	if sender == "" {
		missing = append(missing, "sender")
	}
	if recipient == "" {
		missing = append(missing, "recipient")
	}
	if message == "" {
		missing = append(missing, "message")
	}
	return missing
}

func rejected(receipt *types.MessageReceipt) *types.AppError {
	msg := fmt.Sprintf("message %s not accepted: status %q", receipt.ID, receipt.Status)
	if receipt.ErrorCode != 0 || receipt.ErrorMessage != "" {
		msg += fmt.Sprintf(" (error %d: %s)", receipt.ErrorCode, receipt.ErrorMessage)
	}
	return types.NewAppErrorWithDetails(types.ErrCodeDispatchRejected, msg, nil, map[string]any{
		"sid":           receipt.ID,
		"status":        string(receipt.Status),
		"error_code":    receipt.ErrorCode,
		"error_message": receipt.ErrorMessage,
	})
}
