package sms

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"rainalert/internal/notifications/core"
	"rainalert/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const umbrella = "It's going to rain today. Remember to bring an umbrella ☔️"

// mockSMSProvider implements external.SMSProvider for testing.
type mockSMSProvider struct {
	receipt *types.MessageReceipt
	err     error
	calls   []types.SMSInput
}

func (m *mockSMSProvider) CreateMessage(_ context.Context, input types.SMSInput) (*types.MessageReceipt, error) {
	m.calls = append(m.calls, input)
	return m.receipt, m.err
}

// mockMetrics records delivery outcomes.
type mockMetrics struct {
	results   []core.MetricResult
	latencies int
}

func (m *mockMetrics) RecordDelivery(_ context.Context, _ types.ChannelType, result core.MetricResult) {
	m.results = append(m.results, result)
}

func (m *mockMetrics) RecordLatency(context.Context, types.ChannelType, time.Duration) {
	m.latencies++
}

func newTestDispatcher(provider *mockSMSProvider, metrics *mockMetrics) (*Dispatcher, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	d := NewDispatcher(DispatcherConfig{
		Provider: provider,
		Metrics:  metrics,
		Logger:   slog.New(slog.NewJSONHandler(buf, nil)),
	})
	return d, buf
}

func dispatchDefault(d *Dispatcher) (*types.MessageReceipt, error) {
	return d.Dispatch(context.Background(), umbrella, "+15005550006", "+46701234567", "AC123", "token")
}

func TestDispatch_MissingCredentialsMakeNoCall(t *testing.T) {
	tests := []struct {
		name      string
		accountID string
		authToken types.SecretString
		sender    string
		recipient string
		message   string
		missing   []string
	}{
		{"empty account id", "", "token", "+1500", "+4670", umbrella, []string{"account ID"}},
		{"empty auth token", "AC123", "", "+1500", "+4670", umbrella, []string{"auth token"}},
		{"both credentials", "", "", "+1500", "+4670", umbrella, []string{"account ID", "auth token"}},
		{"empty sender", "AC123", "token", "", "+4670", umbrella, []string{"sender"}},
		{"empty recipient", "AC123", "token", "+1500", "", umbrella, []string{"recipient"}},
		{"empty message", "AC123", "token", "+1500", "+4670", "", []string{"message"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &mockSMSProvider{receipt: &types.MessageReceipt{ID: "SM1", Status: types.MessageStatusQueued}}
			metrics := &mockMetrics{}
			d, _ := newTestDispatcher(provider, metrics)

			receipt, err := d.Dispatch(context.Background(), tt.message, tt.sender, tt.recipient, tt.accountID, tt.authToken)
			assert.Nil(t, receipt)

			var appErr *types.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, types.ErrCodeConfigMissingCredential, appErr.Code)
			assert.Equal(t, types.CategoryConfiguration, appErr.Category())
			assert.Equal(t, tt.missing, appErr.Details["missing"])

			assert.Len(t, provider.calls, 0, "no provider call may be made")
			assert.Empty(t, metrics.results)
		})
	}
}

func TestDispatch_QueuedIsSuccess(t *testing.T) {
	provider := &mockSMSProvider{receipt: &types.MessageReceipt{ID: "SM123", Status: types.MessageStatusQueued}}
	metrics := &mockMetrics{}
	d, logs := newTestDispatcher(provider, metrics)

	receipt, err := dispatchDefault(d)
	require.NoError(t, err)

	assert.Equal(t, "SM123", receipt.ID)
	require.Len(t, provider.calls, 1)
	call := provider.calls[0]
	assert.Equal(t, "AC123", call.AccountID)
	assert.Equal(t, "token", call.AuthToken.Unmask())
	assert.Equal(t, "+15005550006", call.From)
	assert.Equal(t, "+46701234567", call.To)
	assert.Equal(t, umbrella, call.Body)

	assert.Equal(t, []core.MetricResult{core.MetricSuccess}, metrics.results)
	assert.Equal(t, 1, metrics.latencies)
	assert.Contains(t, logs.String(), "SMS sent successfully")
	assert.Contains(t, logs.String(), "SM123")
	assert.NotContains(t, logs.String(), "+46701234567", "recipient must be redacted")
}

func TestDispatch_AcceptanceSet(t *testing.T) {
	tests := []struct {
		status   types.MessageStatus
		accepted bool
	}{
		{types.MessageStatusAccepted, true},
		{types.MessageStatusScheduled, true},
		{types.MessageStatusQueued, true},
		{types.MessageStatusSending, true},
		{types.MessageStatusSent, true},
		{types.MessageStatusDelivered, true},
		{types.MessageStatusFailed, false},
		{types.MessageStatusUndelivered, false},
		{types.MessageStatusCanceled, false},
		{types.MessageStatusReceived, false},
		{types.MessageStatus(""), false},
		{types.MessageStatus("mystery"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			provider := &mockSMSProvider{receipt: &types.MessageReceipt{ID: "SM1", Status: tt.status}}
			d, _ := newTestDispatcher(provider, &mockMetrics{})

			_, err := dispatchDefault(d)
			if tt.accepted {
				assert.NoError(t, err)
			} else {
				assert.True(t, types.HasCategory(err, types.CategoryDispatch), "got %v", err)
			}
			assert.Len(t, provider.calls, 1)
		})
	}
}

func TestDispatch_FailedStatusIsDispatchError(t *testing.T) {
	provider := &mockSMSProvider{receipt: &types.MessageReceipt{
		ID:           "SM999",
		Status:       types.MessageStatusFailed,
		ErrorCode:    30003,
		ErrorMessage: "Unreachable destination handset",
	}}
	metrics := &mockMetrics{}
	d, logs := newTestDispatcher(provider, metrics)

	receipt, err := dispatchDefault(d)
	assert.Nil(t, receipt)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeDispatchRejected, appErr.Code)
	assert.Contains(t, appErr.Error(), "failed")
	assert.Contains(t, appErr.Error(), "30003")
	assert.Contains(t, appErr.Error(), "Unreachable destination handset")
	assert.Equal(t, "failed", appErr.Details["status"])

	assert.Equal(t, []core.MetricResult{core.MetricFailed}, metrics.results)
	assert.NotContains(t, logs.String(), "SMS sent successfully")
}

func TestDispatch_TransportFailure(t *testing.T) {
	transportErr := types.NewAppError(types.ErrCodeTransportMessaging, "upstream request timed out", context.DeadlineExceeded)
	provider := &mockSMSProvider{err: transportErr}
	metrics := &mockMetrics{}
	d, _ := newTestDispatcher(provider, metrics)

	_, err := dispatchDefault(d)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeDispatchFailed, appErr.Code)
	assert.Contains(t, appErr.Message, "timed out")
	assert.True(t, types.HasCategory(err, types.CategoryDispatch))
	assert.True(t, types.HasCategory(err, types.CategoryTransport))
	assert.ErrorIs(t, err, transportErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Len(t, provider.calls, 1)
	assert.Equal(t, []core.MetricResult{core.MetricFailed}, metrics.results)
}

func TestDispatch_NilReceipt(t *testing.T) {
	provider := &mockSMSProvider{}
	d, _ := newTestDispatcher(provider, &mockMetrics{})

	_, err := dispatchDefault(d)
	assert.True(t, types.HasCategory(err, types.CategoryDispatch))
}

func TestDispatch_DefaultMetrics(t *testing.T) {
	provider := &mockSMSProvider{receipt: &types.MessageReceipt{ID: "SM1", Status: types.MessageStatusSent}}
	d := NewDispatcher(DispatcherConfig{Provider: provider})

	_, err := dispatchDefault(d)
	require.NoError(t, err)
	assert.Equal(t, types.ChannelSMS, d.Type())
}
