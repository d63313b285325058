package external

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"rainalert/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAccountSID = "AC00000000000000000000000000000000"

// capturedMessage records what the fake Twilio endpoint received.
type capturedMessage struct {
	method  string
	path    string
	user    string
	pass    string
	hasAuth bool
	form    url.Values
	traceID string
	calls   int
}

func newTwilioServer(t *testing.T, status int, body string) (*httptest.Server, *capturedMessage) {
	t.Helper()
	captured := &capturedMessage{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.calls++
		captured.method = r.Method
		captured.path = r.URL.Path
		captured.user, captured.pass, captured.hasAuth = r.BasicAuth()
		captured.traceID = r.Header.Get("X-B3-TraceId")
		if err := r.ParseForm(); err == nil {
			captured.form = r.PostForm
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, captured
}

func newTestTwilioClient(serverURL string) *TwilioClient {
	return NewTwilioClient(
		&http.Client{Timeout: 5 * time.Second},
		TwilioClientConfig{BaseURL: serverURL, UserAgent: "RainAlert-Test/1.0"},
	)
}

func testSMSInput() types.SMSInput {
	return types.SMSInput{
		AccountID: testAccountSID,
		AuthToken: "twilio-token",
		From:      "+15005550006",
		To:        "+46700000000",
		Body:      "It's going to rain today. Remember to bring an umbrella ☔️",
	}
}

func TestCreateMessage_Success(t *testing.T) {
	server, captured := newTwilioServer(t, http.StatusCreated, `{
		"sid": "SM1234567890abcdef1234567890abcdef",
		"status": "queued",
		"error_code": null,
		"error_message": null
	}`)
	client := newTestTwilioClient(server.URL)

	ctx := types.WithRunID(context.Background(), "run-1")
	receipt, err := client.CreateMessage(ctx, testSMSInput())
	require.NoError(t, err)

	assert.Equal(t, "SM1234567890abcdef1234567890abcdef", receipt.ID)
	assert.Equal(t, types.MessageStatusQueued, receipt.Status)
	assert.Zero(t, receipt.ErrorCode)
	assert.Empty(t, receipt.ErrorMessage)

	assert.Equal(t, 1, captured.calls)
	assert.Equal(t, http.MethodPost, captured.method)
	assert.Equal(t, "/2010-04-01/Accounts/"+testAccountSID+"/Messages.json", captured.path)
	require.True(t, captured.hasAuth)
	assert.Equal(t, testAccountSID, captured.user)
	assert.Equal(t, "twilio-token", captured.pass)
	assert.Equal(t, "+46700000000", captured.form.Get("To"))
	assert.Equal(t, "+15005550006", captured.form.Get("From"))
	assert.Equal(t, "It's going to rain today. Remember to bring an umbrella ☔️", captured.form.Get("Body"))
	assert.Equal(t, "run-1", captured.traceID)
}

func TestCreateMessage_ReturnsStatusUnjudged(t *testing.T) {
	server, _ := newTwilioServer(t, http.StatusCreated, `{
		"sid": "SMfailed",
		"status": "failed",
		"error_code": 30003,
		"error_message": "Unreachable destination handset"
	}`)
	client := newTestTwilioClient(server.URL)

	receipt, err := client.CreateMessage(context.Background(), testSMSInput())
	require.NoError(t, err)

	assert.Equal(t, types.MessageStatusFailed, receipt.Status)
	assert.Equal(t, 30003, receipt.ErrorCode)
	assert.Equal(t, "Unreachable destination handset", receipt.ErrorMessage)
}

func TestCreateMessage_ProviderRejection(t *testing.T) {
	body := `{"code": 21211, "message": "The 'To' number +4670 is not a valid phone number.", "more_info": "https://www.twilio.com/docs/errors/21211", "status": 400}`
	server, captured := newTwilioServer(t, http.StatusBadRequest, body)
	client := newTestTwilioClient(server.URL)

	receipt, err := client.CreateMessage(context.Background(), testSMSInput())
	assert.Nil(t, receipt)

	appErr := requireAppError(t, err)
	assert.Equal(t, types.ErrCodeTransportMessaging, appErr.Code)
	assert.Equal(t, http.StatusBadRequest, appErr.Details["status"])
	assert.Equal(t, 21211, appErr.Details["provider_code"])
	assert.Contains(t, appErr.Details["provider_message"], "not a valid phone number")
	assert.Equal(t, 1, captured.calls)
}

func TestCreateMessage_AuthFailure(t *testing.T) {
	server, _ := newTwilioServer(t, http.StatusUnauthorized, `{"code": 20003, "message": "Authenticate", "more_info": "https://www.twilio.com/docs/errors/20003", "status": 401}`)
	client := newTestTwilioClient(server.URL)

	_, err := client.CreateMessage(context.Background(), testSMSInput())

	appErr := requireAppError(t, err)
	assert.Equal(t, types.CategoryTransport, appErr.Category())
	assert.Equal(t, 20003, appErr.Details["provider_code"])
}

func TestCreateMessage_ServerError(t *testing.T) {
	server, captured := newTwilioServer(t, http.StatusServiceUnavailable, `{"code": 20500, "message": "Internal Server Error", "status": 503}`)
	client := newTestTwilioClient(server.URL)

	_, err := client.CreateMessage(context.Background(), testSMSInput())

	appErr := requireAppError(t, err)
	assert.Equal(t, types.ErrCodeTransportMessaging, appErr.Code)
	assert.Equal(t, http.StatusServiceUnavailable, appErr.Details["status"])
	assert.Equal(t, 1, captured.calls, "no retries")
}

func TestCreateMessage_UnreadableSuccessBody(t *testing.T) {
	server, _ := newTwilioServer(t, http.StatusCreated, `not json`)
	client := newTestTwilioClient(server.URL)

	_, err := client.CreateMessage(context.Background(), testSMSInput())

	appErr := requireAppError(t, err)
	assert.Equal(t, types.ErrCodeTransportMessaging, appErr.Code)
	assert.Equal(t, "not json", appErr.Details["body"])
}

func TestFetchAccount_Success(t *testing.T) {
	server, captured := newTwilioServer(t, http.StatusOK, `{
		"sid": "AC00000000000000000000000000000000",
		"friendly_name": "Rain Alert",
		"status": "active"
	}`)
	client := newTestTwilioClient(server.URL)

	account, err := client.FetchAccount(context.Background(), testAccountSID, "twilio-token")
	require.NoError(t, err)

	assert.Equal(t, "active", account.Status)
	assert.Equal(t, "Rain Alert", account.FriendlyName)
	assert.Equal(t, http.MethodGet, captured.method)
	assert.Equal(t, "/2010-04-01/Accounts/"+testAccountSID+".json", captured.path)
	assert.Equal(t, testAccountSID, captured.user)
	assert.Equal(t, "twilio-token", captured.pass)
}

func TestFetchAccount_WrongToken(t *testing.T) {
	server, _ := newTwilioServer(t, http.StatusUnauthorized, `{"code": 20003, "message": "Authenticate", "status": 401}`)
	client := newTestTwilioClient(server.URL)

	account, err := client.FetchAccount(context.Background(), testAccountSID, "wrong")
	assert.Nil(t, account)

	appErr := requireAppError(t, err)
	assert.Equal(t, types.ErrCodeTransportMessaging, appErr.Code)
	assert.Equal(t, http.StatusUnauthorized, appErr.Details["status"])
}
