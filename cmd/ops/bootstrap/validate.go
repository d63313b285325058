package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"rainalert/internal/external"
	"rainalert/internal/types"
)

// ValidationResult holds the outcome of a validation check.
type ValidationResult struct {
	Valid bool

	// Message is shown to the operator. On success it describes what was
	// verified; on failure, why the input was refused.
	Message string
}

// AccountFetcher looks up a Twilio account with a credential pair.
// Implemented by external.TwilioClient.
type AccountFetcher interface {
	FetchAccount(ctx context.Context, accountID string, authToken types.SecretString) (*external.TwilioAccount, error)
}

// Validator checks operator input, probing the live provider where a
// credential can be verified.
type Validator struct {
	weather  external.ForecastProvider
	accounts AccountFetcher
	location types.Coordinates
}

// validateTimeout bounds each live probe.
const validateTimeout = 15 * time.Second

var (
	owmKeyPattern    = regexp.MustCompile(`^[0-9a-f]{32}$`)
	twilioSIDPattern = regexp.MustCompile(`^AC[0-9a-fA-F]{32}$`)
	twilioTokPattern = regexp.MustCompile(`^[0-9a-fA-F]{32}$`)
	e164Pattern      = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)
)

// NewValidator creates a Validator backed by the real provider clients.
// The forecast probe asks for a single entry at location.
func NewValidator(location types.Coordinates) *Validator {
	httpClient := &http.Client{Timeout: 10 * time.Second}
	return NewValidatorWithDeps(
		external.NewOpenWeatherClient(httpClient, external.OpenWeatherClientConfig{UserAgent: "RainAlert-Bootstrap/1.0"}),
		external.NewTwilioClient(httpClient, external.TwilioClientConfig{UserAgent: "RainAlert-Bootstrap/1.0"}),
		location,
	)
}

// NewValidatorWithDeps creates a Validator with injected provider clients.
func NewValidatorWithDeps(weather external.ForecastProvider, accounts AccountFetcher, location types.Coordinates) *Validator {
	return &Validator{
		weather:  weather,
		accounts: accounts,
		location: location,
	}
}

// ValidateOWMKey checks the key format, then fetches one forecast entry
// with it.
func (v *Validator) ValidateOWMKey(ctx context.Context, key string) ValidationResult {
	key = strings.TrimSpace(key)
	if !owmKeyPattern.MatchString(key) {
		return ValidationResult{Message: "OpenWeatherMap API keys are 32 lowercase hex characters"}
	}

	probeCtx, cancel := context.WithTimeout(ctx, validateTimeout)
	defer cancel()

	window, err := v.weather.FetchForecast(probeCtx, v.location, types.SecretString(key), 1)
	if err != nil {
		return ValidationResult{Message: fmt.Sprintf("OpenWeatherMap rejected the key: %s", describeProviderError(err))}
	}
	return ValidationResult{
		Valid:   true,
		Message: fmt.Sprintf("OpenWeatherMap key verified (%d forecast entry returned)", window.Len()),
	}
}

// ValidateTwilioSID checks the account SID format. SIDs are not secret and
// are verified together with the auth token.
func (v *Validator) ValidateTwilioSID(_ context.Context, sid string) ValidationResult {
	sid = strings.TrimSpace(sid)
	if !twilioSIDPattern.MatchString(sid) {
		return ValidationResult{Message: "Twilio account SIDs are \"AC\" followed by 32 hex characters"}
	}
	return ValidationResult{Valid: true, Message: "account SID format ok"}
}

// ValidateTwilioAuthToken checks the token format, then reads the account
// with the sid/token pair. The account must be active.
func (v *Validator) ValidateTwilioAuthToken(ctx context.Context, sid, token string) ValidationResult {
	token = strings.TrimSpace(token)
	if !twilioTokPattern.MatchString(token) {
		return ValidationResult{Message: "Twilio auth tokens are 32 hex characters"}
	}
	if sid == "" {
		return ValidationResult{Message: "the account SID is not known yet; store it first"}
	}

	probeCtx, cancel := context.WithTimeout(ctx, validateTimeout)
	defer cancel()

	account, err := v.accounts.FetchAccount(probeCtx, sid, types.SecretString(token))
	if err != nil {
		return ValidationResult{Message: fmt.Sprintf("Twilio rejected the credentials: %s", describeProviderError(err))}
	}
	if account.Status != "active" {
		return ValidationResult{Message: fmt.Sprintf("Twilio account %s is %q, not active", sid, account.Status)}
	}
	return ValidationResult{
		Valid:   true,
		Message: fmt.Sprintf("Twilio account verified: %s", account.FriendlyName),
	}
}

// ValidatePhoneNumber checks that number is in E.164 form.
func (v *Validator) ValidatePhoneNumber(_ context.Context, number, fieldName string) ValidationResult {
	number = strings.TrimSpace(number)
	if !e164Pattern.MatchString(number) {
		return ValidationResult{Message: fmt.Sprintf("%s must be in E.164 form, e.g. +46701234567", fieldName)}
	}
	return ValidationResult{Valid: true, Message: fmt.Sprintf("%s format ok", fieldName)}
}

// describeProviderError renders the provider status when there is one.
func describeProviderError(err error) string {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		if status, ok := appErr.Details["status"]; ok {
			return fmt.Sprintf("status %v (%s)", status, appErr.Code)
		}
		return string(appErr.Code)
	}
	return err.Error()
}
