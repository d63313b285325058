package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Complete error code constants.
// The prefix of each code determines its ErrorCategory.
const (
	// Configuration
	ErrCodeConfigMissingCredential ErrorCode = "config_missing_credential"
	ErrCodeConfigInvalidLocation   ErrorCode = "config_invalid_location"
	ErrCodeConfigInvalidCount      ErrorCode = "config_invalid_forecast_count"
	ErrCodeConfigLoad              ErrorCode = "config_load_failed"

	// Transport (connectivity, timeouts, non-success HTTP status)
	ErrCodeTransportForecast    ErrorCode = "transport_forecast_unavailable"
	ErrCodeTransportMessaging   ErrorCode = "transport_messaging_unavailable"
	ErrCodeTransportRateLimited ErrorCode = "transport_rate_limited"
	ErrCodeTransportCircuitOpen ErrorCode = "transport_circuit_open"

	// Malformed provider responses
	ErrCodeMalformedForecast ErrorCode = "malformed_forecast_response"

	// Dispatch
	ErrCodeDispatchRejected ErrorCode = "dispatch_rejected"
	ErrCodeDispatchFailed   ErrorCode = "dispatch_failed"

	// Internal
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
)

// ErrorCategory groups error codes into the failure classes reported to the
// operator. Each category maps to a process exit code.
type ErrorCategory string

const (
	CategoryConfiguration     ErrorCategory = "configuration"
	CategoryTransport         ErrorCategory = "transport"
	CategoryMalformedResponse ErrorCategory = "malformed_response"
	CategoryDispatch          ErrorCategory = "dispatch"
	CategoryInternal          ErrorCategory = "internal"
)

// Exit codes follow sysexits(3).
const (
	ExitConfig      = 78 // EX_CONFIG
	ExitUnavailable = 69 // EX_UNAVAILABLE
	ExitProtocol    = 76 // EX_PROTOCOL
	ExitTempFail    = 75 // EX_TEMPFAIL
	ExitSoftware    = 70 // EX_SOFTWARE
)

// Category maps an ErrorCode to its ErrorCategory by prefix.
// Returns CategoryInternal for unrecognized codes.
func (c ErrorCode) Category() ErrorCategory {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "config_"):
		return CategoryConfiguration
	case strings.HasPrefix(s, "transport_"):
		return CategoryTransport
	case strings.HasPrefix(s, "malformed_"):
		return CategoryMalformedResponse
	case strings.HasPrefix(s, "dispatch_"):
		return CategoryDispatch
	default:
		return CategoryInternal
	}
}

// ExitCode maps an ErrorCode to the process exit code used by the CLI.
func (c ErrorCode) ExitCode() int {
	switch c.Category() {
	case CategoryConfiguration:
		return ExitConfig
	case CategoryTransport:
		return ExitUnavailable
	case CategoryMalformedResponse:
		return ExitProtocol
	case CategoryDispatch:
		return ExitTempFail
	default:
		return ExitSoftware
	}
}

// AppError is the standard application error type.
// Every pipeline stage expresses its failures as AppError so the entry point
// can report the failing stage and pick an exit code.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Category returns the category of this error's code.
func (e *AppError) Category() ErrorCategory {
	return e.Code.Category()
}

// ExitCode returns the process exit code for this error's code.
func (e *AppError) ExitCode() int {
	return e.Code.ExitCode()
}

// WithDetails returns a copy of the error with the provided details merged in.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     e.Err,
		Details: merged,
	}
}

// NewAppError creates a new AppError with the given code, message, and optional
// underlying error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewAppErrorWithDetails creates a new AppError with the given code, message,
// underlying error, and structured details.
func NewAppErrorWithDetails(code ErrorCode, message string, err error, details map[string]any) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: details,
	}
}

// HasCategory reports whether any AppError in err's chain belongs to cat.
// Unlike errors.As, it does not stop at the outermost AppError, so a dispatch
// failure caused by a transport failure matches both categories.
func HasCategory(err error, cat ErrorCategory) bool {
	for err != nil {
		var appErr *AppError
		if !errors.As(err, &appErr) {
			return false
		}
		if appErr.Category() == cat {
			return true
		}
		err = appErr.Err
	}
	return false
}

// ExitCodeFor returns the exit code for the outermost AppError in err's chain,
// ExitSoftware for any other non-nil error, and 0 for nil.
func ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ExitCode()
	}
	return ExitSoftware
}
