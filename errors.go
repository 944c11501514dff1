package session

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeValidationFailed  = "VALIDATION_FAILED"
	textCodeAuthExpired       = "AUTH_EXPIRED"
	textCodeMalformedResponse = "MALFORMED_RESPONSE"
	textCodeNetworkFailure    = "NETWORK_FAILURE"
)

// ErrNoCredentials is the error we return when the store holds no record
var ErrNoCredentials = errors.New("no stored credentials")

// ErrNotAuthenticated is the error for operations that need a live session
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrAuthExpired is returned when a 401 could not be cured by one refresh.
var ErrAuthExpired = goerrors.New("authentication expired", goerrors.CategoryAuth).
	WithTextCode(textCodeAuthExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrMalformedResponse is returned when a success response is missing the
// expected identifying fields.
var ErrMalformedResponse = goerrors.New("malformed backend response", goerrors.CategoryInternal).
	WithTextCode(textCodeMalformedResponse).
	WithCode(goerrors.CodeInternal)

// newValidationError carries the backend's rejection message verbatim; the
// UI layer displays it without parsing.
func newValidationError(message string) *goerrors.Error {
	if message == "" {
		message = "request rejected"
	}
	return goerrors.New(message, goerrors.CategoryValidation).
		WithTextCode(textCodeValidationFailed).
		WithCode(goerrors.CodeBadRequest)
}

// wrapNetworkError marks a transport-level failure where no response was
// received.
func wrapNetworkError(err error) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, "network failure").
		WithTextCode(textCodeNetworkFailure).
		WithCode(goerrors.CodeInternal)
}

func hasTextCode(err error, textCode string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == textCode
}

// IsValidationError will check for backend-rejected input
func IsValidationError(err error) bool {
	return hasTextCode(err, textCodeValidationFailed)
}

// IsAuthExpiredError will check for an unrecoverable 401
func IsAuthExpiredError(err error) bool {
	return hasTextCode(err, textCodeAuthExpired)
}

// IsMalformedResponseError will check for unrecognized response shapes
func IsMalformedResponseError(err error) bool {
	return hasTextCode(err, textCodeMalformedResponse)
}

// IsNetworkError will check for transport-level failures
func IsNetworkError(err error) bool {
	return hasTextCode(err, textCodeNetworkFailure)
}
