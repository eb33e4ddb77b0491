package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// =============================================================================
// Predefined Error Values
// =============================================================================

var (
	ErrRateLimited  = errors.New("rate limited")
	ErrTimeout      = errors.New("operation timed out")
	ErrNetworkError = errors.New("network error")
	ErrServerError  = errors.New("server error")
	ErrNoAPIKey     = errors.New("API key not configured")
	ErrInvalidInput = errors.New("invalid input")

	// ErrModeRejected indicates the upstream rejected a request parameter
	// (such as a translation tone mode) rather than the request itself.
	ErrModeRejected = errors.New("mode parameter rejected")

	// ErrTextTooLong indicates the upstream refused the payload for size.
	ErrTextTooLong = errors.New("text exceeds upstream limit")
)

// BackendError carries the HTTP status and body of a failed upstream call so
// callers can distinguish parameter rejections from hard failures.
type BackendError struct {
	Op     string
	Status int
	Body   string
	Cause  error
}

func (e *BackendError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s failed (status %d): %s", e.Op, e.Status, e.Body)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Cause)
}

func (e *BackendError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	switch {
	case e.Status == http.StatusTooManyRequests:
		return ErrRateLimited
	case e.Status == http.StatusRequestEntityTooLarge:
		return ErrTextTooLong
	case e.Status == http.StatusBadRequest && mentionsMode(e.Body):
		return ErrModeRejected
	case e.Status >= 500:
		return ErrServerError
	}
	return nil
}

func mentionsMode(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "mode") || strings.Contains(lower, "tone") ||
		strings.Contains(lower, "unsupported parameter")
}

// NewBackendError builds a BackendError from an HTTP response.
func NewBackendError(op string, status int, body string) *BackendError {
	return &BackendError{Op: op, Status: status, Body: body}
}

// WrapBackendError builds a BackendError from a transport-level failure.
func WrapBackendError(op string, cause error) *BackendError {
	return &BackendError{Op: op, Cause: cause}
}

// =============================================================================
// Error Classification Functions
// =============================================================================

// IsRetryable determines if an error is worth retrying against the same
// endpoint with the same parameters.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrNetworkError) ||
		errors.Is(err, ErrServerError)
}

// IsModeRejection reports whether the upstream rejected a specific request
// parameter. Such failures are recovered by changing the parameter, never by
// resending the same request.
func IsModeRejection(err error) bool {
	return errors.Is(err, ErrModeRejected)
}

// IsCapacity reports whether the upstream refused the payload for size,
// which is recovered by chunking the input.
func IsCapacity(err error) bool {
	return errors.Is(err, ErrTextTooLong)
}

// IsTerminal determines if an error cannot be recovered by retry, parameter
// change, or chunking.
func IsTerminal(err error) bool {
	if err == nil {
		return false
	}
	if IsRetryable(err) || IsModeRejection(err) || IsCapacity(err) {
		return false
	}
	return true
}
