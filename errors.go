package netatmo

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the Netatmo client.
// All errors are defined here for easy discovery and consistent organization.
var (
	// Authentication errors
	ErrUnauthorized  = errors.New("netatmo: unauthorized (invalid or expired session)")
	ErrEmptyUsername = errors.New("netatmo: username cannot be empty")
	ErrEmptyPassword = errors.New("netatmo: password cannot be empty")

	// Resource errors
	ErrNotFound = errors.New("netatmo: resource not found")

	// Rate limiting
	ErrRateLimited = errors.New("netatmo: rate limited (too many requests)")

	// Input validation errors
	ErrEmptyHomeID   = errors.New("netatmo: home ID cannot be empty")
	ErrEmptyRoomID   = errors.New("netatmo: room ID cannot be empty")
	ErrEmptyRoomName = errors.New("netatmo: room name cannot be empty")
)

// APIError represents an error response from the Netatmo API.
type APIError struct {
	StatusCode int
	Message    string
	Code       int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("netatmo: API error HTTP %d: %s (code: %d)", e.StatusCode, e.Message, e.Code)
	}
	return fmt.Sprintf("netatmo: API error HTTP %d: %s", e.StatusCode, e.Message)
}

// AuthError represents a failed login handshake or an exhausted
// session-refresh retry. It is a hard failure: the caller needs new
// credentials or operator intervention, not another retry.
type AuthError struct {
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("netatmo: authentication failed: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("netatmo: authentication failed: %s", e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// ValidationError reports caller input that failed validation before any
// network call was made.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("netatmo: invalid %s: %s", e.Field, e.Message)
}

// RoomNotFoundError indicates the requested room does not exist in the home,
// or reported no measured temperature.
type RoomNotFoundError struct {
	RoomID string
}

// Error implements the error interface.
func (e *RoomNotFoundError) Error() string {
	return fmt.Sprintf("netatmo: room %q not found", e.RoomID)
}

// HomeNotFoundError indicates the requested home does not exist, or the
// account has no homes at all.
type HomeNotFoundError struct {
	HomeID string
}

// Error implements the error interface.
func (e *HomeNotFoundError) Error() string {
	if e.HomeID == "" {
		return "netatmo: no homes found for account"
	}
	return fmt.Sprintf("netatmo: home %q not found", e.HomeID)
}

// IsUnauthorized returns true if the error indicates a rejected credential.
func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrUnauthorized) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401 || apiErr.StatusCode == 403
	}
	return false
}

// IsAuthenticationError returns true if the error is a hard authentication
// failure (failed login handshake or exhausted session-refresh retry).
func IsAuthenticationError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsValidationError returns true if the error reports invalid caller input.
func IsValidationError(err error) bool {
	if errors.Is(err, ErrEmptyHomeID) || errors.Is(err, ErrEmptyRoomID) || errors.Is(err, ErrEmptyRoomName) {
		return true
	}
	var valErr *ValidationError
	return errors.As(err, &valErr)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	var roomErr *RoomNotFoundError
	if errors.As(err, &roomErr) {
		return true
	}
	var homeErr *HomeNotFoundError
	return errors.As(err, &homeErr)
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// IsTimeout returns true if the error indicates a timeout.
func IsTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
