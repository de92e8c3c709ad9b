package lookup

import (
	"errors"
	"fmt"
)

// Common errors returned by the lookup client.
var (
	// ErrNotFound indicates the identifier is unknown to the service.
	ErrNotFound = errors.New("identifier not found")

	// ErrRateLimited indicates the service refused the request for rate limiting.
	ErrRateLimited = errors.New("lookup rate limit exceeded")

	// ErrAPIError indicates a general service error.
	ErrAPIError = errors.New("lookup service error")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error during lookup")

	// ErrInvalidID indicates a malformed DOI or ISBN.
	ErrInvalidID = errors.New("invalid identifier")
)

// APIError represents an unexpected HTTP status from a lookup service.
type APIError struct {
	StatusCode int
	Service    string
	ID         string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s error (status %d) for %s", e.Service, e.StatusCode, e.ID)
}

// Unwrap lets errors.Is match ErrAPIError.
func (e *APIError) Unwrap() error { return ErrAPIError }

// IsNotFound returns true if the error indicates the identifier was not found.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
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
