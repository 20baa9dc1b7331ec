package handlers

import (
	"errors"
	"net/http"

	"smartchat-backend/internal/services"
	"smartchat-backend/internal/store"
)

// statusFor maps service errors onto HTTP status codes. Validation failures
// are the client's fault, session-store failures are a dependency outage,
// everything from the provider is a plain upstream failure except rate
// limits, which get their own status so clients can back off.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrSessionUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrProviderRateLimit):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
