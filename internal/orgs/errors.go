package orgs

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound    = errors.New("organization not found")
	ErrInvalidTime = errors.New("scan time must be HH:MM")
	ErrNoScanTimes = errors.New("at least one scan time is required")
)

// MapHTTPStatus translates organization errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidTime), errors.Is(err, ErrNoScanTimes):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
