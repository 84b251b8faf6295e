package alerts

import (
	"errors"
	"net/http"
)

// Domain errors for alert operations.
var (
	ErrNotFound        = errors.New("alert not found")
	ErrDuplicate       = errors.New("alert already raised for this pattern today")
	ErrInvalidSeverity = errors.New("invalid severity")
	ErrInvalidPattern  = errors.New("invalid pattern definition")
)

// MapHTTPStatus maps alert domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidSeverity) || errors.Is(err, ErrInvalidPattern) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
