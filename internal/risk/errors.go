package risk

import (
	"errors"
	"net/http"
)

// Domain errors for risk operations.
var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrInvalidLevel    = errors.New("invalid risk level")
	ErrChainConflict   = errors.New("risk history chain conflict")
)

// MapHTTPStatus maps risk domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrPatientNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidLevel) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrChainConflict) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
