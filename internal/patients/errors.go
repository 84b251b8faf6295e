package patients

import (
	"errors"
	"net/http"
)

// Domain errors for patient operations.
var (
	ErrNotFound      = errors.New("patient not found")
	ErrDuplicate     = errors.New("patient already exists")
	ErrInvalidStatus = errors.New("invalid patient status")
	ErrNameRequired  = errors.New("patient name is required")
)

// MapHTTPStatus maps patient domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidStatus) || errors.Is(err, ErrNameRequired) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
