package scan

import (
	"errors"
	"net/http"

	"github.com/mimamori/mimamori/internal/patients"
)

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrDetectFailed    = errors.New("pattern detection failed")
	ErrAssessFailed    = errors.New("agent assessment failed")
	ErrFinalizeFailed  = errors.New("scan finalize failed")
)

// MapHTTPStatus translates scan errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrPatientNotFound), errors.Is(err, patients.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
