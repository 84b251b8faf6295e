package reports

import (
	"errors"
	"net/http"

	"github.com/mimamori/mimamori/internal/bps"
	"github.com/mimamori/mimamori/pkg/storage"
)

// Domain errors for report operations.
var (
	ErrNotFound     = errors.New("report not found")
	ErrFileNotFound = errors.New("report file not found")
	ErrDuplicate    = errors.New("report already exists")
	ErrEmptyText    = errors.New("report text must not be empty")
)

// MapHTTPStatus maps report domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrFileNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrEmptyText) || errors.Is(err, bps.ErrEmptyText) {
		return http.StatusBadRequest
	}
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrEmptyKey) || errors.Is(err, storage.ErrInvalidKey) {
		return storage.MapHTTPStatus(err)
	}
	return http.StatusInternalServerError
}
