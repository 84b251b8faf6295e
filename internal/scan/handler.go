package scan

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/mimamori/mimamori/pkg/handlers"
	"github.com/mimamori/mimamori/pkg/routes"
)

// Handler provides HTTP endpoints for on-demand scans.
type Handler struct {
	sys    System
	logger *slog.Logger
}

func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "scan"),
	}
}

// Routes returns the route group definition for scan endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/alerts/scan",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.ScanAll},
			{Method: "POST", Pattern: "/{patientId}", Handler: h.ScanPatient},
		},
	}
}

// ScanAll scans an organization's active patients. Requires the org_id
// query parameter; lookback_days optionally widens the report window.
func (h *Handler) ScanAll(w http.ResponseWriter, r *http.Request) {
	orgID, err := uuid.Parse(r.URL.Query().Get("org_id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	lookbackDays := 0
	if v := r.URL.Query().Get("lookback_days"); v != "" {
		lookbackDays, err = strconv.Atoi(v)
		if err != nil || lookbackDays < 0 {
			handlers.RespondError(w, h.logger, http.StatusBadRequest,
				fmt.Errorf("invalid lookback_days: %q", v))
			return
		}
	}

	result, err := h.sys.ScanAll(r.Context(), orgID, lookbackDays)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// ScanPatient scans a single patient by UUID path parameter.
func (h *Handler) ScanPatient(w http.ResponseWriter, r *http.Request) {
	patientID, err := uuid.Parse(r.PathValue("patientId"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrPatientNotFound)
		return
	}

	result, err := h.sys.ScanPatient(r.Context(), patientID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
