package orgs

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/mimamori/mimamori/pkg/handlers"
	"github.com/mimamori/mimamori/pkg/routes"
)

// Handler provides HTTP endpoints for organization settings.
type Handler struct {
	sys    System
	logger *slog.Logger
}

func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "orgs"),
	}
}

// Routes returns the route group definition for settings endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/settings",
		Routes: []routes.Route{
			{Method: "PUT", Pattern: "/alert-schedule", Handler: h.UpdateAlertSchedule},
			{Method: "PUT", Pattern: "/morning-scan-time", Handler: h.UpdateMorningScanTime},
		},
	}
}

func (h *Handler) orgID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(r.URL.Query().Get("org_id"))
}

// UpdateAlertSchedule replaces the org's alert scan slots. Requires the
// org_id query parameter.
func (h *Handler) UpdateAlertSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := h.orgID(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	var cmd UpdateScheduleCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	o, err := h.sys.UpdateAlertSchedule(r.Context(), id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"alert_scan_times": o.AlertScanTimes,
	})
}

// UpdateMorningScanTime replaces the org's morning digest slot. Requires
// the org_id query parameter.
func (h *Handler) UpdateMorningScanTime(w http.ResponseWriter, r *http.Request) {
	id, err := h.orgID(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	var cmd UpdateMorningCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	o, err := h.sys.UpdateMorningScanTime(r.Context(), id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"morning_scan_time": o.MorningScanTime,
	})
}
