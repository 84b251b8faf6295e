package alerts

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/mimamori/mimamori/pkg/handlers"
	"github.com/mimamori/mimamori/pkg/pagination"
	"github.com/mimamori/mimamori/pkg/routes"
)

// Handler provides HTTP endpoints for alert operations.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "alerts"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for alert endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/alerts",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/stats", Handler: h.Stats},
			{Method: "GET", Pattern: "/patterns", Handler: h.Patterns},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "/{id}/acknowledge", Handler: h.Acknowledge},
		},
	}
}

// List returns a paginated list of alerts with optional query parameter filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Stats returns alert counts for the org_id query parameter.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	orgID, err := uuid.Parse(r.URL.Query().Get("org_id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errors.New("org_id required"))
		return
	}

	stats, err := h.sys.Stats(r.Context(), orgID)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, stats)
}

// Patterns returns the active pattern catalog.
func (h *Handler) Patterns(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.sys.Catalog().Patterns())
}

// Find returns a single alert by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	a, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, a)
}

// Acknowledge marks an alert as acknowledged. The acknowledger comes from
// the JSON body or the acknowledged_by query parameter. Repeated calls succeed.
func (h *Handler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	var cmd AcknowledgeCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		cmd.AcknowledgedBy = ""
	}
	if cmd.AcknowledgedBy == "" {
		cmd.AcknowledgedBy = r.URL.Query().Get("acknowledged_by")
	}
	if cmd.AcknowledgedBy == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errors.New("acknowledged_by required"))
		return
	}

	a, err := h.sys.Acknowledge(r.Context(), id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, a)
}
