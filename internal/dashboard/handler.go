package dashboard

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/mimamori/mimamori/pkg/handlers"
	"github.com/mimamori/mimamori/pkg/routes"
)

// Handler provides HTTP endpoints for dashboard reads.
type Handler struct {
	sys    System
	logger *slog.Logger
}

func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "dashboard"),
	}
}

// Routes returns the route group definition for dashboard endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/dashboard",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/night-summary", Handler: h.NightSummary},
			{Method: "GET", Pattern: "/stats", Handler: h.Stats},
		},
	}
}

// NightSummary returns overnight activity. Requires the org_id query
// parameter; hours optionally widens the window.
func (h *Handler) NightSummary(w http.ResponseWriter, r *http.Request) {
	orgID, err := uuid.Parse(r.URL.Query().Get("org_id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	hours := 0
	if v := r.URL.Query().Get("hours"); v != "" {
		hours, err = strconv.Atoi(v)
		if err != nil || hours < 0 {
			handlers.RespondError(w, h.logger, http.StatusBadRequest,
				fmt.Errorf("invalid hours: %q", v))
			return
		}
	}

	summary, err := h.sys.NightSummary(r.Context(), orgID, hours)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, summary)
}

// Stats returns organization-wide headline counts. Requires the org_id
// query parameter.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	orgID, err := uuid.Parse(r.URL.Query().Get("org_id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	stats, err := h.sys.Stats(r.Context(), orgID)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, stats)
}
