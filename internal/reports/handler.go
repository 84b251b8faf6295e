package reports

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/mimamori/mimamori/pkg/handlers"
	"github.com/mimamori/mimamori/pkg/pagination"
	"github.com/mimamori/mimamori/pkg/routes"
)

// Handler provides HTTP endpoints for report operations.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
	maxUpload  int64
}

// NewHandler creates a Handler with the given system, logger, pagination
// config, and upload size limit.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxUpload int64,
) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "reports"),
		pagination: pagination,
		maxUpload:  maxUpload,
	}
}

// Routes returns the route group definition for report endpoints. Report
// routes nest under the patient resource; downloads address files directly.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "",
		Children: []routes.Group{
			{
				Prefix: "/patients",
				Routes: []routes.Route{
					{Method: "POST", Pattern: "/{id}/reports", Handler: h.Ingest},
					{Method: "GET", Pattern: "/{id}/reports", Handler: h.List},
					{Method: "GET", Pattern: "/{id}/context", Handler: h.Context},
					{Method: "POST", Pattern: "/{id}/reports/{reportId}/acknowledge", Handler: h.Acknowledge},
					{Method: "POST", Pattern: "/{id}/reports/{reportId}/reclassify", Handler: h.Reclassify},
					{Method: "POST", Pattern: "/{id}/reports/{reportId}/files", Handler: h.UploadFile},
					{Method: "GET", Pattern: "/{id}/reports/{reportId}/files", Handler: h.ListFiles},
				},
			},
			{
				Prefix: "/files",
				Routes: []routes.Route{
					{Method: "GET", Pattern: "/{id}/download", Handler: h.DownloadFile},
				},
			},
		},
	}
}

// Ingest stores a new report for the patient identified by the id path
// parameter. Returns 201 with the stored report, classified when possible.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	patientID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	var cmd IngestCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	report, err := h.sys.Ingest(r.Context(), patientID, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, report)
}

// List returns a patient's reports, newest first. Supports a limit query parameter.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	patientID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	reports, err := h.sys.List(r.Context(), patientID, limit)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, reports)
}

// Context returns the patient's rolling BPS context.
func (h *Handler) Context(w http.ResponseWriter, r *http.Request) {
	patientID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	c, err := h.sys.Context(r.Context(), patientID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, c)
}

// Acknowledge marks a report as acknowledged. The acknowledger comes from
// the JSON body or the acknowledged_by query parameter. Repeated calls succeed.
func (h *Handler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	reportID, err := uuid.Parse(r.PathValue("reportId"))
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

	report, err := h.sys.Acknowledge(r.Context(), reportID, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, report)
}

// Reclassify re-runs classification on a stored report.
func (h *Handler) Reclassify(w http.ResponseWriter, r *http.Request) {
	reportID, err := uuid.Parse(r.PathValue("reportId"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	report, err := h.sys.Reclassify(r.Context(), reportID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, report)
}

// UploadFile attaches a multipart file to a report. Returns 201 with the
// attachment metadata.
func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	reportID, err := uuid.Parse(r.PathValue("reportId"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("parse upload: %w", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("file field required: %w", err))
		return
	}
	defer file.Close()

	uploaded, err := h.sys.AttachFile(
		r.Context(),
		reportID,
		header.Filename,
		header.Header.Get("Content-Type"),
		r.FormValue("uploaded_by"),
		header.Size,
		file,
	)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, uploaded)
}

// ListFiles returns a report's attachments.
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	reportID, err := uuid.Parse(r.PathValue("reportId"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	files, err := h.sys.ListFiles(r.Context(), reportID)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, files)
}

// DownloadFile streams an attachment back to the client.
func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	fileID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrFileNotFound)
		return
	}

	meta, body, err := h.sys.DownloadFile(r.Context(), fileID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", meta.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", meta.Filename))
	w.Header().Set("Content-Length", strconv.FormatInt(meta.SizeBytes, 10))

	if _, err := io.Copy(w, body); err != nil {
		h.logger.Error("stream attachment failed", "file_id", fileID, "error", err)
	}
}
