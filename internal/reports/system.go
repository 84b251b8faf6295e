package reports

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/mimamori/mimamori/internal/bps"
)

// System defines the public contract for report domain operations.
type System interface {
	Handler() *Handler

	// Ingest stores a report, classifying it inline. Classification
	// failure never rejects the report: it is stored unclassified and can
	// be reclassified later.
	Ingest(ctx context.Context, patientID uuid.UUID, cmd IngestCommand) (*Report, error)

	List(ctx context.Context, patientID uuid.UUID, limit int) ([]Report, error)
	Find(ctx context.Context, id uuid.UUID) (*Report, error)

	// Reclassify re-runs the classifier on a stored report, overwriting
	// the previous classification.
	Reclassify(ctx context.Context, id uuid.UUID) (*Report, error)

	// Acknowledge is idempotent: acknowledging an already-acknowledged
	// report succeeds without touching the row.
	Acknowledge(ctx context.Context, id uuid.UUID, cmd AcknowledgeCommand) (*Report, error)

	// Context returns the patient's rolling BPS context, rebuilding it
	// when no snapshot exists yet.
	Context(ctx context.Context, patientID uuid.UUID) (*bps.Context, error)

	// Reaggregate rebuilds and persists the patient's BPS context.
	Reaggregate(ctx context.Context, patientID uuid.UUID) (*bps.Context, error)

	// ListClassifiedSince returns the classified reports in the scan
	// window, oldest first. Unclassified reports are excluded.
	ListClassifiedSince(ctx context.Context, patientID uuid.UUID, since time.Time, limit int) ([]bps.ClassifiedReport, error)

	AttachFile(ctx context.Context, reportID uuid.UUID, filename, contentType, uploadedBy string, size int64, data io.Reader) (*ReportFile, error)
	ListFiles(ctx context.Context, reportID uuid.UUID) ([]ReportFile, error)
	DownloadFile(ctx context.Context, fileID uuid.UUID) (*ReportFile, io.ReadCloser, error)
}
