package alerts

import (
	"context"

	"github.com/google/uuid"

	"github.com/mimamori/mimamori/pkg/pagination"
)

// System defines the public contract for alert domain operations.
type System interface {
	Handler() *Handler
	Catalog() *Catalog

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Alert], error)

	// ListByPatient returns a patient's alerts newest first, optionally
	// filtered on acknowledged state.
	ListByPatient(ctx context.Context, patientID uuid.UUID, acknowledged *bool, limit int) ([]Alert, error)

	Find(ctx context.Context, id uuid.UUID) (*Alert, error)

	// Create persists a detected alert. The created flag is false when the
	// day's dedup index dropped the insert.
	Create(ctx context.Context, cmd CreateCommand) (*Alert, bool, error)

	// Acknowledge is idempotent: acknowledging an already-acknowledged
	// alert succeeds without touching the row. First acknowledgement
	// triggers a risk recalculation.
	Acknowledge(ctx context.Context, id uuid.UUID, cmd AcknowledgeCommand) (*Alert, error)

	Stats(ctx context.Context, orgID uuid.UUID) (*Stats, error)
}
