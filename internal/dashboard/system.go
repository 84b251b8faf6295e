package dashboard

import (
	"context"

	"github.com/google/uuid"
)

// System defines the read-only dashboard queries.
type System interface {
	Handler() *Handler

	// NightSummary reports per-patient activity over the trailing window.
	// An hours of 0 uses the default overnight window.
	NightSummary(ctx context.Context, orgID uuid.UUID, hours int) (*NightSummary, error)

	Stats(ctx context.Context, orgID uuid.UUID) (*Stats, error)
}
