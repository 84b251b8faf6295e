package patients

import (
	"context"

	"github.com/google/uuid"

	"github.com/mimamori/mimamori/internal/alerts"
	"github.com/mimamori/mimamori/internal/risk"
	"github.com/mimamori/mimamori/pkg/pagination"
)

// System defines the public contract for patient domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Patient], error)

	Find(ctx context.Context, id uuid.UUID) (*Patient, error)

	// Detail aggregates the patient with recent reports, alerts, the BPS
	// context, and the risk history chain.
	Detail(ctx context.Context, id uuid.UUID) (*Detail, error)

	Create(ctx context.Context, cmd CreateCommand) (*Patient, error)
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Patient, error)

	// Alerts returns a patient's alerts, optionally filtered on
	// acknowledged state.
	Alerts(ctx context.Context, id uuid.UUID, acknowledged *bool) ([]alerts.Alert, error)

	// SetRiskLevel records a manual risk level change through the risk system.
	SetRiskLevel(ctx context.Context, id uuid.UUID, cmd risk.ManualCommand) (*Patient, error)

	// ListActiveByOrg returns an organization's active patients, for scans.
	ListActiveByOrg(ctx context.Context, orgID uuid.UUID) ([]Patient, error)
}
