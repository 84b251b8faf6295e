package orgs

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// System defines the public contract for organization settings.
type System interface {
	Handler() *Handler

	Find(ctx context.Context, id uuid.UUID) (*Organization, error)

	// List returns every organization. The scheduler uses this to build
	// its slot table.
	List(ctx context.Context) ([]Organization, error)

	UpdateAlertSchedule(ctx context.Context, id uuid.UUID, cmd UpdateScheduleCommand) (*Organization, error)
	UpdateMorningScanTime(ctx context.Context, id uuid.UUID, cmd UpdateMorningCommand) (*Organization, error)

	// ClaimScanSlot records that a scheduled slot ran for the given org
	// and date. Returns false when the slot was already claimed.
	ClaimScanSlot(ctx context.Context, id uuid.UUID, date time.Time, slot string) (bool, error)
}
