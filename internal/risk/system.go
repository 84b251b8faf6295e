package risk

import (
	"context"

	"github.com/google/uuid"
)

// System defines the public contract for risk operations. Recalculate is
// cheap enough to call after every alert lifecycle event.
type System interface {
	// Recalculate derives the patient's level from current unacknowledged
	// alerts and appends a history entry when the level changes. Returns
	// nil when the level is unchanged.
	Recalculate(ctx context.Context, patientID uuid.UUID, trigger string) (*Entry, error)

	// SetManual records a human-set level. Manual levels hold against
	// automatic de-escalation until the next escalating alert or manual change.
	SetManual(ctx context.Context, patientID uuid.UUID, cmd ManualCommand) (*Entry, error)

	// History returns the patient's risk history chain, newest first.
	History(ctx context.Context, patientID uuid.UUID, limit int) ([]Entry, error)
}
