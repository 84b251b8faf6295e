package scan

import (
	"context"

	"github.com/google/uuid"
)

// System defines the public contract for alert scan execution.
type System interface {
	Handler() *Handler

	// ScanPatient runs the scan workflow for a single patient.
	ScanPatient(ctx context.Context, patientID uuid.UUID) (*PatientResult, error)

	// ScanAll scans an organization's active patients concurrently. One
	// patient's failure is recorded in its result and never aborts the
	// batch. A lookbackDays of 0 uses the configured default.
	ScanAll(ctx context.Context, orgID uuid.UUID, lookbackDays int) (*BatchResult, error)
}
