package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"
)

const classifiedReportLimit = 100

// InitNode returns a state node that loads the patient, its aggregated
// context, and the classified reports inside the lookback window, then
// stores the initial ScanState in the state bag.
func InitNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		patientID, lookback, err := extractInitState(s)
		if err != nil {
			return s, fmt.Errorf("init: %w", err)
		}

		patient, err := rt.Patients.Find(ctx, patientID)
		if err != nil {
			return s, fmt.Errorf("init: %w: %w", ErrPatientNotFound, err)
		}

		bpsContext, err := rt.Reports.Context(ctx, patientID)
		if err != nil {
			return s, fmt.Errorf("init: load context: %w", err)
		}

		since := time.Now().UTC().Add(-lookback)
		classified, err := rt.Reports.ListClassifiedSince(ctx, patientID, since, classifiedReportLimit)
		if err != nil {
			return s, fmt.Errorf("init: load reports: %w", err)
		}

		rt.Logger.InfoContext(
			ctx, "init node complete",
			"patient_id", patientID,
			"report_count", len(classified),
		)

		s = s.Set(KeyScanState, ScanState{
			Patient: *patient,
			Context: bpsContext,
			Reports: classified,
		})

		return s, nil
	})
}

func extractInitState(s state.State) (uuid.UUID, time.Duration, error) {
	idVal, ok := s.Get(KeyPatientID)
	if !ok {
		return uuid.Nil, 0, fmt.Errorf("%w: missing %s in state", ErrPatientNotFound, KeyPatientID)
	}

	patientID, ok := idVal.(uuid.UUID)
	if !ok {
		return uuid.Nil, 0, fmt.Errorf("%w: %s is not uuid.UUID", ErrPatientNotFound, KeyPatientID)
	}

	lookbackVal, ok := s.Get(KeyLookback)
	if !ok {
		return uuid.Nil, 0, fmt.Errorf("missing %s in state", KeyLookback)
	}

	lookback, ok := lookbackVal.(time.Duration)
	if !ok {
		return uuid.Nil, 0, fmt.Errorf("%s is not time.Duration", KeyLookback)
	}

	return patientID, lookback, nil
}
