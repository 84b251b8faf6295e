package scan

import (
	"context"
	"fmt"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/mimamori/mimamori/internal/alerts"
)

// FinalizeNode returns a state node that persists the detections as alerts
// and recalculates the patient's risk level. Alerts already raised today for
// the same pattern are deduplicated by the store and dropped silently.
func FinalizeNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		ss, err := extractScanState(s)
		if err != nil {
			return s, fmt.Errorf("finalize: %w", err)
		}

		created := make([]alerts.Alert, 0, len(ss.Detections))
		for _, d := range ss.Detections {
			a, ok, err := rt.Alerts.Create(ctx, alerts.CreateCommand{
				PatientID:       ss.Patient.ID,
				OrgID:           ss.Patient.OrgID,
				PatternID:       d.Pattern.ID,
				Severity:        d.Pattern.Severity,
				Title:           d.Pattern.Title,
				Message:         d.Pattern.Message,
				Evidence:        d.Evidence,
				Recommendations: d.Pattern.Recommendations,
			})
			if err != nil {
				return s, fmt.Errorf("finalize: %w: %w", ErrFinalizeFailed, err)
			}
			if ok {
				created = append(created, *a)
			}
		}
		ss.Created = created

		if len(created) > 0 {
			if _, err := rt.Risk.Recalculate(ctx, ss.Patient.ID, "alert_scan"); err != nil {
				return s, fmt.Errorf("finalize: recalculate risk: %w", err)
			}
		}

		rt.Logger.InfoContext(
			ctx, "finalize node complete",
			"patient_id", ss.Patient.ID,
			"alerts_created", len(created),
		)

		s = s.Set(KeyScanState, *ss)
		return s, nil
	})
}
