package scan

import (
	"context"
	"fmt"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/mimamori/mimamori/internal/alerts"
)

// DetectNode returns a state node that evaluates the rule pattern catalog
// against the loaded reports and context.
func DetectNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		ss, err := extractScanState(s)
		if err != nil {
			return s, fmt.Errorf("detect: %w", err)
		}

		ss.Detections = rt.Alerts.Catalog().Evaluate(alerts.DetectInput{
			Reports: ss.Reports,
			Context: ss.Context,
		})

		rt.Logger.InfoContext(
			ctx, "detect node complete",
			"patient_id", ss.Patient.ID,
			"detections", len(ss.Detections),
		)

		s = s.Set(KeyScanState, *ss)
		return s, nil
	})
}
