package scan

import (
	"context"
	"fmt"

	"github.com/JaimeStill/go-agents/pkg/agent"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/mimamori/mimamori/internal/alerts"
	"github.com/mimamori/mimamori/pkg/formatting"
)

type assessResponse struct {
	Detections []assessDetection `json:"detections"`
}

type assessDetection struct {
	PatternID string   `json:"pattern_id"`
	Evidence  []string `json:"evidence"`
}

// AssessNode returns a state node that asks the language model to flag
// catalog patterns the rule evaluators may have missed. Unknown pattern ids
// and patterns already detected are discarded, so the agent can only add
// detections inside the configured catalog.
func AssessNode(rt *Runtime) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		ss, err := extractScanState(s)
		if err != nil {
			return s, fmt.Errorf("assess: %w", err)
		}

		extra, err := assessPatterns(ctx, rt, ss)
		if err != nil {
			// Assessment is additive. Rule detections stand on their own.
			rt.Logger.WarnContext(
				ctx, "agent assessment skipped",
				"patient_id", ss.Patient.ID,
				"error", err,
			)
		} else {
			ss.Detections = append(ss.Detections, extra...)
		}

		rt.Logger.InfoContext(
			ctx, "assess node complete",
			"patient_id", ss.Patient.ID,
			"added", len(extra),
		)

		s = s.Set(KeyScanState, *ss)
		return s, nil
	})
}

func assessPatterns(ctx context.Context, rt *Runtime, ss *ScanState) ([]alerts.Detection, error) {
	a, err := agent.New(&rt.Agent)
	if err != nil {
		return nil, fmt.Errorf("%w: create agent: %w", ErrAssessFailed, err)
	}

	resp, err := a.Chat(ctx, assessPrompt(rt.Alerts.Catalog().Patterns(), ss))
	if err != nil {
		return nil, fmt.Errorf("%w: chat call: %w", ErrAssessFailed, err)
	}

	parsed, err := formatting.Parse[assessResponse](resp.Content())
	if err != nil {
		return nil, fmt.Errorf("%w: parse response: %w", ErrAssessFailed, err)
	}

	return resolveDetections(rt.Alerts.Catalog(), ss.Detections, parsed.Detections), nil
}

func resolveDetections(catalog *alerts.Catalog, existing []alerts.Detection, proposed []assessDetection) []alerts.Detection {
	seen := make(map[string]bool, len(existing))
	for _, d := range existing {
		seen[d.Pattern.ID] = true
	}

	var resolved []alerts.Detection
	for _, p := range proposed {
		if seen[p.PatternID] || len(p.Evidence) == 0 {
			continue
		}
		for _, pattern := range catalog.Patterns() {
			if pattern.ID == p.PatternID {
				resolved = append(resolved, alerts.Detection{
					Pattern:  pattern,
					Evidence: p.Evidence,
				})
				seen[p.PatternID] = true
				break
			}
		}
	}
	return resolved
}
