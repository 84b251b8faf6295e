package bps

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Summarizer renders one axis of a patient context into a short narrative.
type Summarizer interface {
	Summarize(ctx context.Context, axis Axis, summary AxisSummary, reportCount int) (string, error)
}

// RuleSummarizer builds narratives from templates. Deterministic fallback
// for deployments without a language model.
type RuleSummarizer struct{}

// NewRuleSummarizer creates a RuleSummarizer.
func NewRuleSummarizer() *RuleSummarizer {
	return &RuleSummarizer{}
}

func (s *RuleSummarizer) Summarize(_ context.Context, _ Axis, summary AxisSummary, reportCount int) (string, error) {
	if reportCount == 0 {
		return EmptyNarrative, nil
	}
	if len(summary.Facts) == 0 {
		return "特記すべき報告はありません。", nil
	}

	labels := make([]string, 0, len(summary.Facts))
	for label := range summary.Facts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	parts := make([]string, 0, len(labels))
	for _, label := range labels {
		value := summary.Facts[label]
		if value == label {
			parts = append(parts, label)
		} else {
			parts = append(parts, fmt.Sprintf("%s %s", label, value))
		}
	}

	return fmt.Sprintf(
		"直近%d件の報告より、%sが報告されています（%s）。",
		reportCount,
		strings.Join(parts, "、"),
		summary.Trend,
	), nil
}
