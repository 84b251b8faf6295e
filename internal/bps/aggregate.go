package bps

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ClassifiedReport pairs a classification with the time its report was filed.
type ClassifiedReport struct {
	CreatedAt      time.Time
	Classification Classification
}

// badWhenFalling marks vital types where a falling value is the concerning
// direction; all other tracked vitals are concerning when rising.
var badWhenFalling = map[string]bool{
	"SpO2": true,
	"体重":   true,
}

// Aggregator rebuilds a patient's context from classified reports inside
// the rolling window. Trends are computed deterministically from finding
// polarities before any narrative is generated, so trend labels never
// depend on model output.
type Aggregator struct {
	summarizer Summarizer
	windowDays int
}

// NewAggregator creates an Aggregator with the given summarizer and window size.
func NewAggregator(summarizer Summarizer, windowDays int) *Aggregator {
	return &Aggregator{
		summarizer: summarizer,
		windowDays: windowDays,
	}
}

// WindowDays returns the rolling window size in days.
func (a *Aggregator) WindowDays() int {
	return a.windowDays
}

// Build produces the context for a patient from reports already filtered to
// the window. Reports may arrive in any order; they are sorted by creation
// time before vital deltas are computed.
func (a *Aggregator) Build(ctx context.Context, patientID uuid.UUID, reports []ClassifiedReport) (*Context, error) {
	sorted := make([]ClassifiedReport, len(reports))
	copy(sorted, reports)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	result := &Context{
		PatientID:   patientID,
		ReportCount: len(sorted),
		WindowDays:  a.windowDays,
		UpdatedAt:   time.Now().UTC(),
	}

	for _, axis := range Axes() {
		summary, err := a.buildAxis(ctx, axis, sorted)
		if err != nil {
			return nil, err
		}
		switch axis {
		case AxisBio:
			result.Bio = summary
		case AxisPsycho:
			result.Psycho = summary
		case AxisSocial:
			result.Social = summary
		}
	}

	return result, nil
}

func (a *Aggregator) buildAxis(ctx context.Context, axis Axis, reports []ClassifiedReport) (AxisSummary, error) {
	summary := AxisSummary{Facts: make(map[string]string)}

	var worsening, improving, total int
	lastVital := make(map[string]float64)

	for _, report := range reports {
		for _, f := range report.Classification.Axis(axis) {
			total++

			switch f.Polarity {
			case Worsening:
				worsening++
			case Improving:
				improving++
			}

			if f.Vital != nil {
				summary.Facts[f.Label] = formatVital(f.Vital, lastVital)
				lastVital[f.Vital.Type] = f.Vital.Value
			} else if f.Text != "" {
				summary.Facts[f.Label] = f.Text
			} else {
				summary.Facts[f.Label] = f.Label
			}
		}
	}

	switch {
	case total == 0:
		summary.Trend = TrendNoData
	case worsening > improving:
		summary.Trend = TrendWorsening
	case improving > worsening:
		summary.Trend = TrendImproving
	default:
		summary.Trend = TrendStable
	}

	narrative, err := a.summarizer.Summarize(ctx, axis, summary, len(reports))
	if err != nil {
		return AxisSummary{}, fmt.Errorf("summarize %s: %w", axis, err)
	}
	summary.Narrative = narrative

	return summary, nil
}

// formatVital renders "92% ↓" style facts, arrowed against the previous
// reading of the same vital when one exists in the window.
func formatVital(v *VitalReading, lastVital map[string]float64) string {
	value := strconv.FormatFloat(v.Value, 'f', -1, 64) + v.Unit

	prev, ok := lastVital[v.Type]
	if !ok || prev == v.Value {
		return value
	}

	arrow := "↑"
	if v.Value < prev {
		arrow = "↓"
	}
	return value + " " + arrow
}
