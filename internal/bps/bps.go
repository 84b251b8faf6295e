// Package bps defines the Bio-Psycho-Social vocabulary shared across the
// service: axes, findings, report classifications, and per-patient context
// summaries.
package bps

import (
	"time"

	"github.com/google/uuid"
)

// Axis identifies one of the three assessment axes.
type Axis string

const (
	AxisBio    Axis = "bio"
	AxisPsycho Axis = "psycho"
	AxisSocial Axis = "social"
)

// Axes returns all axes in canonical order.
func Axes() []Axis {
	return []Axis{AxisBio, AxisPsycho, AxisSocial}
}

// Polarity marks the direction a finding points in.
type Polarity string

const (
	Worsening Polarity = "worsening"
	Improving Polarity = "improving"
	Neutral   Polarity = "neutral"
)

// Axis trend labels surfaced to care staff.
const (
	TrendWorsening = "悪化傾向"
	TrendImproving = "改善傾向"
	TrendStable    = "安定"
	TrendNoData    = "データ不足"
)

// EmptyNarrative is the axis narrative for patients with no reports.
const EmptyNarrative = "報告はまだありません"

// VitalReading is a measured value extracted from report text.
type VitalReading struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
	Trend string  `json:"trend,omitempty"`
}

// Finding is a single classified observation. Label is the canonical term
// (vital type or symptom keyword); Text carries the source clause.
type Finding struct {
	Label    string        `json:"label"`
	Text     string        `json:"text"`
	Polarity Polarity      `json:"polarity"`
	Vital    *VitalReading `json:"vital,omitempty"`
}

// Classification holds the findings of one report, split by axis.
// All three slices are always non-nil; a report with nothing notable
// classifies to three empty slices.
type Classification struct {
	Bio    []Finding `json:"bio"`
	Psycho []Finding `json:"psycho"`
	Social []Finding `json:"social"`
}

// NewClassification returns a Classification with empty axis slices.
func NewClassification() *Classification {
	return &Classification{
		Bio:    []Finding{},
		Psycho: []Finding{},
		Social: []Finding{},
	}
}

// Axis returns the findings for the given axis.
func (c *Classification) Axis(a Axis) []Finding {
	switch a {
	case AxisBio:
		return c.Bio
	case AxisPsycho:
		return c.Psycho
	case AxisSocial:
		return c.Social
	}
	return nil
}

// Append adds a finding to the given axis.
func (c *Classification) Append(a Axis, f Finding) {
	switch a {
	case AxisBio:
		c.Bio = append(c.Bio, f)
	case AxisPsycho:
		c.Psycho = append(c.Psycho, f)
	case AxisSocial:
		c.Social = append(c.Social, f)
	}
}

// Empty reports whether no axis has findings.
func (c *Classification) Empty() bool {
	return len(c.Bio) == 0 && len(c.Psycho) == 0 && len(c.Social) == 0
}

// AxisSummary is the rolled-up view of one axis over the context window.
type AxisSummary struct {
	Facts     map[string]string `json:"facts"`
	Trend     string            `json:"trend"`
	Narrative string            `json:"narrative"`
}

// Context is the per-patient aggregate rebuilt after every report ingest.
type Context struct {
	PatientID   uuid.UUID   `json:"patient_id"`
	Bio         AxisSummary `json:"bio"`
	Psycho      AxisSummary `json:"psycho"`
	Social      AxisSummary `json:"social"`
	ReportCount int         `json:"report_count"`
	WindowDays  int         `json:"window_days"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Summary returns the axis summary for the given axis.
func (c *Context) Summary(a Axis) AxisSummary {
	switch a {
	case AxisBio:
		return c.Bio
	case AxisPsycho:
		return c.Psycho
	case AxisSocial:
		return c.Social
	}
	return AxisSummary{}
}
