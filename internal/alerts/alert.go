// Package alerts implements the alert domain: severity-tiered alerts raised
// by pattern detection over classified reports, the configurable pattern
// catalog itself, and alert acknowledgement.
package alerts

import (
	"time"

	"github.com/google/uuid"
)

// Severity tiers an alert. Ordering: high > medium > low.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Rank returns the sort weight of a severity, higher is more urgent.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	return s.Rank() > 0
}

// Alert represents a stored alert. One alert per (patient, pattern, day);
// repeated detections within a day are dropped by the dedup index.
type Alert struct {
	ID              uuid.UUID  `json:"id"`
	PatientID       uuid.UUID  `json:"patient_id"`
	OrgID           uuid.UUID  `json:"org_id"`
	PatternID       string     `json:"pattern_id"`
	Severity        Severity   `json:"severity"`
	Title           string     `json:"title"`
	Message         string     `json:"message"`
	Evidence        []string   `json:"evidence"`
	Recommendations []string   `json:"recommendations"`
	Acknowledged    bool       `json:"acknowledged"`
	AcknowledgedBy  *string    `json:"acknowledged_by"`
	AcknowledgedAt  *time.Time `json:"acknowledged_at"`
	CreatedAt       time.Time  `json:"created_at"`
}

// CreateCommand carries the data needed to persist a detected alert.
type CreateCommand struct {
	PatientID       uuid.UUID `json:"patient_id"`
	OrgID           uuid.UUID `json:"org_id"`
	PatternID       string    `json:"pattern_id"`
	Severity        Severity  `json:"severity"`
	Title           string    `json:"title"`
	Message         string    `json:"message"`
	Evidence        []string  `json:"evidence"`
	Recommendations []string  `json:"recommendations"`
}

// AcknowledgeCommand identifies who acknowledged an alert.
type AcknowledgeCommand struct {
	AcknowledgedBy string `json:"acknowledged_by"`
}

// Stats summarizes alert counts for an organization.
type Stats struct {
	Total          int              `json:"total"`
	Unacknowledged int              `json:"unacknowledged"`
	BySeverity     map[Severity]int `json:"by_severity"`
}
