// Package patients implements the patient domain: registration, profile
// updates, filtered listing, the aggregated detail view, and manual risk
// level changes.
package patients

import (
	"time"

	"github.com/google/uuid"

	"github.com/mimamori/mimamori/internal/alerts"
	"github.com/mimamori/mimamori/internal/bps"
	"github.com/mimamori/mimamori/internal/reports"
	"github.com/mimamori/mimamori/internal/risk"
)

// Patient statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Patient represents a person receiving home care.
type Patient struct {
	ID         uuid.UUID   `json:"id"`
	OrgID      uuid.UUID   `json:"org_id"`
	Name       string      `json:"name"`
	NameKana   string      `json:"name_kana"`
	Age        int         `json:"age"`
	Sex        string      `json:"sex"`
	Conditions []string    `json:"conditions"`
	Facility   string      `json:"facility"`
	Area       string      `json:"area"`
	RiskLevel  risk.Level  `json:"risk_level"`
	RiskSource risk.Source `json:"risk_source"`
	Status     string      `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// CreateCommand carries the data needed to register a patient.
type CreateCommand struct {
	OrgID      uuid.UUID `json:"org_id"`
	Name       string    `json:"name"`
	NameKana   string    `json:"name_kana"`
	Age        int       `json:"age"`
	Sex        string    `json:"sex"`
	Conditions []string  `json:"conditions"`
	Facility   string    `json:"facility"`
	Area       string    `json:"area"`
}

// UpdateCommand carries a profile update. Zero-valued fields are left unchanged.
type UpdateCommand struct {
	Name       *string  `json:"name,omitempty"`
	NameKana   *string  `json:"name_kana,omitempty"`
	Age        *int     `json:"age,omitempty"`
	Sex        *string  `json:"sex,omitempty"`
	Conditions []string `json:"conditions,omitempty"`
	Facility   *string  `json:"facility,omitempty"`
	Area       *string  `json:"area,omitempty"`
	Status     *string  `json:"status,omitempty"`
}

// Detail is the aggregated patient view served by GET /patients/{id}.
type Detail struct {
	Patient       Patient          `json:"patient"`
	RecentReports []reports.Report `json:"recent_reports"`
	Alerts        []alerts.Alert   `json:"alerts"`
	Context       *bps.Context     `json:"context"`
	RiskHistory   []risk.Entry     `json:"risk_history"`
}
