package dashboard

import (
	"time"

	"github.com/google/uuid"

	"github.com/mimamori/mimamori/internal/risk"
)

// NightPatient is one patient's overnight activity line.
type NightPatient struct {
	PatientID      uuid.UUID  `json:"patient_id"`
	Name           string     `json:"name"`
	ReportCount    int        `json:"report_count"`
	AlertCount     int        `json:"alert_count"`
	LatestReportAt *time.Time `json:"latest_report_at,omitempty"`
	LatestSnippet  string     `json:"latest_snippet,omitempty"`
}

// NightSummary aggregates per-patient activity since the window start.
// Only patients with at least one report or alert in the window appear.
type NightSummary struct {
	Since    time.Time      `json:"since"`
	Hours    int            `json:"hours"`
	Patients []NightPatient `json:"patients"`
}

// Stats is the organization-wide headline view.
type Stats struct {
	Patients             int                `json:"patients"`
	PatientsByRisk       map[risk.Level]int `json:"patients_by_risk"`
	ReportsToday         int                `json:"reports_today"`
	UnacknowledgedAlerts int                `json:"unacknowledged_alerts"`
}
