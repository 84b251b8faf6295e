package scan

import (
	"time"

	"github.com/google/uuid"

	"github.com/mimamori/mimamori/internal/alerts"
	"github.com/mimamori/mimamori/internal/bps"
	"github.com/mimamori/mimamori/internal/patients"
)

const (
	KeyPatientID = "patient_id"
	KeyLookback  = "lookback"
	KeyScanState = "scan_state"
)

// ScanState holds the running per-patient scan accumulated across nodes.
type ScanState struct {
	Patient    patients.Patient       `json:"patient"`
	Context    *bps.Context           `json:"context,omitempty"`
	Reports    []bps.ClassifiedReport `json:"reports"`
	Detections []alerts.Detection     `json:"detections"`
	Created    []alerts.Alert         `json:"created"`
}

// PatientResult is the outcome of scanning a single patient. A batch scan
// records per-patient failures here instead of aborting.
type PatientResult struct {
	Success     bool           `json:"success"`
	PatientID   uuid.UUID      `json:"patient_id"`
	PatientName string         `json:"patient_name"`
	Alerts      []alerts.Alert `json:"alerts"`
	Error       string         `json:"error,omitempty"`
	CompletedAt time.Time      `json:"completed_at"`
}

// BatchResult is the outcome of scanning an organization's active patients.
// Report carries the formatted digest text.
type BatchResult struct {
	Success     bool            `json:"success"`
	Report      string          `json:"report"`
	ScanResults []PatientResult `json:"scan_results"`
}
