// Package reports implements the observation report domain: free-text
// ingest with classify-on-ingest, the rolling per-patient BPS context,
// report acknowledgement, and blob-backed attachments.
package reports

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mimamori/mimamori/internal/bps"
)

// Report represents a stored observation report. BPS is nil until the
// classifier has run; reclassification overwrites the previous value.
type Report struct {
	ID             uuid.UUID           `json:"id"`
	PatientID      uuid.UUID           `json:"patient_id"`
	OccurredAt     time.Time           `json:"occurred_at"`
	ReporterName   string              `json:"reporter_name"`
	ReporterRole   string              `json:"reporter_role"`
	RawText        string              `json:"raw_text"`
	BPS            *bps.Classification `json:"bps"`
	ClassifiedAt   *time.Time          `json:"classified_at"`
	Acknowledged   bool                `json:"acknowledged"`
	AcknowledgedBy *string             `json:"acknowledged_by"`
	AcknowledgedAt *time.Time          `json:"acknowledged_at"`
	CreatedAt      time.Time           `json:"created_at"`
}

// IngestCommand carries a new report. OccurredAt defaults to now;
// ReporterRole is inferred from the text when omitted.
type IngestCommand struct {
	OccurredAt   *time.Time `json:"occurred_at,omitempty"`
	ReporterName string     `json:"reporter_name"`
	ReporterRole string     `json:"reporter_role,omitempty"`
	Text         string     `json:"text"`
}

// AcknowledgeCommand identifies who acknowledged a report.
type AcknowledgeCommand struct {
	AcknowledgedBy string `json:"acknowledged_by"`
}

// ReportFile is a blob-backed attachment referenced by a report.
type ReportFile struct {
	ID          uuid.UUID `json:"id"`
	ReportID    uuid.UUID `json:"report_id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	StorageKey  string    `json:"-"`
	UploadedBy  string    `json:"uploaded_by"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

var roleMarkers = []struct {
	role  string
	terms []string
}{
	{"看護師", []string{"訪問看護", "看護師", "ナース"}},
	{"ケアマネジャー", []string{"ケアマネ", "担当者会議", "ケアプラン"}},
	{"家族", []string{"家族", "長女", "長男", "娘", "息子", "妻", "夫"}},
	{"ヘルパー", []string{"訪問介護", "ヘルパー", "生活援助", "身体介護"}},
}

// InferRole guesses the reporter role from the report text when the
// submitter did not provide one.
func InferRole(text string) string {
	for _, m := range roleMarkers {
		for _, term := range m.terms {
			if strings.Contains(text, term) {
				return m.role
			}
		}
	}
	return "その他"
}
