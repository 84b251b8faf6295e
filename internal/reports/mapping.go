package reports

import (
	"encoding/json"
	"fmt"

	"github.com/mimamori/mimamori/internal/bps"
	"github.com/mimamori/mimamori/pkg/query"
	"github.com/mimamori/mimamori/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "reports", "r").
	Project("id", "ID").
	Project("patient_id", "PatientID").
	Project("occurred_at", "OccurredAt").
	Project("reporter_name", "ReporterName").
	Project("reporter_role", "ReporterRole").
	Project("raw_text", "RawText").
	Project("bps", "BPS").
	Project("classified_at", "ClassifiedAt").
	Project("acknowledged", "Acknowledged").
	Project("acknowledged_by", "AcknowledgedBy").
	Project("acknowledged_at", "AcknowledgedAt").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

func scanReport(s repository.Scanner) (Report, error) {
	var r Report
	var bpsRaw []byte

	err := s.Scan(
		&r.ID,
		&r.PatientID,
		&r.OccurredAt,
		&r.ReporterName,
		&r.ReporterRole,
		&r.RawText,
		&bpsRaw,
		&r.ClassifiedAt,
		&r.Acknowledged,
		&r.AcknowledgedBy,
		&r.AcknowledgedAt,
		&r.CreatedAt,
	)

	if err != nil {
		return r, err
	}

	if len(bpsRaw) > 0 {
		var c bps.Classification
		if err := json.Unmarshal(bpsRaw, &c); err != nil {
			return r, fmt.Errorf("unmarshal bps: %w", err)
		}
		r.BPS = &c
	}

	return r, nil
}

func scanFile(s repository.Scanner) (ReportFile, error) {
	var f ReportFile

	err := s.Scan(
		&f.ID,
		&f.ReportID,
		&f.Filename,
		&f.ContentType,
		&f.SizeBytes,
		&f.StorageKey,
		&f.UploadedBy,
		&f.UploadedAt,
	)

	return f, err
}
