package alerts

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/mimamori/mimamori/pkg/query"
	"github.com/mimamori/mimamori/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "alerts", "a").
	Project("id", "ID").
	Project("patient_id", "PatientID").
	Project("org_id", "OrgID").
	Project("pattern_id", "PatternID").
	Project("severity", "Severity").
	Project("title", "Title").
	Project("message", "Message").
	Project("evidence", "Evidence").
	Project("recommendations", "Recommendations").
	Project("acknowledged", "Acknowledged").
	Project("acknowledged_by", "AcknowledgedBy").
	Project("acknowledged_at", "AcknowledgedAt").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for alert queries.
// Nil fields are ignored.
type Filters struct {
	OrgID        *uuid.UUID `json:"org_id,omitempty"`
	PatientID    *uuid.UUID `json:"patient_id,omitempty"`
	PatternID    *string    `json:"pattern_id,omitempty"`
	Severity     *string    `json:"severity,omitempty"`
	Acknowledged *bool      `json:"acknowledged,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("OrgID", f.OrgID).
		WhereEquals("PatientID", f.PatientID).
		WhereEquals("PatternID", f.PatternID).
		WhereEquals("Severity", f.Severity).
		WhereEquals("Acknowledged", f.Acknowledged)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if v := values.Get("org_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			f.OrgID = &id
		}
	}

	if v := values.Get("patient_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			f.PatientID = &id
		}
	}

	if v := values.Get("pattern_id"); v != "" {
		f.PatternID = &v
	}

	if v := values.Get("severity"); v != "" {
		f.Severity = &v
	}

	if v := values.Get("acknowledged"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.Acknowledged = &b
		}
	}

	return f
}

func scanAlert(s repository.Scanner) (Alert, error) {
	var a Alert
	var evidenceRaw, recommendationsRaw []byte

	err := s.Scan(
		&a.ID,
		&a.PatientID,
		&a.OrgID,
		&a.PatternID,
		&a.Severity,
		&a.Title,
		&a.Message,
		&evidenceRaw,
		&recommendationsRaw,
		&a.Acknowledged,
		&a.AcknowledgedBy,
		&a.AcknowledgedAt,
		&a.CreatedAt,
	)

	if err != nil {
		return a, err
	}

	if len(evidenceRaw) > 0 {
		if err := json.Unmarshal(evidenceRaw, &a.Evidence); err != nil {
			return a, fmt.Errorf("unmarshal evidence: %w", err)
		}
	}
	if len(recommendationsRaw) > 0 {
		if err := json.Unmarshal(recommendationsRaw, &a.Recommendations); err != nil {
			return a, fmt.Errorf("unmarshal recommendations: %w", err)
		}
	}

	if a.Evidence == nil {
		a.Evidence = []string{}
	}
	if a.Recommendations == nil {
		a.Recommendations = []string{}
	}

	return a, nil
}
