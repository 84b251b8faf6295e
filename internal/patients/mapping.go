package patients

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/mimamori/mimamori/pkg/query"
	"github.com/mimamori/mimamori/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "patients", "p").
	Project("id", "ID").
	Project("org_id", "OrgID").
	Project("name", "Name").
	Project("name_kana", "NameKana").
	Project("age", "Age").
	Project("sex", "Sex").
	Project("conditions", "Conditions").
	Project("facility", "Facility").
	Project("area", "Area").
	Project("risk_level", "RiskLevel").
	Project("risk_source", "RiskSource").
	Project("status", "Status").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "NameKana",
	Descending: false,
}

// Filters contains optional filtering criteria for patient queries.
// Nil fields are ignored.
type Filters struct {
	OrgID     *uuid.UUID `json:"org_id,omitempty"`
	RiskLevel *string    `json:"risk_level,omitempty"`
	Status    *string    `json:"status,omitempty"`
	Facility  *string    `json:"facility,omitempty"`
	Area      *string    `json:"area,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("OrgID", f.OrgID).
		WhereEquals("RiskLevel", f.RiskLevel).
		WhereEquals("Status", f.Status).
		WhereEquals("Facility", f.Facility).
		WhereEquals("Area", f.Area)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if v := values.Get("org_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			f.OrgID = &id
		}
	}

	if v := values.Get("risk_level"); v != "" {
		f.RiskLevel = &v
	}

	if v := values.Get("status"); v != "" {
		f.Status = &v
	}

	if v := values.Get("facility"); v != "" {
		f.Facility = &v
	}

	if v := values.Get("area"); v != "" {
		f.Area = &v
	}

	return f
}

func scanPatient(s repository.Scanner) (Patient, error) {
	var p Patient
	var conditionsRaw []byte

	err := s.Scan(
		&p.ID,
		&p.OrgID,
		&p.Name,
		&p.NameKana,
		&p.Age,
		&p.Sex,
		&conditionsRaw,
		&p.Facility,
		&p.Area,
		&p.RiskLevel,
		&p.RiskSource,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if err != nil {
		return p, err
	}

	if len(conditionsRaw) > 0 {
		if err := json.Unmarshal(conditionsRaw, &p.Conditions); err != nil {
			return p, fmt.Errorf("unmarshal conditions: %w", err)
		}
	}

	if p.Conditions == nil {
		p.Conditions = []string{}
	}

	return p, nil
}
