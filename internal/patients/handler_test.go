package patients_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mimamori/mimamori/internal/alerts"
	"github.com/mimamori/mimamori/internal/patients"
	"github.com/mimamori/mimamori/internal/risk"
	"github.com/mimamori/mimamori/pkg/pagination"
)

type mockSystem struct {
	createFn       func(ctx context.Context, cmd patients.CreateCommand) (*patients.Patient, error)
	setRiskLevelFn func(ctx context.Context, id uuid.UUID, cmd risk.ManualCommand) (*patients.Patient, error)
	alertsFn       func(ctx context.Context, id uuid.UUID, acknowledged *bool) ([]alerts.Alert, error)
}

func (m *mockSystem) Handler() *patients.Handler { return nil }

func (m *mockSystem) List(context.Context, pagination.PageRequest, patients.Filters) (*pagination.PageResult[patients.Patient], error) {
	return nil, nil
}

func (m *mockSystem) Find(context.Context, uuid.UUID) (*patients.Patient, error) {
	return nil, nil
}

func (m *mockSystem) Detail(context.Context, uuid.UUID) (*patients.Detail, error) {
	return nil, patients.ErrNotFound
}

func (m *mockSystem) Create(ctx context.Context, cmd patients.CreateCommand) (*patients.Patient, error) {
	return m.createFn(ctx, cmd)
}

func (m *mockSystem) Update(context.Context, uuid.UUID, patients.UpdateCommand) (*patients.Patient, error) {
	return nil, nil
}

func (m *mockSystem) Alerts(ctx context.Context, id uuid.UUID, acknowledged *bool) ([]alerts.Alert, error) {
	return m.alertsFn(ctx, id, acknowledged)
}

func (m *mockSystem) SetRiskLevel(ctx context.Context, id uuid.UUID, cmd risk.ManualCommand) (*patients.Patient, error) {
	return m.setRiskLevelFn(ctx, id, cmd)
}

func (m *mockSystem) ListActiveByOrg(context.Context, uuid.UUID) ([]patients.Patient, error) {
	return nil, nil
}

func newTestHandler(sys patients.System) *patients.Handler {
	return patients.NewHandler(
		sys,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)
}

func setupMux(h *patients.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		pattern := route.Method + " " + group.Prefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	return mux
}

func samplePatient() patients.Patient {
	return patients.Patient{
		ID:         uuid.MustParse("660e8400-e29b-41d4-a716-446655440000"),
		OrgID:      uuid.MustParse("770e8400-e29b-41d4-a716-446655440000"),
		Name:       "佐藤花子",
		NameKana:   "サトウハナコ",
		Age:        84,
		Sex:        "女性",
		Conditions: []string{"高血圧", "認知症"},
		RiskLevel:  risk.LevelLow,
		RiskSource: risk.SourceAuto,
		Status:     "active",
		CreatedAt:  time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
	}
}

func TestHandlerCreate(t *testing.T) {
	sys := &mockSystem{
		createFn: func(_ context.Context, cmd patients.CreateCommand) (*patients.Patient, error) {
			p := samplePatient()
			p.Name = cmd.Name
			return &p, nil
		},
	}

	mux := setupMux(newTestHandler(sys))
	body := strings.NewReader(`{"org_id":"770e8400-e29b-41d4-a716-446655440000","name":"佐藤花子","age":84}`)
	req := httptest.NewRequest("POST", "/patients", body)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var got patients.Patient
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Name != "佐藤花子" {
		t.Errorf("name = %q", got.Name)
	}
}

func TestHandlerSetRiskLevel(t *testing.T) {
	p := samplePatient()

	sys := &mockSystem{
		setRiskLevelFn: func(_ context.Context, id uuid.UUID, cmd risk.ManualCommand) (*patients.Patient, error) {
			if cmd.Level != risk.LevelHigh {
				t.Errorf("level = %s, want high", cmd.Level)
			}
			if cmd.CreatedBy != "主治医" {
				t.Errorf("created_by = %q", cmd.CreatedBy)
			}
			updated := p
			updated.RiskLevel = cmd.Level
			updated.RiskSource = risk.SourceManual
			return &updated, nil
		},
	}

	mux := setupMux(newTestHandler(sys))
	body := strings.NewReader(`{"level":"high","reason":"退院直後のため","created_by":"主治医"}`)
	req := httptest.NewRequest("POST", "/patients/"+p.ID.String()+"/risk-level", body)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var got patients.Patient
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.RiskLevel != risk.LevelHigh || got.RiskSource != risk.SourceManual {
		t.Errorf("risk = %s/%s, want high/manual", got.RiskLevel, got.RiskSource)
	}
}

func TestHandlerSetRiskLevelInvalid(t *testing.T) {
	sys := &mockSystem{
		setRiskLevelFn: func(context.Context, uuid.UUID, risk.ManualCommand) (*patients.Patient, error) {
			return nil, risk.ErrInvalidLevel
		},
	}

	mux := setupMux(newTestHandler(sys))
	body := strings.NewReader(`{"level":"critical","created_by":"主治医"}`)
	req := httptest.NewRequest("POST", "/patients/"+uuid.NewString()+"/risk-level", body)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerAlertsFilter(t *testing.T) {
	p := samplePatient()

	sys := &mockSystem{
		alertsFn: func(_ context.Context, id uuid.UUID, acknowledged *bool) ([]alerts.Alert, error) {
			if acknowledged == nil || *acknowledged {
				t.Errorf("acknowledged filter = %v, want false", acknowledged)
			}
			return []alerts.Alert{{
				ID:        uuid.New(),
				PatientID: id,
				Severity:  alerts.SeverityMedium,
				Title:     "食欲低下",
			}}, nil
		},
	}

	mux := setupMux(newTestHandler(sys))
	req := httptest.NewRequest("GET", "/patients/"+p.ID.String()+"/alerts?acknowledged=false", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var got []alerts.Alert
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 1 || got[0].Title != "食欲低下" {
		t.Errorf("unexpected alerts: %+v", got)
	}
}

func TestHandlerDetailNotFound(t *testing.T) {
	mux := setupMux(newTestHandler(&mockSystem{}))

	req := httptest.NewRequest("GET", "/patients/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
