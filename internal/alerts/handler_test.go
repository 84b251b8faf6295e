package alerts_test

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
	"github.com/mimamori/mimamori/pkg/pagination"
)

type mockSystem struct {
	catalog       *alerts.Catalog
	listFn        func(ctx context.Context, page pagination.PageRequest, filters alerts.Filters) (*pagination.PageResult[alerts.Alert], error)
	findFn        func(ctx context.Context, id uuid.UUID) (*alerts.Alert, error)
	acknowledgeFn func(ctx context.Context, id uuid.UUID, cmd alerts.AcknowledgeCommand) (*alerts.Alert, error)
	statsFn       func(ctx context.Context, orgID uuid.UUID) (*alerts.Stats, error)
}

func (m *mockSystem) Handler() *alerts.Handler {
	return newTestHandler(m)
}

func (m *mockSystem) Catalog() *alerts.Catalog {
	return m.catalog
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters alerts.Filters) (*pagination.PageResult[alerts.Alert], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) ListByPatient(context.Context, uuid.UUID, *bool, int) ([]alerts.Alert, error) {
	return nil, nil
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*alerts.Alert, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Create(context.Context, alerts.CreateCommand) (*alerts.Alert, bool, error) {
	return nil, false, nil
}

func (m *mockSystem) Acknowledge(ctx context.Context, id uuid.UUID, cmd alerts.AcknowledgeCommand) (*alerts.Alert, error) {
	return m.acknowledgeFn(ctx, id, cmd)
}

func (m *mockSystem) Stats(ctx context.Context, orgID uuid.UUID) (*alerts.Stats, error) {
	return m.statsFn(ctx, orgID)
}

func newTestHandler(sys alerts.System) *alerts.Handler {
	return alerts.NewHandler(
		sys,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)
}

func setupMux(h *alerts.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		pattern := route.Method + " " + group.Prefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	return mux
}

func sampleAlert() alerts.Alert {
	return alerts.Alert{
		ID:        uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		PatientID: uuid.MustParse("660e8400-e29b-41d4-a716-446655440000"),
		OrgID:     uuid.MustParse("770e8400-e29b-41d4-a716-446655440000"),
		PatternID: "vital-spo2-low",
		Severity:  alerts.SeverityHigh,
		Title:     "SpO2低下",
		Evidence:  []string{"SpO2 92%（基準 95%）"},
		CreatedAt: time.Date(2026, 2, 10, 6, 0, 0, 0, time.UTC),
	}
}

func TestHandlerList(t *testing.T) {
	a := sampleAlert()
	sys := &mockSystem{
		listFn: func(_ context.Context, _ pagination.PageRequest, filters alerts.Filters) (*pagination.PageResult[alerts.Alert], error) {
			if filters.Severity == nil || *filters.Severity != "high" {
				t.Errorf("severity filter not parsed: %+v", filters)
			}
			result := pagination.NewPageResult([]alerts.Alert{a}, 1, 1, 20)
			return &result, nil
		},
	}

	mux := setupMux(newTestHandler(sys))
	req := httptest.NewRequest("GET", "/alerts?severity=high", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var result pagination.PageResult[alerts.Alert]
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(result.Data) != 1 || result.Data[0].PatternID != "vital-spo2-low" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestHandlerStatsRequiresOrg(t *testing.T) {
	sys := &mockSystem{}
	mux := setupMux(newTestHandler(sys))

	req := httptest.NewRequest("GET", "/alerts/stats", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerAcknowledge(t *testing.T) {
	a := sampleAlert()
	ackedBy := "看護師A"

	sys := &mockSystem{
		acknowledgeFn: func(_ context.Context, id uuid.UUID, cmd alerts.AcknowledgeCommand) (*alerts.Alert, error) {
			if id != a.ID {
				t.Errorf("id = %s, want %s", id, a.ID)
			}
			if cmd.AcknowledgedBy != ackedBy {
				t.Errorf("acknowledged_by = %q, want %q", cmd.AcknowledgedBy, ackedBy)
			}
			acked := a
			acked.Acknowledged = true
			acked.AcknowledgedBy = &ackedBy
			return &acked, nil
		},
	}

	mux := setupMux(newTestHandler(sys))
	body := strings.NewReader(`{"acknowledged_by":"看護師A"}`)
	req := httptest.NewRequest("POST", "/alerts/"+a.ID.String()+"/acknowledge", body)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var got alerts.Alert
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !got.Acknowledged {
		t.Error("alert not acknowledged in response")
	}
}

func TestHandlerAcknowledgeRequiresActor(t *testing.T) {
	sys := &mockSystem{}
	mux := setupMux(newTestHandler(sys))

	req := httptest.NewRequest("POST", "/alerts/"+uuid.NewString()+"/acknowledge", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerFindNotFound(t *testing.T) {
	sys := &mockSystem{
		findFn: func(context.Context, uuid.UUID) (*alerts.Alert, error) {
			return nil, alerts.ErrNotFound
		},
	}
	mux := setupMux(newTestHandler(sys))

	req := httptest.NewRequest("GET", "/alerts/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
