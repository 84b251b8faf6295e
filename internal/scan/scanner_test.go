package scan_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mimamori/mimamori/internal/alerts"
	"github.com/mimamori/mimamori/internal/bps"
	"github.com/mimamori/mimamori/internal/patients"
	"github.com/mimamori/mimamori/internal/reports"
	"github.com/mimamori/mimamori/internal/risk"
	"github.com/mimamori/mimamori/internal/scan"
	"github.com/mimamori/mimamori/pkg/pagination"
)

type mockPatients struct {
	roster []patients.Patient
	findFn func(ctx context.Context, id uuid.UUID) (*patients.Patient, error)
}

func (m *mockPatients) Handler() *patients.Handler { return nil }

func (m *mockPatients) List(context.Context, pagination.PageRequest, patients.Filters) (*pagination.PageResult[patients.Patient], error) {
	return nil, nil
}

func (m *mockPatients) Find(ctx context.Context, id uuid.UUID) (*patients.Patient, error) {
	return m.findFn(ctx, id)
}

func (m *mockPatients) Detail(context.Context, uuid.UUID) (*patients.Detail, error) {
	return nil, nil
}

func (m *mockPatients) Create(context.Context, patients.CreateCommand) (*patients.Patient, error) {
	return nil, nil
}

func (m *mockPatients) Update(context.Context, uuid.UUID, patients.UpdateCommand) (*patients.Patient, error) {
	return nil, nil
}

func (m *mockPatients) Alerts(context.Context, uuid.UUID, *bool) ([]alerts.Alert, error) {
	return nil, nil
}

func (m *mockPatients) SetRiskLevel(context.Context, uuid.UUID, risk.ManualCommand) (*patients.Patient, error) {
	return nil, nil
}

func (m *mockPatients) ListActiveByOrg(context.Context, uuid.UUID) ([]patients.Patient, error) {
	return m.roster, nil
}

type mockReports struct {
	classifiedFn func(ctx context.Context, patientID uuid.UUID, since time.Time, limit int) ([]bps.ClassifiedReport, error)
}

func (m *mockReports) Handler() *reports.Handler { return nil }

func (m *mockReports) Ingest(context.Context, uuid.UUID, reports.IngestCommand) (*reports.Report, error) {
	return nil, nil
}

func (m *mockReports) List(context.Context, uuid.UUID, int) ([]reports.Report, error) {
	return nil, nil
}

func (m *mockReports) Find(context.Context, uuid.UUID) (*reports.Report, error) {
	return nil, nil
}

func (m *mockReports) Reclassify(context.Context, uuid.UUID) (*reports.Report, error) {
	return nil, nil
}

func (m *mockReports) Acknowledge(context.Context, uuid.UUID, reports.AcknowledgeCommand) (*reports.Report, error) {
	return nil, nil
}

func (m *mockReports) Context(ctx context.Context, patientID uuid.UUID) (*bps.Context, error) {
	return &bps.Context{PatientID: patientID, WindowDays: 30}, nil
}

func (m *mockReports) Reaggregate(context.Context, uuid.UUID) (*bps.Context, error) {
	return nil, nil
}

func (m *mockReports) ListClassifiedSince(ctx context.Context, patientID uuid.UUID, since time.Time, limit int) ([]bps.ClassifiedReport, error) {
	return m.classifiedFn(ctx, patientID, since, limit)
}

func (m *mockReports) AttachFile(context.Context, uuid.UUID, string, string, string, int64, io.Reader) (*reports.ReportFile, error) {
	return nil, nil
}

func (m *mockReports) ListFiles(context.Context, uuid.UUID) ([]reports.ReportFile, error) {
	return nil, nil
}

func (m *mockReports) DownloadFile(context.Context, uuid.UUID) (*reports.ReportFile, io.ReadCloser, error) {
	return nil, nil, nil
}

type mockAlerts struct {
	catalog  *alerts.Catalog
	createFn func(ctx context.Context, cmd alerts.CreateCommand) (*alerts.Alert, bool, error)
}

func (m *mockAlerts) Handler() *alerts.Handler { return nil }

func (m *mockAlerts) Catalog() *alerts.Catalog { return m.catalog }

func (m *mockAlerts) List(context.Context, pagination.PageRequest, alerts.Filters) (*pagination.PageResult[alerts.Alert], error) {
	return nil, nil
}

func (m *mockAlerts) ListByPatient(context.Context, uuid.UUID, *bool, int) ([]alerts.Alert, error) {
	return nil, nil
}

func (m *mockAlerts) Find(context.Context, uuid.UUID) (*alerts.Alert, error) {
	return nil, nil
}

func (m *mockAlerts) Create(ctx context.Context, cmd alerts.CreateCommand) (*alerts.Alert, bool, error) {
	return m.createFn(ctx, cmd)
}

func (m *mockAlerts) Acknowledge(context.Context, uuid.UUID, alerts.AcknowledgeCommand) (*alerts.Alert, error) {
	return nil, nil
}

func (m *mockAlerts) Stats(context.Context, uuid.UUID) (*alerts.Stats, error) {
	return nil, nil
}

type mockRisk struct {
	recalculated []uuid.UUID
}

func (m *mockRisk) Recalculate(_ context.Context, patientID uuid.UUID, _ string) (*risk.Entry, error) {
	m.recalculated = append(m.recalculated, patientID)
	return nil, nil
}

func (m *mockRisk) SetManual(context.Context, uuid.UUID, risk.ManualCommand) (*risk.Entry, error) {
	return nil, nil
}

func (m *mockRisk) History(context.Context, uuid.UUID, int) ([]risk.Entry, error) {
	return nil, nil
}

func classifiedWorsening(at time.Time) bps.ClassifiedReport {
	c := bps.NewClassification()
	c.Append(bps.AxisBio, bps.Finding{
		Label:    "SpO2",
		Text:     "SpO2 92%",
		Polarity: bps.Worsening,
		Vital:    &bps.VitalReading{Type: "SpO2", Value: 92, Unit: "%"},
	})
	return bps.ClassifiedReport{Classification: *c, CreatedAt: at}
}

func testPatient(name string) patients.Patient {
	return patients.Patient{
		ID:     uuid.New(),
		OrgID:  uuid.MustParse("770e8400-e29b-41d4-a716-446655440000"),
		Name:   name,
		Status: "active",
	}
}

func newTestRuntime(p *mockPatients, r *mockReports, a *mockAlerts, rk *mockRisk) *scan.Runtime {
	return &scan.Runtime{
		AgentEnabled: false,
		Patients:     p,
		Reports:      r,
		Alerts:       a,
		Risk:         rk,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func newCatalog(t *testing.T) *alerts.Catalog {
	t.Helper()
	catalog, err := alerts.NewCatalog(nil)
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	return catalog
}

func TestScanPatientCreatesAlerts(t *testing.T) {
	patient := testPatient("佐藤花子")

	mp := &mockPatients{
		findFn: func(_ context.Context, id uuid.UUID) (*patients.Patient, error) {
			p := patient
			return &p, nil
		},
	}
	mr := &mockReports{
		classifiedFn: func(context.Context, uuid.UUID, time.Time, int) ([]bps.ClassifiedReport, error) {
			return []bps.ClassifiedReport{
				classifiedWorsening(time.Date(2026, 2, 9, 10, 0, 0, 0, time.UTC)),
			}, nil
		},
	}
	rk := &mockRisk{}
	ma := &mockAlerts{
		catalog: newCatalog(t),
		createFn: func(_ context.Context, cmd alerts.CreateCommand) (*alerts.Alert, bool, error) {
			if cmd.PatientID != patient.ID {
				t.Errorf("create patient id = %s, want %s", cmd.PatientID, patient.ID)
			}
			if cmd.OrgID != patient.OrgID {
				t.Errorf("create org id = %s, want %s", cmd.OrgID, patient.OrgID)
			}
			return &alerts.Alert{
				ID:        uuid.New(),
				PatientID: cmd.PatientID,
				PatternID: cmd.PatternID,
				Severity:  cmd.Severity,
				Title:     cmd.Title,
			}, true, nil
		},
	}

	sys := scan.New(newTestRuntime(mp, mr, ma, rk), 3, 30*time.Second, 2)

	result, err := sys.ScanPatient(context.Background(), patient.ID)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if !result.Success {
		t.Errorf("result not successful: %+v", result)
	}
	if len(result.Alerts) == 0 {
		t.Fatal("no alerts created for low SpO2 reading")
	}
	if len(rk.recalculated) != 1 || rk.recalculated[0] != patient.ID {
		t.Errorf("risk not recalculated once for patient: %v", rk.recalculated)
	}
}

func TestScanPatientDedupSkipsRecalculation(t *testing.T) {
	patient := testPatient("佐藤花子")

	mp := &mockPatients{
		findFn: func(_ context.Context, id uuid.UUID) (*patients.Patient, error) {
			p := patient
			return &p, nil
		},
	}
	mr := &mockReports{
		classifiedFn: func(context.Context, uuid.UUID, time.Time, int) ([]bps.ClassifiedReport, error) {
			return []bps.ClassifiedReport{
				classifiedWorsening(time.Date(2026, 2, 9, 10, 0, 0, 0, time.UTC)),
			}, nil
		},
	}
	rk := &mockRisk{}
	ma := &mockAlerts{
		catalog: newCatalog(t),
		createFn: func(context.Context, alerts.CreateCommand) (*alerts.Alert, bool, error) {
			// Already raised today; the dedup index drops the insert.
			return nil, false, nil
		},
	}

	sys := scan.New(newTestRuntime(mp, mr, ma, rk), 3, 30*time.Second, 2)

	result, err := sys.ScanPatient(context.Background(), patient.ID)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(result.Alerts) != 0 {
		t.Errorf("deduped detections should create no alerts: %+v", result.Alerts)
	}
	if len(rk.recalculated) != 0 {
		t.Errorf("risk recalculated with no new alerts: %v", rk.recalculated)
	}
}

func TestScanAllIsolatesFailures(t *testing.T) {
	healthy := testPatient("佐藤花子")
	broken := testPatient("田中一郎")

	mp := &mockPatients{
		roster: []patients.Patient{healthy, broken},
		findFn: func(_ context.Context, id uuid.UUID) (*patients.Patient, error) {
			if id == broken.ID {
				return nil, errors.New("connection reset")
			}
			p := healthy
			return &p, nil
		},
	}
	mr := &mockReports{
		classifiedFn: func(context.Context, uuid.UUID, time.Time, int) ([]bps.ClassifiedReport, error) {
			return nil, nil
		},
	}
	rk := &mockRisk{}
	ma := &mockAlerts{
		catalog: newCatalog(t),
		createFn: func(context.Context, alerts.CreateCommand) (*alerts.Alert, bool, error) {
			return nil, false, nil
		},
	}

	sys := scan.New(newTestRuntime(mp, mr, ma, rk), 3, 30*time.Second, 2)

	batch, err := sys.ScanAll(context.Background(), healthy.OrgID, 0)
	if err != nil {
		t.Fatalf("batch scan failed: %v", err)
	}
	if !batch.Success {
		t.Errorf("batch not successful: %+v", batch)
	}
	if len(batch.ScanResults) != 2 {
		t.Fatalf("results = %d, want 2", len(batch.ScanResults))
	}

	if batch.ScanResults[0].Error != "" {
		t.Errorf("healthy patient recorded error: %q", batch.ScanResults[0].Error)
	}
	if batch.ScanResults[1].Error == "" {
		t.Error("broken patient recorded no error")
	}
	if !strings.Contains(batch.Report, "スキャン失敗") {
		t.Errorf("digest missing failure line:\n%s", batch.Report)
	}
}
