package dashboard

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mimamori/mimamori/internal/risk"
	"github.com/mimamori/mimamori/pkg/repository"
)

const defaultNightHours = 14

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a dashboard system over direct SQL reads.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "dashboard"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func scanNightPatient(s repository.Scanner) (NightPatient, error) {
	var (
		p      NightPatient
		latest sql.NullTime
	)

	err := s.Scan(
		&p.PatientID,
		&p.Name,
		&p.ReportCount,
		&p.AlertCount,
		&latest,
		&p.LatestSnippet,
	)
	if err != nil {
		return p, err
	}

	if latest.Valid {
		p.LatestReportAt = &latest.Time
	}
	return p, nil
}

func (r *repo) NightSummary(ctx context.Context, orgID uuid.UUID, hours int) (*NightSummary, error) {
	if hours <= 0 {
		hours = defaultNightHours
	}
	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)

	q := `
		SELECT p.id, p.name,
			COALESCE(rc.count, 0), COALESCE(ac.count, 0),
			rc.latest_at, COALESCE(rc.latest_text, '')
		FROM patients p
		LEFT JOIN LATERAL (
			SELECT COUNT(*) AS count,
				MAX(created_at) AS latest_at,
				(SELECT LEFT(raw_text, 80) FROM reports
					WHERE patient_id = p.id AND created_at >= $2
					ORDER BY created_at DESC LIMIT 1) AS latest_text
			FROM reports
			WHERE patient_id = p.id AND created_at >= $2
		) rc ON TRUE
		LEFT JOIN LATERAL (
			SELECT COUNT(*) AS count
			FROM alerts
			WHERE patient_id = p.id AND created_at >= $2
		) ac ON TRUE
		WHERE p.org_id = $1
			AND (rc.count > 0 OR ac.count > 0)
		ORDER BY rc.count DESC, p.name`

	rows, err := repository.QueryMany(ctx, r.db, q, []any{orgID, since}, scanNightPatient)
	if err != nil {
		return nil, fmt.Errorf("night summary: %w", err)
	}

	return &NightSummary{
		Since:    since,
		Hours:    hours,
		Patients: rows,
	}, nil
}

func (r *repo) Stats(ctx context.Context, orgID uuid.UUID) (*Stats, error) {
	stats := &Stats{
		PatientsByRisk: make(map[risk.Level]int),
	}

	var high, medium, low int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE risk_level = 'high'),
			COUNT(*) FILTER (WHERE risk_level = 'medium'),
			COUNT(*) FILTER (WHERE risk_level = 'low')
		FROM patients
		WHERE org_id = $1 AND status = 'active'`, orgID).
		Scan(&stats.Patients, &high, &medium, &low)
	if err != nil {
		return nil, fmt.Errorf("patient stats: %w", err)
	}
	stats.PatientsByRisk[risk.LevelHigh] = high
	stats.PatientsByRisk[risk.LevelMedium] = medium
	stats.PatientsByRisk[risk.LevelLow] = low

	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM reports r
		JOIN patients p ON p.id = r.patient_id
		WHERE p.org_id = $1 AND r.created_at >= date_trunc('day', NOW())`, orgID).
		Scan(&stats.ReportsToday)
	if err != nil {
		return nil, fmt.Errorf("report stats: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM alerts
		WHERE org_id = $1 AND NOT acknowledged`, orgID).
		Scan(&stats.UnacknowledgedAlerts)
	if err != nil {
		return nil, fmt.Errorf("alert stats: %w", err)
	}

	return stats, nil
}
