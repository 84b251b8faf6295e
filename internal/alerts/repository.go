package alerts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mimamori/mimamori/internal/risk"
	"github.com/mimamori/mimamori/pkg/pagination"
	"github.com/mimamori/mimamori/pkg/query"
	"github.com/mimamori/mimamori/pkg/repository"
)

type repo struct {
	db         *sql.DB
	catalog    *Catalog
	risk       risk.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an alert repository implementing the System interface.
func New(
	db *sql.DB,
	catalog *Catalog,
	riskSys risk.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		catalog:    catalog,
		risk:       riskSys,
		logger:     logger.With("system", "alerts"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) Catalog() *Catalog {
	return r.catalog
}

const alertColumns = `id, patient_id, org_id, pattern_id, severity, title,
		message, evidence, recommendations, acknowledged, acknowledged_by,
		acknowledged_at, created_at`

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Alert], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Title", "Message")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count alerts: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanAlert)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) ListByPatient(ctx context.Context, patientID uuid.UUID, acknowledged *bool, limit int) ([]Alert, error) {
	if limit < 1 {
		limit = 50
	}

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("PatientID", patientID).
		WhereEquals("Acknowledged", acknowledged)

	q, args := qb.BuildPage(1, limit)
	items, err := repository.QueryMany(ctx, r.db, q, args, scanAlert)
	if err != nil {
		return nil, fmt.Errorf("query patient alerts: %w", err)
	}
	return items, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Alert, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	a, err := repository.QueryOne(ctx, r.db, q, args, scanAlert)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &a, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Alert, bool, error) {
	if !cmd.Severity.Valid() {
		return nil, false, fmt.Errorf("%w: %s", ErrInvalidSeverity, cmd.Severity)
	}

	evidenceJSON, err := json.Marshal(orEmpty(cmd.Evidence))
	if err != nil {
		return nil, false, fmt.Errorf("marshal evidence: %w", err)
	}
	recommendationsJSON, err := json.Marshal(orEmpty(cmd.Recommendations))
	if err != nil {
		return nil, false, fmt.Errorf("marshal recommendations: %w", err)
	}

	insertQ := fmt.Sprintf(`
		INSERT INTO alerts(
			patient_id, org_id, pattern_id, severity, title,
			message, evidence, recommendations
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (patient_id, pattern_id, created_on) DO NOTHING
		RETURNING %s`, alertColumns)

	a, err := repository.QueryOne(ctx, r.db, insertQ, []any{
		cmd.PatientID,
		cmd.OrgID,
		cmd.PatternID,
		cmd.Severity,
		cmd.Title,
		cmd.Message,
		evidenceJSON,
		recommendationsJSON,
	}, scanAlert)

	if err != nil {
		// ON CONFLICT DO NOTHING returns no row on a dedup hit
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug("alert deduplicated",
				"patient_id", cmd.PatientID,
				"pattern_id", cmd.PatternID,
			)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("insert alert: %w", err)
	}

	r.logger.Info("alert raised",
		"id", a.ID,
		"patient_id", a.PatientID,
		"pattern_id", a.PatternID,
		"severity", a.Severity,
	)
	return &a, true, nil
}

func (r *repo) Acknowledge(ctx context.Context, id uuid.UUID, cmd AcknowledgeCommand) (*Alert, error) {
	ackQ := fmt.Sprintf(`
		UPDATE alerts
		SET acknowledged = TRUE, acknowledged_by = $1, acknowledged_at = NOW()
		WHERE id = $2 AND NOT acknowledged
		RETURNING %s`, alertColumns)

	a, err := repository.QueryOne(ctx, r.db, ackQ, []any{cmd.AcknowledgedBy, id}, scanAlert)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("acknowledge alert: %w", err)
		}

		// already acknowledged is a no-op success; missing is 404
		existing, findErr := r.Find(ctx, id)
		if findErr != nil {
			return nil, findErr
		}
		return existing, nil
	}

	if _, err := r.risk.Recalculate(ctx, a.PatientID, "alert_acknowledged"); err != nil {
		r.logger.Error("risk recalculation after acknowledge failed",
			"alert_id", a.ID,
			"patient_id", a.PatientID,
			"error", err,
		)
	}

	r.logger.Info("alert acknowledged", "id", a.ID, "acknowledged_by", cmd.AcknowledgedBy)
	return &a, nil
}

func (r *repo) Stats(ctx context.Context, orgID uuid.UUID) (*Stats, error) {
	var s Stats
	var high, medium, low int

	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE NOT acknowledged),
			COUNT(*) FILTER (WHERE severity = 'high' AND NOT acknowledged),
			COUNT(*) FILTER (WHERE severity = 'medium' AND NOT acknowledged),
			COUNT(*) FILTER (WHERE severity = 'low' AND NOT acknowledged)
		FROM alerts
		WHERE org_id = $1`,
		orgID,
	).Scan(&s.Total, &s.Unacknowledged, &high, &medium, &low)

	if err != nil {
		return nil, fmt.Errorf("query alert stats: %w", err)
	}

	s.BySeverity = map[Severity]int{
		SeverityHigh:   high,
		SeverityMedium: medium,
		SeverityLow:    low,
	}
	return &s, nil
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
