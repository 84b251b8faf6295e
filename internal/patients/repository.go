package patients

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mimamori/mimamori/internal/alerts"
	"github.com/mimamori/mimamori/internal/reports"
	"github.com/mimamori/mimamori/internal/risk"
	"github.com/mimamori/mimamori/pkg/pagination"
	"github.com/mimamori/mimamori/pkg/query"
	"github.com/mimamori/mimamori/pkg/repository"
)

const (
	detailReportLimit  = 10
	detailAlertLimit   = 20
	detailHistoryLimit = 20
)

type repo struct {
	db         *sql.DB
	reports    reports.System
	alerts     alerts.System
	risk       risk.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a patient repository implementing the System interface.
// The sibling systems feed the aggregated detail view and manual risk changes.
func New(
	db *sql.DB,
	reportSys reports.System,
	alertSys alerts.System,
	riskSys risk.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		reports:    reportSys,
		alerts:     alertSys,
		risk:       riskSys,
		logger:     logger.With("system", "patients"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

const patientColumns = `id, org_id, name, name_kana, age, sex, conditions,
		facility, area, risk_level, risk_source, status, created_at, updated_at`

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Patient], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Name", "NameKana")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count patients: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanPatient)
	if err != nil {
		return nil, fmt.Errorf("query patients: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Patient, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	p, err := repository.QueryOne(ctx, r.db, q, args, scanPatient)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}

func (r *repo) Detail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	p, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	recentReports, err := r.reports.List(ctx, id, detailReportLimit)
	if err != nil {
		return nil, fmt.Errorf("detail reports: %w", err)
	}

	patientAlerts, err := r.alerts.ListByPatient(ctx, id, nil, detailAlertLimit)
	if err != nil {
		return nil, fmt.Errorf("detail alerts: %w", err)
	}

	c, err := r.reports.Context(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("detail context: %w", err)
	}

	history, err := r.risk.History(ctx, id, detailHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("detail risk history: %w", err)
	}

	return &Detail{
		Patient:       *p,
		RecentReports: recentReports,
		Alerts:        patientAlerts,
		Context:       c,
		RiskHistory:   history,
	}, nil
}

func (r *repo) Alerts(ctx context.Context, id uuid.UUID, acknowledged *bool) ([]alerts.Alert, error) {
	if _, err := r.Find(ctx, id); err != nil {
		return nil, err
	}
	return r.alerts.ListByPatient(ctx, id, acknowledged, detailAlertLimit)
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Patient, error) {
	if strings.TrimSpace(cmd.Name) == "" {
		return nil, ErrNameRequired
	}

	conditionsJSON, err := json.Marshal(orEmpty(cmd.Conditions))
	if err != nil {
		return nil, fmt.Errorf("marshal conditions: %w", err)
	}

	insertQ := fmt.Sprintf(`
		INSERT INTO patients(org_id, name, name_kana, age, sex, conditions, facility, area)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING %s`, patientColumns)

	p, err := repository.QueryOne(ctx, r.db, insertQ, []any{
		cmd.OrgID, cmd.Name, cmd.NameKana, cmd.Age, cmd.Sex,
		conditionsJSON, cmd.Facility, cmd.Area,
	}, scanPatient)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("patient registered", "id", p.ID, "org_id", p.OrgID)
	return &p, nil
}

func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Patient, error) {
	if cmd.Status != nil && *cmd.Status != StatusActive && *cmd.Status != StatusInactive {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, *cmd.Status)
	}

	var conditionsJSON any
	if cmd.Conditions != nil {
		data, err := json.Marshal(cmd.Conditions)
		if err != nil {
			return nil, fmt.Errorf("marshal conditions: %w", err)
		}
		conditionsJSON = data
	}

	updateQ := fmt.Sprintf(`
		UPDATE patients SET
			name = COALESCE($1, name),
			name_kana = COALESCE($2, name_kana),
			age = COALESCE($3, age),
			sex = COALESCE($4, sex),
			conditions = COALESCE($5, conditions),
			facility = COALESCE($6, facility),
			area = COALESCE($7, area),
			status = COALESCE($8, status),
			updated_at = NOW()
		WHERE id = $9
		RETURNING %s`, patientColumns)

	p, err := repository.QueryOne(ctx, r.db, updateQ, []any{
		cmd.Name, cmd.NameKana, cmd.Age, cmd.Sex,
		conditionsJSON, cmd.Facility, cmd.Area, cmd.Status, id,
	}, scanPatient)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("patient updated", "id", id)
	return &p, nil
}

func (r *repo) SetRiskLevel(ctx context.Context, id uuid.UUID, cmd risk.ManualCommand) (*Patient, error) {
	if _, err := r.risk.SetManual(ctx, id, cmd); err != nil {
		return nil, err
	}
	return r.Find(ctx, id)
}

func (r *repo) ListActiveByOrg(ctx context.Context, orgID uuid.UUID) ([]Patient, error) {
	status := StatusActive
	qb := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("OrgID", orgID).
		WhereEquals("Status", &status)

	q, args := qb.Build()
	items, err := repository.QueryMany(ctx, r.db, q, args, scanPatient)
	if err != nil {
		return nil, fmt.Errorf("query active patients: %w", err)
	}
	return items, nil
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
