package reports

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mimamori/mimamori/internal/bps"
	"github.com/mimamori/mimamori/pkg/pagination"
	"github.com/mimamori/mimamori/pkg/query"
	"github.com/mimamori/mimamori/pkg/repository"
	"github.com/mimamori/mimamori/pkg/storage"
)

type repo struct {
	db         *sql.DB
	classifier bps.Classifier
	aggregator *bps.Aggregator
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
	maxUpload  int64
}

// New creates a report repository implementing the System interface.
func New(
	db *sql.DB,
	classifier bps.Classifier,
	aggregator *bps.Aggregator,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxUpload int64,
) System {
	return &repo{
		db:         db,
		classifier: classifier,
		aggregator: aggregator,
		storage:    store,
		logger:     logger.With("system", "reports"),
		pagination: pagination,
		maxUpload:  maxUpload,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination, r.maxUpload)
}

const reportColumns = `id, patient_id, occurred_at, reporter_name,
		reporter_role, raw_text, bps, classified_at, acknowledged,
		acknowledged_by, acknowledged_at, created_at`

func (r *repo) Ingest(ctx context.Context, patientID uuid.UUID, cmd IngestCommand) (*Report, error) {
	text := strings.TrimSpace(cmd.Text)
	if text == "" {
		return nil, ErrEmptyText
	}

	occurredAt := time.Now().UTC()
	if cmd.OccurredAt != nil {
		occurredAt = cmd.OccurredAt.UTC()
	}

	role := cmd.ReporterRole
	if role == "" {
		role = InferRole(text)
	}

	var bpsJSON any
	var classifiedAt any
	classification, err := r.classifier.Classify(ctx, text)
	if err != nil {
		r.logger.Warn("classification failed, storing report unclassified",
			"patient_id", patientID,
			"error", err,
		)
	} else {
		data, err := json.Marshal(classification)
		if err != nil {
			return nil, fmt.Errorf("marshal classification: %w", err)
		}
		bpsJSON = data
		classifiedAt = time.Now().UTC()
	}

	insertQ := fmt.Sprintf(`
		INSERT INTO reports(
			patient_id, occurred_at, reporter_name, reporter_role,
			raw_text, bps, classified_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s`, reportColumns)

	report, err := repository.QueryOne(ctx, r.db, insertQ, []any{
		patientID, occurredAt, cmd.ReporterName, role, text, bpsJSON, classifiedAt,
	}, scanReport)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if report.BPS != nil {
		if _, err := r.Reaggregate(ctx, patientID); err != nil {
			r.logger.Error("context aggregation after ingest failed",
				"patient_id", patientID,
				"report_id", report.ID,
				"error", err,
			)
		}
	}

	r.logger.Info("report ingested",
		"id", report.ID,
		"patient_id", patientID,
		"reporter_role", role,
		"classified", report.BPS != nil,
	)
	return &report, nil
}

func (r *repo) List(ctx context.Context, patientID uuid.UUID, limit int) ([]Report, error) {
	if limit < 1 {
		limit = r.pagination.DefaultPageSize
	}

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("PatientID", patientID)

	q, args := qb.BuildPage(1, limit)
	items, err := repository.QueryMany(ctx, r.db, q, args, scanReport)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	return items, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Report, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	report, err := repository.QueryOne(ctx, r.db, q, args, scanReport)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &report, nil
}

func (r *repo) Reclassify(ctx context.Context, id uuid.UUID) (*Report, error) {
	existing, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	classification, err := r.classifier.Classify(ctx, existing.RawText)
	if err != nil {
		return nil, fmt.Errorf("reclassify report %s: %w", id, err)
	}

	data, err := json.Marshal(classification)
	if err != nil {
		return nil, fmt.Errorf("marshal classification: %w", err)
	}

	if existing.BPS != nil {
		prior, _ := json.Marshal(existing.BPS)
		r.logger.Info("overwriting previous classification",
			"report_id", id,
			"previous_bps", string(prior),
		)
	}

	updateQ := fmt.Sprintf(`
		UPDATE reports
		SET bps = $1, classified_at = NOW()
		WHERE id = $2
		RETURNING %s`, reportColumns)

	report, err := repository.QueryOne(ctx, r.db, updateQ, []any{data, id}, scanReport)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if _, err := r.Reaggregate(ctx, report.PatientID); err != nil {
		r.logger.Error("context aggregation after reclassify failed",
			"patient_id", report.PatientID,
			"report_id", id,
			"error", err,
		)
	}

	return &report, nil
}

func (r *repo) Acknowledge(ctx context.Context, id uuid.UUID, cmd AcknowledgeCommand) (*Report, error) {
	ackQ := fmt.Sprintf(`
		UPDATE reports
		SET acknowledged = TRUE, acknowledged_by = $1, acknowledged_at = NOW()
		WHERE id = $2 AND NOT acknowledged
		RETURNING %s`, reportColumns)

	report, err := repository.QueryOne(ctx, r.db, ackQ, []any{cmd.AcknowledgedBy, id}, scanReport)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("acknowledge report: %w", err)
		}

		// already acknowledged is a no-op success; missing is 404
		existing, findErr := r.Find(ctx, id)
		if findErr != nil {
			return nil, findErr
		}
		return existing, nil
	}

	r.logger.Info("report acknowledged", "id", id, "acknowledged_by", cmd.AcknowledgedBy)
	return &report, nil
}

func (r *repo) Context(ctx context.Context, patientID uuid.UUID) (*bps.Context, error) {
	q := `
		SELECT patient_id, bio, psycho, social, report_count, window_days, last_updated
		FROM bps_contexts
		WHERE patient_id = $1`

	c, err := repository.QueryOne(ctx, r.db, q, []any{patientID}, scanContext)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r.Reaggregate(ctx, patientID)
		}
		return nil, fmt.Errorf("query context: %w", err)
	}
	return &c, nil
}

func (r *repo) Reaggregate(ctx context.Context, patientID uuid.UUID) (*bps.Context, error) {
	since := time.Now().UTC().AddDate(0, 0, -r.aggregator.WindowDays())

	classified, err := r.ListClassifiedSince(ctx, patientID, since, 100)
	if err != nil {
		return nil, err
	}

	c, err := r.aggregator.Build(ctx, patientID, classified)
	if err != nil {
		return nil, fmt.Errorf("build context: %w", err)
	}

	bioJSON, err := json.Marshal(c.Bio)
	if err != nil {
		return nil, fmt.Errorf("marshal context: %w", err)
	}
	psychoJSON, err := json.Marshal(c.Psycho)
	if err != nil {
		return nil, fmt.Errorf("marshal context: %w", err)
	}
	socialJSON, err := json.Marshal(c.Social)
	if err != nil {
		return nil, fmt.Errorf("marshal context: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO bps_contexts(patient_id, bio, psycho, social, report_count, window_days, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (patient_id) DO UPDATE SET
			bio = EXCLUDED.bio,
			psycho = EXCLUDED.psycho,
			social = EXCLUDED.social,
			report_count = EXCLUDED.report_count,
			window_days = EXCLUDED.window_days,
			last_updated = EXCLUDED.last_updated`,
		patientID, bioJSON, psychoJSON, socialJSON, c.ReportCount, c.WindowDays, c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert context: %w", err)
	}

	return c, nil
}

func (r *repo) ListClassifiedSince(ctx context.Context, patientID uuid.UUID, since time.Time, limit int) ([]bps.ClassifiedReport, error) {
	if limit < 1 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT bps, created_at
		FROM reports
		WHERE patient_id = $1 AND bps IS NOT NULL AND created_at >= $2
		ORDER BY created_at ASC
		LIMIT $3`,
		patientID, since, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query classified reports: %w", err)
	}
	defer rows.Close()

	classified := make([]bps.ClassifiedReport, 0)
	for rows.Next() {
		var raw []byte
		var cr bps.ClassifiedReport
		if err := rows.Scan(&raw, &cr.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &cr.Classification); err != nil {
			return nil, fmt.Errorf("unmarshal bps: %w", err)
		}
		classified = append(classified, cr)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return classified, nil
}

func scanContext(s repository.Scanner) (bps.Context, error) {
	var c bps.Context
	var bioRaw, psychoRaw, socialRaw []byte

	err := s.Scan(
		&c.PatientID,
		&bioRaw,
		&psychoRaw,
		&socialRaw,
		&c.ReportCount,
		&c.WindowDays,
		&c.UpdatedAt,
	)
	if err != nil {
		return c, err
	}

	if err := json.Unmarshal(bioRaw, &c.Bio); err != nil {
		return c, fmt.Errorf("unmarshal bio summary: %w", err)
	}
	if err := json.Unmarshal(psychoRaw, &c.Psycho); err != nil {
		return c, fmt.Errorf("unmarshal psycho summary: %w", err)
	}
	if err := json.Unmarshal(socialRaw, &c.Social); err != nil {
		return c, fmt.Errorf("unmarshal social summary: %w", err)
	}

	return c, nil
}
