package risk

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mimamori/mimamori/pkg/repository"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a risk repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "risk"),
	}
}

const entryColumns = `id, patient_id, previous_level, new_level, source,
		reason, trigger_event, alert_snapshot, created_by, created_at`

func (r *repo) Recalculate(ctx context.Context, patientID uuid.UUID, trigger string) (*Entry, error) {
	current, source, err := r.patientState(ctx, patientID)
	if err != nil {
		return nil, err
	}

	counts, lastAlertAt, err := r.alertState(ctx, patientID)
	if err != nil {
		return nil, err
	}

	level, reason := Calculate(Input{
		Current:     current,
		Source:      source,
		Counts:      counts,
		LastAlertAt: lastAlertAt,
		Now:         time.Now().UTC(),
	})

	if level == current {
		return nil, nil
	}

	entry, err := r.transition(ctx, patientID, current, level, SourceAuto, reason, trigger, counts, nil)
	if err != nil {
		return nil, err
	}

	r.logger.Info("risk level recalculated",
		"patient_id", patientID,
		"previous", current,
		"new", level,
		"trigger", trigger,
	)
	return entry, nil
}

func (r *repo) SetManual(ctx context.Context, patientID uuid.UUID, cmd ManualCommand) (*Entry, error) {
	if !cmd.Level.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidLevel, cmd.Level)
	}

	current, _, err := r.patientState(ctx, patientID)
	if err != nil {
		return nil, err
	}

	counts, _, err := r.alertState(ctx, patientID)
	if err != nil {
		return nil, err
	}

	reason := cmd.Reason
	if reason == "" {
		reason = "手動変更"
	}

	entry, err := r.transition(ctx, patientID, current, cmd.Level, SourceManual, reason, "manual", counts, &cmd.CreatedBy)
	if err != nil {
		return nil, err
	}

	r.logger.Info("risk level set manually",
		"patient_id", patientID,
		"previous", current,
		"new", cmd.Level,
		"created_by", cmd.CreatedBy,
	)
	return entry, nil
}

func (r *repo) History(ctx context.Context, patientID uuid.UUID, limit int) ([]Entry, error) {
	if limit < 1 {
		limit = 20
	}

	q := fmt.Sprintf(`
		SELECT %s FROM risk_history
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, entryColumns)

	entries, err := repository.QueryMany(ctx, r.db, q, []any{patientID, limit}, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("query risk history: %w", err)
	}
	return entries, nil
}

func (r *repo) patientState(ctx context.Context, patientID uuid.UUID) (Level, Source, error) {
	var level Level
	var source Source

	err := r.db.QueryRowContext(
		ctx,
		"SELECT risk_level, risk_source FROM patients WHERE id = $1",
		patientID,
	).Scan(&level, &source)

	if err != nil {
		return "", "", repository.MapError(err, ErrPatientNotFound, ErrPatientNotFound)
	}
	return level, source, nil
}

func (r *repo) alertState(ctx context.Context, patientID uuid.UUID) (Snapshot, *time.Time, error) {
	var counts Snapshot
	var lastAlertAt sql.NullTime

	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE severity = 'high' AND NOT acknowledged),
			COUNT(*) FILTER (WHERE severity = 'medium' AND NOT acknowledged),
			COUNT(*) FILTER (WHERE severity = 'low' AND NOT acknowledged),
			MAX(created_at)
		FROM alerts
		WHERE patient_id = $1`,
		patientID,
	).Scan(&counts.High, &counts.Medium, &counts.Low, &lastAlertAt)

	if err != nil {
		return Snapshot{}, nil, fmt.Errorf("query alert state: %w", err)
	}

	if !lastAlertAt.Valid {
		return counts, nil, nil
	}
	return counts, &lastAlertAt.Time, nil
}

// transition applies a level change and appends the history entry in one
// transaction. The patient update is guarded on the expected previous level
// so concurrent recalculations cannot fork the chain.
func (r *repo) transition(
	ctx context.Context,
	patientID uuid.UUID,
	previous, next Level,
	source Source,
	reason, trigger string,
	counts Snapshot,
	createdBy *string,
) (*Entry, error) {
	snapshotJSON, err := json.Marshal(counts)
	if err != nil {
		return nil, fmt.Errorf("marshal alert snapshot: %w", err)
	}

	insertQ := fmt.Sprintf(`
		INSERT INTO risk_history(
			patient_id, previous_level, new_level, source,
			reason, trigger_event, alert_snapshot, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING %s`, entryColumns)

	entry, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Entry, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			`UPDATE patients
			 SET risk_level = $1, risk_source = $2, updated_at = NOW()
			 WHERE id = $3 AND risk_level = $4`,
			next, source, patientID, previous,
		); err != nil {
			return Entry{}, ErrChainConflict
		}

		e, err := repository.QueryOne(
			ctx, tx, insertQ,
			[]any{patientID, previous, next, source, reason, trigger, snapshotJSON, createdBy},
			scanEntry,
		)
		if err != nil {
			return Entry{}, fmt.Errorf("insert risk history: %w", err)
		}
		return e, nil
	})

	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func scanEntry(s repository.Scanner) (Entry, error) {
	var e Entry
	var snapshotRaw []byte

	err := s.Scan(
		&e.ID,
		&e.PatientID,
		&e.PreviousLevel,
		&e.NewLevel,
		&e.Source,
		&e.Reason,
		&e.Trigger,
		&snapshotRaw,
		&e.CreatedBy,
		&e.CreatedAt,
	)

	if err != nil {
		return e, err
	}

	if len(snapshotRaw) > 0 {
		if err := json.Unmarshal(snapshotRaw, &e.AlertSnapshot); err != nil {
			return e, fmt.Errorf("unmarshal alert snapshot: %w", err)
		}
	}

	return e, nil
}
