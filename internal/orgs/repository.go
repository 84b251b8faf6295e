package orgs

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

// New creates an organization repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "orgs"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

const orgColumns = `id, name, timezone, alert_scan_times, morning_scan_time,
	digest_channel, created_at, updated_at`

func scanOrg(s repository.Scanner) (Organization, error) {
	var (
		o     Organization
		times []byte
	)

	err := s.Scan(
		&o.ID,
		&o.Name,
		&o.Timezone,
		&times,
		&o.MorningScanTime,
		&o.DigestChannel,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return o, err
	}

	if len(times) > 0 {
		if err := json.Unmarshal(times, &o.AlertScanTimes); err != nil {
			return o, fmt.Errorf("decode alert_scan_times: %w", err)
		}
	}
	return o, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Organization, error) {
	q := fmt.Sprintf(`SELECT %s FROM organizations WHERE id = $1`, orgColumns)

	o, err := repository.QueryOne(ctx, r.db, q, []any{id}, scanOrg)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, nil)
	}
	return &o, nil
}

func (r *repo) List(ctx context.Context) ([]Organization, error) {
	q := fmt.Sprintf(`SELECT %s FROM organizations ORDER BY name`, orgColumns)
	return repository.QueryMany(ctx, r.db, q, nil, scanOrg)
}

func (r *repo) UpdateAlertSchedule(ctx context.Context, id uuid.UUID, cmd UpdateScheduleCommand) (*Organization, error) {
	if len(cmd.AlertScanTimes) == 0 {
		return nil, ErrNoScanTimes
	}
	for _, t := range cmd.AlertScanTimes {
		if !ValidClock(t) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTime, t)
		}
	}

	times, err := json.Marshal(cmd.AlertScanTimes)
	if err != nil {
		return nil, fmt.Errorf("encode alert_scan_times: %w", err)
	}

	q := fmt.Sprintf(`
		UPDATE organizations
		SET alert_scan_times = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING %s`, orgColumns)

	o, err := repository.QueryOne(ctx, r.db, q, []any{times, id}, scanOrg)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, nil)
	}

	r.logger.Info("alert schedule updated",
		"org", id,
		"times", cmd.AlertScanTimes)
	return &o, nil
}

func (r *repo) UpdateMorningScanTime(ctx context.Context, id uuid.UUID, cmd UpdateMorningCommand) (*Organization, error) {
	if !ValidClock(cmd.Time) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTime, cmd.Time)
	}

	q := fmt.Sprintf(`
		UPDATE organizations
		SET morning_scan_time = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING %s`, orgColumns)

	o, err := repository.QueryOne(ctx, r.db, q, []any{cmd.Time, id}, scanOrg)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, nil)
	}

	r.logger.Info("morning scan time updated",
		"org", id,
		"time", cmd.Time)
	return &o, nil
}

func (r *repo) ClaimScanSlot(ctx context.Context, id uuid.UUID, date time.Time, slot string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO scan_runs (org_id, scheduled_on, slot, started_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (org_id, scheduled_on, slot) DO NOTHING`,
		id, date.Format("2006-01-02"), slot)
	if err != nil {
		return false, fmt.Errorf("claim scan slot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}
