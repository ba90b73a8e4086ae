package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/NordCoder/Remindus/internal/domain/rule"
)

var _ rule.Repo = (*RuleRepoImpl)(nil)

type RuleRepoImpl struct {
	db *DB
}

func NewRuleRepo(db *DB) *RuleRepoImpl { return &RuleRepoImpl{db: db} }

const (
	qRuleInsert = `
INSERT INTO notification_rules (owner_id, time_of_day, frequency, every_n, weekdays, enabled, next_run)
VALUES ($1, $2::time, $3, $4, $5, $6, $7)
RETURNING id, owner_id, time_of_day::text, frequency, every_n, weekdays, enabled, next_run, created_at, updated_at;
`

	qRuleByID = `
SELECT id, owner_id, time_of_day::text, frequency, every_n, weekdays, enabled, next_run, created_at, updated_at
FROM notification_rules
WHERE id = $1;
`

	qClaimDue = `
SELECT id
FROM notification_rules
WHERE enabled AND next_run <= $1
ORDER BY next_run
FOR UPDATE SKIP LOCKED
LIMIT $2;
`

	qLockDue = `
SELECT id, owner_id, time_of_day::text, frequency, every_n, weekdays, enabled, next_run, created_at, updated_at
FROM notification_rules
WHERE id = ANY($1::uuid[]) AND enabled AND next_run <= $2
ORDER BY next_run
FOR UPDATE;
`

	qRuleSave = `
UPDATE notification_rules
SET next_run = $2, enabled = $3, updated_at = now()
WHERE id = $1;
`
)

func scanRule(row pgx.Row, r *rule.Rule) error {
	var tod string
	if err := row.Scan(
		&r.ID,
		&r.OwnerID,
		&tod,
		&r.Frequency,
		&r.EveryN,
		&r.Weekdays,
		&r.Enabled,
		&r.NextRun,
		&r.CreatedAt,
		&r.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan rule: %w", err)
	}
	parsed, err := rule.ParseTimeOfDay(tod)
	if err != nil {
		return err
	}
	r.TimeOfDay = parsed
	return nil
}

func (rr *RuleRepoImpl) Create(ctx context.Context, r *rule.Rule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	ctx, cancel := rr.db.withTimeout(ctx)
	defer cancel()

	row := rr.db.Pool.QueryRow(ctx, qRuleInsert,
		r.OwnerID, r.TimeOfDay.String(), r.Frequency, r.EveryN, r.Weekdays, r.Enabled, r.NextRun)
	return scanRule(row, r)
}

func (rr *RuleRepoImpl) GetByID(ctx context.Context, id uuid.UUID) (*rule.Rule, error) {
	ctx, cancel := rr.db.withTimeout(ctx)
	defer cancel()

	var r rule.Rule
	if err := scanRule(rr.db.Pool.QueryRow(ctx, qRuleByID, id), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ClaimDue holds row locks only for the duration of its own transaction so
// concurrent dispatcher instances cannot pick the same ids at once. The
// batch pass re-locks and re-checks before mutating.
func (rr *RuleRepoImpl) ClaimDue(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 1000
	}
	ctx, cancel := rr.db.withTimeout(ctx)
	defer cancel()

	tx, err := rr.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, qClaimDue, now, limit)
	if err != nil {
		return nil, fmt.Errorf("claim due: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan rule id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return ids, nil
}

func (rr *RuleRepoImpl) LockDue(ctx context.Context, ids []uuid.UUID, now time.Time) ([]*rule.Rule, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ctx, cancel := rr.db.withTimeout(ctx)
	defer cancel()

	eq := rr.db.execQueryer(ctx)
	rows, err := eq.Query(ctx, qLockDue, uuidStrings(ids), now)
	if err != nil {
		return nil, fmt.Errorf("lock due rules: %w", err)
	}
	defer rows.Close()

	var out []*rule.Rule
	for rows.Next() {
		var r rule.Rule
		if err := scanRule(rows, &r); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (rr *RuleRepoImpl) Save(ctx context.Context, r *rule.Rule) error {
	ctx, cancel := rr.db.withTimeout(ctx)
	defer cancel()

	eq := rr.db.execQueryer(ctx)
	cmd, err := eq.Exec(ctx, qRuleSave, r.ID, r.NextRun, r.Enabled)
	if err != nil {
		return fmt.Errorf("save rule: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
