package rule

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repo interface {
	Create(ctx context.Context, r *Rule) error
	GetByID(ctx context.Context, id uuid.UUID) (*Rule, error)

	// ClaimDue selects ids of enabled rules with next_run <= now, taking and
	// releasing an exclusive row lock so concurrent callers never receive the
	// same id while both claims are in flight.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)

	// LockDue re-locks the given rows for update and returns only those still
	// enabled and due at now.
	LockDue(ctx context.Context, ids []uuid.UUID, now time.Time) ([]*Rule, error)

	// Save persists schedule bookkeeping (next_run, enabled) for a claimed rule.
	Save(ctx context.Context, r *Rule) error
}
