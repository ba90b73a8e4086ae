package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/NordCoder/Remindus/internal/domain/delivery"
	"github.com/NordCoder/Remindus/internal/domain/device"
	"github.com/NordCoder/Remindus/internal/domain/rule"
	"github.com/NordCoder/Remindus/internal/domain/task"
)

type RuleRepo struct{ R rule.Repo }
type Devices struct{ D device.Directory }
type Deliveries struct{ S delivery.Store }
type Events struct{ P task.Events }

func (a RuleRepo) ClaimDue(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	return a.R.ClaimDue(ctx, now, limit)
}

func (a RuleRepo) LockDue(ctx context.Context, ids []uuid.UUID, now time.Time) ([]*rule.Rule, error) {
	return a.R.LockDue(ctx, ids, now)
}

func (a RuleRepo) Save(ctx context.Context, r *rule.Rule) error {
	return a.R.Save(ctx, r)
}

func (a Devices) TokensByOwners(ctx context.Context, ownerIDs []uuid.UUID) (map[uuid.UUID][]string, error) {
	return a.D.TokensByOwners(ctx, ownerIDs)
}

func (a Deliveries) Create(ctx context.Context, d *delivery.Delivery) error {
	return a.S.Create(ctx, d)
}

func (e Events) PublishTask(ctx context.Context, t *task.Task) error {
	return e.P.PublishTask(ctx, t)
}
