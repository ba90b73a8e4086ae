package dispatcher

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/NordCoder/Remindus/internal/domain/delivery"
	"github.com/NordCoder/Remindus/internal/domain/rule"
	"github.com/NordCoder/Remindus/internal/domain/task"
	"github.com/NordCoder/Remindus/internal/obs"
	"github.com/NordCoder/Remindus/internal/repository/postgres"
	"github.com/NordCoder/Remindus/internal/schedule"
	"github.com/NordCoder/Remindus/internal/services/dispatcher/repo"
)

const (
	notificationTitle = "Time for your routine!"
	notificationBody  = "Your scheduled skin care treatment is due soon. Let's get that glow!"
)

type Usecase struct {
	Rules      repo.RuleRepo
	Devices    repo.Devices
	Deliveries repo.Deliveries
	Tasks      repo.Events
	Tx         postgres.Transactor
	Planner    *schedule.Planner
	Clock      delivery.Clock
	Log        *zap.Logger
	BatchSize  int
}

// Tick claims every due rule, advances its schedule, fans deliveries out to
// the owner's devices, and enqueues one task per delivery. Tasks are pushed
// strictly after the owning batch transaction commits.
func (u *Usecase) Tick(ctx context.Context) (claimed, enqueued, errs int, err error) {
	batch := u.BatchSize
	if batch <= 0 {
		batch = 1000
	}
	now := u.Clock.Now()

	tr := otel.Tracer("dispatcher.uc")
	ctxTick, span := tr.Start(ctx, "dispatcher.tick",
		trace.WithAttributes(attribute.Int("batch.size", batch)),
	)
	defer span.End()

	// Cap one tick's work; leftovers are still due on the next tick.
	ids, err := u.Rules.ClaimDue(ctxTick, now, batch*10)
	if err != nil {
		span.RecordError(err)
		return 0, 0, 1, fmt.Errorf("claim due: %w", err)
	}
	claimed = len(ids)
	span.SetAttributes(attribute.Int("batch.claimed", claimed))
	if claimed == 0 {
		return 0, 0, 0, nil
	}

	for start := 0; start < len(ids); start += batch {
		end := start + batch
		if end > len(ids) {
			end = len(ids)
		}

		tasks, batchErrs, batchErr := u.dispatchBatch(ctxTick, ids[start:end], now)
		errs += batchErrs
		if batchErr != nil {
			span.RecordError(batchErr)
			obs.WithTrace(ctxTick, u.Log).Warn("dispatch batch", zap.Error(batchErr))
			errs++
			continue
		}

		for _, t := range tasks {
			if pubErr := u.Tasks.PublishTask(ctxTick, t); pubErr != nil {
				errs++
				span.RecordError(pubErr)
				obs.WithTrace(ctxTick, u.Log).Warn("publish task",
					zap.String("delivery_id", t.DeliveryID.String()), zap.Error(pubErr))
				continue
			}
			enqueued++
		}
	}

	span.SetAttributes(
		attribute.Int("batch.enqueued", enqueued),
		attribute.Int("batch.errors", errs),
	)
	return claimed, enqueued, errs, nil
}

// dispatchBatch re-locks the claimed rows inside one transaction and mutates
// rule and delivery state. Re-checking enabled/next_run under the lock makes
// a concurrently racing dispatcher see an empty set instead of double
// fan-out. Per-rule planning failures are counted, not fatal.
func (u *Usecase) dispatchBatch(ctx context.Context, ids []uuid.UUID, now time.Time) ([]*task.Task, int, error) {
	var (
		tasks []*task.Task
		errs  int
	)

	err := u.Tx.WithTx(ctx, func(txCtx context.Context) error {
		rules, err := u.Rules.LockDue(txCtx, ids, now)
		if err != nil {
			return fmt.Errorf("lock due rules: %w", err)
		}
		if len(rules) == 0 {
			return nil
		}

		owners := make([]uuid.UUID, 0, len(rules))
		seen := make(map[uuid.UUID]struct{}, len(rules))
		for _, r := range rules {
			if _, ok := seen[r.OwnerID]; ok {
				continue
			}
			seen[r.OwnerID] = struct{}{}
			owners = append(owners, r.OwnerID)
		}
		tokens, err := u.Devices.TokensByOwners(txCtx, owners)
		if err != nil {
			return fmt.Errorf("resolve device tokens: %w", err)
		}

		for _, r := range rules {
			ruleTasks, planErr := u.dispatchRule(txCtx, r, tokens[r.OwnerID], now)
			if planErr != nil {
				if schedule.IsPlanningError(planErr) {
					errs++
					obs.WithTrace(txCtx, u.Log).Warn("plan next run",
						zap.String("rule_id", r.ID.String()),
						zap.String("frequency", string(r.Frequency)),
						zap.Error(planErr))
					continue
				}
				return planErr
			}
			tasks = append(tasks, ruleTasks...)
		}
		return nil
	})
	if err != nil {
		return nil, errs, err
	}
	return tasks, errs, nil
}

func (u *Usecase) dispatchRule(ctx context.Context, r *rule.Rule, deviceTokens []string, now time.Time) ([]*task.Task, error) {
	// lastRun is the previously planned fire time, so cadence drift is
	// measured against intent, not delivery.
	lastRun := r.NextRun
	next, err := u.Planner.PlanNextRun(r, lastRun)
	if err != nil {
		return nil, err
	}

	scheduledFor := now
	if lastRun != nil {
		scheduledFor = *lastRun
	}

	r.NextRun = next
	if next == nil {
		r.Enabled = false
	}
	if err := u.Rules.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("save rule: %w", err)
	}

	payload := delivery.Payload{
		Title: notificationTitle,
		Body:  notificationBody,
		Metadata: map[string]string{
			"rule_id":       r.ID.String(),
			"scheduled_for": scheduledFor.UTC().Format(time.RFC3339),
		},
	}

	tasks := make([]*task.Task, 0, len(deviceTokens))
	for _, token := range deviceTokens {
		d := &delivery.Delivery{
			RuleID:       r.ID,
			ScheduledFor: scheduledFor,
			Status:       delivery.StatusPending,
			Payload:      payload,
		}
		if err := u.Deliveries.Create(ctx, d); err != nil {
			return nil, fmt.Errorf("create delivery: %w", err)
		}
		tasks = append(tasks, &task.Task{
			DeliveryID: d.ID,
			Token:      token,
			Title:      payload.Title,
			Body:       payload.Body,
			Metadata:   payload.Metadata,
		})
	}
	return tasks, nil
}
