package pushworker

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/NordCoder/Remindus/internal/domain/delivery"
	"github.com/NordCoder/Remindus/internal/domain/notifier"
	"github.com/NordCoder/Remindus/internal/domain/task"
	"github.com/NordCoder/Remindus/internal/obs"
	"github.com/NordCoder/Remindus/internal/obs/retry"
	"github.com/NordCoder/Remindus/internal/repository/postgres"
	"github.com/NordCoder/Remindus/internal/services/push-worker/repo"
)

type Handler struct {
	Deliveries repo.DeliveryStore
	Out        notifier.Notifier
	Clock      delivery.Clock
	Retry      retry.Policy
	Log        *zap.Logger
}

// HandleTask drives one delivery to a terminal state. The queue redelivers
// at least once, so every step tolerates replays: an already-SENT delivery
// short-circuits, and the terminal status write is an idempotent no-op once
// processed_at is set.
func (h *Handler) HandleTask(ctx context.Context, t *task.Task) error {
	log := obs.WithTrace(ctx, h.Log).With(zap.String("delivery_id", t.DeliveryID.String()))

	d, err := h.Deliveries.GetByID(ctx, t.DeliveryID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			log.Warn("delivery not found; dropping task")
			return nil
		}
		return fmt.Errorf("get delivery: %w", err)
	}

	if d.Status == delivery.StatusSent {
		log.Info("delivery already sent", zap.Stringp("provider_message_id", d.ProviderMessageID))
		return nil
	}

	var messageID string
	sendErr := retry.Do(ctx, func() error {
		id, err := h.Out.Send(ctx, t.Token, t.Title, t.Body, t.Metadata)
		if err != nil {
			return err
		}
		messageID = id
		return nil
	}, h.Retry)

	now := h.Clock.Now()
	if sendErr != nil {
		if ctx.Err() != nil {
			// Shutdown mid-send: leave the row PENDING for redelivery.
			return ctx.Err()
		}
		log.Warn("delivery failed", zap.Error(sendErr))
		if err := h.Deliveries.UpdateStatus(ctx, d.ID, delivery.StatusFailed, now, nil); err != nil {
			return fmt.Errorf("mark delivery failed: %w", err)
		}
		return nil
	}

	if err := h.Deliveries.UpdateStatus(ctx, d.ID, delivery.StatusSent, now, &messageID); err != nil {
		return fmt.Errorf("mark delivery sent: %w", err)
	}
	log.Debug("delivery sent", zap.String("provider_message_id", messageID))
	return nil
}
