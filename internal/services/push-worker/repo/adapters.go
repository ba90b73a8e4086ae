package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/NordCoder/Remindus/internal/domain/delivery"
)

type DeliveryStore struct{ S delivery.Store }

func (a DeliveryStore) GetByID(ctx context.Context, id uuid.UUID) (*delivery.Delivery, error) {
	return a.S.GetByID(ctx, id)
}

func (a DeliveryStore) UpdateStatus(ctx context.Context, id uuid.UUID, status delivery.Status, processedAt time.Time, providerMessageID *string) error {
	return a.S.UpdateStatus(ctx, id, status, processedAt, providerMessageID)
}
