package delivery

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Store interface {
	Create(ctx context.Context, d *Delivery) error
	GetByID(ctx context.Context, id uuid.UUID) (*Delivery, error)

	// UpdateStatus moves a PENDING delivery to a terminal status. It is an
	// idempotent no-op when processed_at is already set.
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, processedAt time.Time, providerMessageID *string) error
}
