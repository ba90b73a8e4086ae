package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/NordCoder/Remindus/internal/domain/delivery"
)

var _ delivery.Store = (*DeliveryStoreImpl)(nil)

type DeliveryStoreImpl struct{ db *DB }

func NewDeliveryStore(db *DB) *DeliveryStoreImpl { return &DeliveryStoreImpl{db: db} }

const (
	qDeliveryInsert = `
INSERT INTO notification_deliveries (rule_id, scheduled_for, status, payload)
VALUES ($1, $2, $3, $4)
RETURNING id;
`

	qDeliveryByID = `
SELECT id, rule_id, scheduled_for, processed_at, status, payload, provider_message_id
FROM notification_deliveries
WHERE id = $1;
`

	// The processed_at guard makes terminal updates idempotent: the first
	// writer wins, later attempts match no rows.
	qDeliveryUpdateStatus = `
UPDATE notification_deliveries
SET status = $2, processed_at = $3, provider_message_id = $4
WHERE id = $1 AND processed_at IS NULL;
`
)

func (s *DeliveryStoreImpl) Create(ctx context.Context, d *delivery.Delivery) error {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	eq := s.db.execQueryer(ctx)
	if err := eq.QueryRow(ctx, qDeliveryInsert,
		d.RuleID, d.ScheduledFor, d.Status, d.Payload,
	).Scan(&d.ID); err != nil {
		return fmt.Errorf("insert delivery: %w", err)
	}
	return nil
}

func (s *DeliveryStoreImpl) GetByID(ctx context.Context, id uuid.UUID) (*delivery.Delivery, error) {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	var d delivery.Delivery
	if err := s.db.Pool.QueryRow(ctx, qDeliveryByID, id).Scan(
		&d.ID,
		&d.RuleID,
		&d.ScheduledFor,
		&d.ProcessedAt,
		&d.Status,
		&d.Payload,
		&d.ProviderMessageID,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan delivery: %w", err)
	}
	return &d, nil
}

func (s *DeliveryStoreImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status delivery.Status, processedAt time.Time, providerMessageID *string) error {
	ctx, cancel := s.db.withTimeout(ctx)
	defer cancel()

	eq := s.db.execQueryer(ctx)
	if _, err := eq.Exec(ctx, qDeliveryUpdateStatus, id, status, processedAt, providerMessageID); err != nil {
		return fmt.Errorf("update delivery status: %w", err)
	}
	return nil
}
