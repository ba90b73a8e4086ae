package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/NordCoder/Remindus/internal/domain/device"
)

var _ device.Directory = (*DeviceDirectoryImpl)(nil)

type DeviceDirectoryImpl struct{ db *DB }

func NewDeviceDirectory(db *DB) *DeviceDirectoryImpl { return &DeviceDirectoryImpl{db: db} }

const qTokensByOwners = `
SELECT owner_id, fcm_token
FROM user_devices
WHERE owner_id = ANY($1::uuid[]);
`

func (r *DeviceDirectoryImpl) TokensByOwners(ctx context.Context, ownerIDs []uuid.UUID) (map[uuid.UUID][]string, error) {
	out := make(map[uuid.UUID][]string, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return out, nil
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	eq := r.db.execQueryer(ctx)
	rows, err := eq.Query(ctx, qTokensByOwners, uuidStrings(ownerIDs))
	if err != nil {
		return nil, fmt.Errorf("query device tokens: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			owner uuid.UUID
			token string
		)
		if err := rows.Scan(&owner, &token); err != nil {
			return nil, fmt.Errorf("scan device token: %w", err)
		}
		out[owner] = append(out[owner], token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
