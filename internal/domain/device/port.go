package device

import (
	"context"

	"github.com/google/uuid"
)

// Directory maps rule owners to their registered push tokens. Registration
// itself lives behind the user-facing API, outside this pipeline.
type Directory interface {
	TokensByOwners(ctx context.Context, ownerIDs []uuid.UUID) (map[uuid.UUID][]string, error)
}
