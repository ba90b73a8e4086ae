package postgres

import (
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

// uuidStrings renders ids for uuid[] query parameters.
func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
