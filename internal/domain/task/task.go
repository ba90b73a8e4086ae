package task

import (
	"context"

	"github.com/google/uuid"
)

// Task is the serializable work item carried over the queue from the
// dispatcher to the push workers. Delivery is at-least-once and unordered;
// the referenced delivery row guards against duplicate sends.
type Task struct {
	DeliveryID uuid.UUID         `json:"delivery_id"`
	Token      string            `json:"token"`
	Title      string            `json:"title"`
	Body       string            `json:"body"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type Events interface {
	PublishTask(ctx context.Context, t *Task) error
}
