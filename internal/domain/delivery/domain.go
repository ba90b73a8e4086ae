package delivery

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending Status = "PENDING"
	StatusSent    Status = "SENT"
	StatusFailed  Status = "FAILED"
)

type Payload struct {
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Delivery is one attempt to deliver a single occurrence to a single device.
// It is both the audit record and the state holder for the workers: once
// ProcessedAt is set the row is terminal and further updates are no-ops.
type Delivery struct {
	ID                uuid.UUID  `json:"id"`
	RuleID            uuid.UUID  `json:"rule_id"`
	ScheduledFor      time.Time  `json:"scheduled_for"`
	ProcessedAt       *time.Time `json:"processed_at,omitempty"`
	Status            Status     `json:"status"`
	Payload           Payload    `json:"payload"`
	ProviderMessageID *string    `json:"provider_message_id,omitempty"`
}

type Clock interface {
	Now() time.Time
}
