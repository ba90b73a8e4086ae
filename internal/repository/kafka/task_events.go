package kafka

import (
	"context"

	"github.com/NordCoder/Remindus/internal/domain/task"
)

type TaskEventsKafka struct {
	p *Producer
}

func NewTaskEventsKafka(p *Producer) *TaskEventsKafka { return &TaskEventsKafka{p: p} }

var _ task.Events = (*TaskEventsKafka)(nil)

func (e *TaskEventsKafka) PublishTask(ctx context.Context, t *task.Task) error {
	return e.p.PublishJSON(ctx, KeyFromUUID(t.DeliveryID), t)
}
