package pushworker

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/NordCoder/Remindus/internal/domain/task"
	kafkax "github.com/NordCoder/Remindus/internal/repository/kafka"
)

var (
	mConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "push_worker_tasks_consumed_total", Help: "Notification tasks consumed",
	})
	mErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "push_worker_errors_total", Help: "Task handler errors",
	})
)

type Controller struct {
	Log *zap.Logger
	Sub *kafkax.Consumer
	UC  *Handler
}

func (c *Controller) Run(ctx context.Context) error {
	handler := kafkax.JSONHandler(
		func(ctx context.Context, _ []byte, t *task.Task) error {
			mConsumed.Inc()
			if t.Token == "" {
				c.Log.Warn("task without token; dropping",
					zap.String("delivery_id", t.DeliveryID.String()))
				return nil
			}
			if err := c.UC.HandleTask(ctx, t); err != nil {
				mErrors.Inc()
				return err
			}
			return nil
		},
	)
	return c.Sub.Consume(ctx, handler)
}
