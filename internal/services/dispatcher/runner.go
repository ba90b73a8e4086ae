package dispatcher

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	config "github.com/NordCoder/Remindus/internal/config/dispatcher"
)

type Runner struct {
	Log *zap.Logger
	UC  *Usecase
	Cfg *config.DispatchCfg

	mClaimed  prometheus.Counter
	mEnqueued prometheus.Counter
	mErr      prometheus.Counter
	mLoopDur  prometheus.Histogram
}

func New(log *zap.Logger, uc *Usecase, cfg *config.DispatchCfg) *Runner {
	return &Runner{
		Log: log,
		UC:  uc,
		Cfg: cfg,
		mClaimed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dispatcher_rules_claimed_total", Help: "Due rules claimed from DB",
		}),
		mEnqueued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dispatcher_tasks_enqueued_total", Help: "Notification tasks published to Kafka",
		}),
		mErr: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dispatcher_errors_total", Help: "Errors in dispatch loop",
		}),
		mLoopDur: promauto.NewHistogram(prometheus.HistogramOpts{
			Name: "dispatcher_loop_duration_seconds", Help: "Dispatch tick duration",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (r *Runner) tick(ctx context.Context) {
	start := time.Now()
	claimed, enqueued, errs, err := r.UC.Tick(ctx)
	if err != nil {
		r.mErr.Inc()
		r.Log.Warn("tick error", zap.Error(err))
	}
	if claimed > 0 {
		r.mClaimed.Add(float64(claimed))
		r.mEnqueued.Add(float64(enqueued))
		if errs > 0 {
			r.mErr.Add(float64(errs))
		}
		r.Log.Debug("dispatched batch",
			zap.Int("claimed", claimed), zap.Int("enqueued", enqueued), zap.Int("errors", errs))
	}
	r.mLoopDur.Observe(time.Since(start).Seconds())
}

func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.Cfg.Tick)
	defer ticker.Stop()

	r.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}
