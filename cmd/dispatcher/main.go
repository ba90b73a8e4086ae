package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	config "github.com/NordCoder/Remindus/internal/config/dispatcher"
	"github.com/NordCoder/Remindus/internal/domain/delivery"
	"github.com/NordCoder/Remindus/internal/obs"
	kafkaRepo "github.com/NordCoder/Remindus/internal/repository/kafka"
	pg "github.com/NordCoder/Remindus/internal/repository/postgres"
	"github.com/NordCoder/Remindus/internal/schedule"
	"github.com/NordCoder/Remindus/internal/services/dispatcher"
	"github.com/NordCoder/Remindus/internal/services/dispatcher/repo"
)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config/dispatcher.yaml"
}

func wiring(db *pg.DB, cfg *config.Config, pub *kafkaRepo.Producer, l *zap.Logger) *dispatcher.Usecase {
	clock := systemClock{}
	return &dispatcher.Usecase{
		Rules:      repo.RuleRepo{R: pg.NewRuleRepo(db)},
		Devices:    repo.Devices{D: pg.NewDeviceDirectory(db)},
		Deliveries: repo.Deliveries{S: pg.NewDeliveryStore(db)},
		Tasks:      repo.Events{P: kafkaRepo.NewTaskEventsKafka(pub)},
		Tx:         pg.NewTransactor(db, l),
		Planner:    schedule.NewPlanner(cfg.Notify.Offset(), clock),
		Clock:      clock,
		Log:        l,
		BatchSize:  cfg.Sched.BatchSize,
	}
}

var _ delivery.Clock = systemClock{}

func main() {
	// init
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg, err := config.Load(configPath())
	if err != nil {
		log.Fatal(err)
	}

	// logger
	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig("dispatcher"))
	if err != nil {
		log.Fatal(err)
	}
	l.Info("starting dispatcher",
		zap.Any("kafka_out", cfg.Kafka),
		zap.Duration("tick", cfg.Sched.Tick),
		zap.String("metrics_addr", cfg.Sched.MetricsAddr),
	)

	// otel
	otelCloser, err := obs.SetupOTel(ctx, cfg.OTEL.AsOTELConfig())
	if err != nil {
		l.Warn("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	// db
	db, err := pg.NewDB(ctx, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// kafka
	pub := kafkaRepo.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic).WithLogger(l)
	defer func() { _ = pub.Close() }()

	// metrics
	ms := obs.BootstrapMetricsServer(cfg.Sched.MetricsAddr, func(ctx context.Context) error {
		hctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		return db.Pool.Ping(hctx)
	}, l)

	// wiring
	uc := wiring(db, cfg, pub, l)
	runner := dispatcher.New(l, uc, &cfg.Sched)

	// run
	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(ctx) }()

	l.Info("dispatcher started")

	// loop
	select {
	case <-ctx.Done():
	case err = <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error("runner error", zap.Error(err))
		}
	}

	// graceful shutdown
	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
