package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	config "github.com/NordCoder/Remindus/internal/config/push-worker"
	"github.com/NordCoder/Remindus/internal/obs"
	"github.com/NordCoder/Remindus/internal/obs/retry"
	"github.com/NordCoder/Remindus/internal/repository/kafka"
	pg "github.com/NordCoder/Remindus/internal/repository/postgres"
	pushworker "github.com/NordCoder/Remindus/internal/services/push-worker"
	"github.com/NordCoder/Remindus/internal/services/push-worker/repo"
)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config/push-worker.yaml"
}

func wiring(db *pg.DB, cfg *config.Config, out *pushworker.FCMNotifier, cons *kafka.Consumer, l *zap.Logger) *pushworker.Controller {
	uc := &pushworker.Handler{
		Deliveries: repo.DeliveryStore{S: pg.NewDeliveryStore(db)},
		Out:        out,
		Clock:      systemClock{},
		Retry:      retry.NotifierPolicy(l, cfg.Retry.Attempts, cfg.Retry.Delay),
		Log:        l,
	}
	return &pushworker.Controller{Log: l, Sub: cons, UC: uc}
}

func main() {
	// init
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg, err := config.Load(configPath())
	if err != nil {
		log.Fatal(err)
	}

	// logger
	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig("push-worker"))
	if err != nil {
		log.Fatal(err)
	}
	l.Info("starting push-worker",
		zap.Any("kafka_in", cfg.In),
		zap.String("metrics_addr", cfg.Server.MetricsAddr),
		zap.Int("workers", cfg.Server.Workers),
	)

	// otel
	otelCloser, err := obs.SetupOTel(rootCtx, cfg.OTEL.AsOTELConfig())
	if err != nil {
		l.Warn("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	// db
	db, err := pg.NewDB(rootCtx, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	l.Info("db connected")

	// fcm
	out, err := pushworker.NewFCMNotifier(rootCtx, cfg.FCM.CredentialsFile, cfg.FCM.Timeout)
	if err != nil {
		l.Fatal("fcm init", zap.Error(err))
	}

	// metrics
	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, func(ctx context.Context) error {
		hctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		return db.Pool.Ping(hctx)
	}, l)

	// consumers: each worker owns its reader, the group balances partitions
	workers := cfg.Server.Workers
	if workers <= 0 {
		workers = 1
	}
	errCh := make(chan error, workers)
	var wg sync.WaitGroup
	closers := make([]*kafka.Consumer, 0, workers)
	for i := 0; i < workers; i++ {
		cc := cfg.In.AsConsumerConfig()
		cc.Logger = l
		cons := kafka.BootstrapConsumer(rootCtx, cc, l)
		closers = append(closers, cons)

		ctrl := wiring(db, cfg, out, cons, l)
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			l.Info("controller starting", zap.Int("worker", n))
			errCh <- ctrl.Run(rootCtx)
		}(i)
	}

	// main loop
	var runErr error
	select {
	case <-rootCtx.Done():
		l.Info("shutdown signal")
	case runErr = <-errCh:
		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			l.Error("controller error", zap.Error(runErr))
		}
	}
	stop()

	for _, c := range closers {
		_ = c.Close()
	}
	wg.Wait()

	// graceful metrics server shutdown
	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
