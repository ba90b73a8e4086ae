package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	kafkax "github.com/NordCoder/Remindus/internal/repository/kafka"
)

func main() {
	brokers := strings.Split(env("KAFKA_BROKERS", "kafka:9092"), ",")
	topics := strings.Split(env("KAFKA_TOPICS", "remindus.notifications.task"), ",")
	partitions := envInt("KAFKA_PARTITIONS", 1)
	rf := envInt("KAFKA_RF", 1)

	l, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	for _, t := range topics {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		spec := kafkax.TopicSpec{
			Name:              t,
			NumPartitions:     partitions,
			ReplicationFactor: rf,
			MaxWait:           30 * time.Second,
		}
		if err := kafkax.EnsureTopic(ctx, brokers, spec, l); err != nil {
			l.Fatal("ensure topic", zap.String("topic", t), zap.Error(err))
		}
		l.Info("topic ready", zap.String("topic", t))
	}
	l.Info("kafka-init ok")
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, _ := strconv.Atoi(v); n > 0 {
			return n
		}
	}
	return def
}
