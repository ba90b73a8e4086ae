package kafka

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Producer struct {
	w     *kafka.Writer
	topic string
	log   *zap.Logger
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
		topic: topic,
		log:   zap.L().With(zap.String("component", "kafka.producer"), zap.String("topic", topic)),
	}
}

func (p *Producer) WithLogger(l *zap.Logger) *Producer {
	if l == nil {
		return p
	}
	cp := *p
	cp.log = l.With(zap.String("component", "kafka.producer"), zap.String("topic", p.topic))
	return &cp
}

// PublishJSON marshals v and writes it keyed by key, propagating the current
// trace context through message headers.
func (p *Producer) PublishJSON(ctx context.Context, key []byte, v any) error {
	value, err := json.Marshal(v)
	if err != nil {
		p.log.Error("json marshal failed", zap.Error(err))
		return err
	}

	tr := otel.Tracer("kafka.producer")
	ctx, span := tr.Start(ctx, "kafka.produce "+p.topic, trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingDestinationName(p.topic),
			semconv.MessagingOperationPublish,
		),
	)
	defer span.End()

	hdrs := mapCarrierHeaders{}
	otel.GetTextMapPropagator().Inject(ctx, hdrs)

	if err := p.w.WriteMessages(ctx, kafka.Message{Key: key, Value: value, Headers: hdrs.ToKafka()}); err != nil {
		p.log.Error("kafka write failed", zap.Error(err))
		return err
	}
	p.log.Debug("message published",
		zap.Int("key_len", len(key)),
		zap.Int("value_len", len(value)),
	)
	return nil
}

func (p *Producer) Close() error { return p.w.Close() }

func KeyFromUUID(id uuid.UUID) []byte { return []byte(id.String()) }
