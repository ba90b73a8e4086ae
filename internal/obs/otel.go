package obs

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

type OTELConfig struct {
	Enable      bool
	Endpoint    string
	ServiceName string
	SampleRatio float64
}

type OTel struct {
	TracerProvider *sdktrace.TracerProvider
}

func SetupOTel(ctx context.Context, cfg *OTELConfig) (*OTel, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	if !cfg.Enable {
		return &OTel{}, nil
	}

	exp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithInsecure(),
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp, sdktrace.WithMaxExportBatchSize(512), sdktrace.WithBatchTimeout(2*time.Second)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
		)),
	)
	otel.SetTracerProvider(tp)
	return &OTel{TracerProvider: tp}, nil
}

// Shutdown tolerates a nil receiver so mains can defer it even when setup
// failed and they chose to run without tracing.
func (o *OTel) Shutdown(ctx context.Context) error {
	if o == nil || o.TracerProvider == nil {
		return nil
	}
	return o.TracerProvider.Shutdown(ctx)
}
