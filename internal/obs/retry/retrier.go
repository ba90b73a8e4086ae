package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/trace"
)

type Backoff interface {
	Next(attempt int) time.Duration
}

type ExpoJitter struct {
	Base   time.Duration
	Max    time.Duration
	Jitter float64
}

func (b ExpoJitter) Next(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := float64(b.Base) * math.Pow(2, float64(attempt))
	if b.Max > 0 && time.Duration(d) > b.Max {
		d = float64(b.Max)
	}
	if b.Jitter > 0 {
		d *= 1 + (rand.Float64()*2-1)*b.Jitter
	}
	return time.Duration(d)
}

// Fixed waits the same delay between every attempt.
type Fixed struct {
	Delay time.Duration
}

func (b Fixed) Next(int) time.Duration { return b.Delay }

type Policy struct {
	Name      string
	Attempts  int
	Backoff   Backoff
	Retryable func(error) bool
	OnAttempt func(attempt int, err error)
	OnExhaust func(lastErr error)
}

var (
	retryAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retry_attempts_total",
		Help: "Total retry attempts (including final).",
	}, []string{"name"})
	retryExhausted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retry_exhausted_total",
		Help: "Operations that exhausted all retries or hit a terminal error.",
	}, []string{"name"})
	retryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "retry_duration_seconds",
		Help:    "Total time spent inside retry.Do (success or fail).",
		Buckets: prometheus.DefBuckets,
	}, []string{"name"})
)

// Do runs fn up to p.Attempts times, waiting p.Backoff between attempts.
// A non-retryable error stops immediately. The returned error is the last
// one fn produced.
func Do(ctx context.Context, fn func() error, p Policy) error {
	start := time.Now()
	name := p.Name
	if name == "" {
		name = "default"
	}
	defer func() { retryLatency.WithLabelValues(name).Observe(time.Since(start).Seconds()) }()

	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	isRetryable := p.Retryable
	if isRetryable == nil {
		isRetryable = func(err error) bool { return err != nil }
	}

	span := trace.SpanFromContext(ctx)

	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		retryAttempts.WithLabelValues(name).Inc()
		if err == nil {
			return nil
		}
		if p.OnAttempt != nil {
			p.OnAttempt(i, err)
		}
		if span.IsRecording() {
			span.AddEvent("retry.attempt")
		}
		if !isRetryable(err) || i == attempts-1 {
			retryExhausted.WithLabelValues(name).Inc()
			if p.OnExhaust != nil {
				p.OnExhaust(err)
			}
			return err
		}

		t := time.NewTimer(p.Backoff.Next(i))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return err
}
