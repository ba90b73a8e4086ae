package retry

import (
	"context"
	"errors"
	"time"

	"github.com/NordCoder/Remindus/internal/domain/notifier"
	"go.uber.org/zap"
)

// NotifierPolicy wraps push sends: bounded attempts, terminal transport
// errors stop immediately, retryable ones back off.
func NotifierPolicy(log *zap.Logger, attempts int, delay time.Duration) Policy {
	if attempts <= 0 {
		attempts = 3
	}
	return Policy{
		Name:      "notifier_send",
		Attempts:  attempts,
		Backoff:   ExpoJitter{Base: delay, Max: 10 * delay, Jitter: 0.2},
		Retryable: notifier.IsRetryable,
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("push send attempt failed", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil && !errors.Is(err, context.Canceled) {
				log.Error("push send gave up", zap.Error(err))
			}
		},
	}
}
