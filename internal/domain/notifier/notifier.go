package notifier

import (
	"context"
	"errors"
)

// Notifier is the opaque push-transport capability. Send returns the
// provider's message id on success; failures carry a retryable/terminal
// classification via Error.
type Notifier interface {
	Send(ctx context.Context, token, title, body string, metadata map[string]string) (string, error)
}

// Error wraps a transport failure with its retry classification.
type Error struct {
	Op        string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	kind := "terminal"
	if e.Retryable {
		kind = "retryable"
	}
	return e.Op + ": " + kind + " transport error: " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// IsRetryable reports whether err may succeed on a later attempt. Unknown
// errors default to retryable so transient network failures are not dropped.
func IsRetryable(err error) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Retryable
	}
	return err != nil
}
