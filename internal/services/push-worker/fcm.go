package pushworker

import (
	"context"
	"fmt"
	"time"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"google.golang.org/api/option"

	"github.com/NordCoder/Remindus/internal/domain/notifier"
)

// FCMNotifier delivers pushes through Firebase Cloud Messaging.
type FCMNotifier struct {
	client  *messaging.Client
	timeout time.Duration
}

func NewFCMNotifier(ctx context.Context, credentialsFile string, timeout time.Duration) (*FCMNotifier, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init fcm client: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FCMNotifier{client: client, timeout: timeout}, nil
}

func (n *FCMNotifier) Send(ctx context.Context, token, title, body string, metadata map[string]string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: metadata,
	}
	id, err := n.client.Send(ctx, msg)
	if err != nil {
		return "", classify(err)
	}
	return id, nil
}

// classify splits FCM failures into retryable and terminal. A dead or
// malformed token never recovers, while backend hiccups and throttling do.
func classify(err error) error {
	switch {
	case messaging.IsRegistrationTokenNotRegistered(err),
		messaging.IsInvalidArgument(err),
		messaging.IsMismatchedCredential(err):
		return &notifier.Error{Op: "fcm.send", Retryable: false, Err: err}
	case messaging.IsInternal(err),
		messaging.IsServerUnavailable(err),
		messaging.IsMessageRateExceeded(err):
		return &notifier.Error{Op: "fcm.send", Retryable: true, Err: err}
	default:
		// Network-level failures surface as plain errors; treat them as
		// transient.
		return &notifier.Error{Op: "fcm.send", Retryable: true, Err: err}
	}
}
