package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/rfid-attendance/attendance/internal/users"
)

// Enqueuer submits email tasks.
type Enqueuer interface {
	EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error)
}

// WelcomeNotifier queues a welcome email for every created user.
type WelcomeNotifier struct {
	queue   Enqueuer
	appName string
	logger  *slog.Logger
}

// NewWelcomeNotifier constructs a WelcomeNotifier.
func NewWelcomeNotifier(queue Enqueuer, appName string, logger *slog.Logger) *WelcomeNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &WelcomeNotifier{queue: queue, appName: appName, logger: logger}
}

// UserCreated enqueues the welcome message.
func (n *WelcomeNotifier) UserCreated(ctx context.Context, user users.User) error {
	payload := SendEmailPayload{
		To:      user.Email,
		Subject: "Welcome to " + n.appName,
		Body: fmt.Sprintf("Hello %s,\n\nAn account has been created for you on %s.\nSign in with this email address and the password you were given.\n",
			user.Name, n.appName),
	}
	info, err := n.queue.EnqueueSendEmail(ctx, payload)
	if err != nil {
		return fmt.Errorf("jobs: enqueue welcome email: %w", err)
	}
	if info != nil {
		n.logger.Debug("welcome email queued", slog.Int64("user_id", user.ID), slog.String("task_id", info.ID))
	}
	return nil
}

var _ users.Notifier = (*WelcomeNotifier)(nil)
