package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfid-attendance/attendance/internal/users"
)

type recordingQueue struct {
	payloads []SendEmailPayload
	err      error
}

func (q *recordingQueue) EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error) {
	if q.err != nil {
		return nil, q.err
	}
	q.payloads = append(q.payloads, payload)
	return &asynq.TaskInfo{ID: "task-1", Queue: QueueDefault}, nil
}

func TestWelcomeNotifier(t *testing.T) {
	queue := &recordingQueue{}
	notifier := NewWelcomeNotifier(queue, "RFID Attendance", nil)

	err := notifier.UserCreated(context.Background(), users.User{ID: 1, Name: "Ann", Email: "ann@x.com"})
	require.NoError(t, err)
	require.Len(t, queue.payloads, 1)
	assert.Equal(t, "ann@x.com", queue.payloads[0].To)
	assert.Equal(t, "Welcome to RFID Attendance", queue.payloads[0].Subject)
	assert.Contains(t, queue.payloads[0].Body, "Hello Ann")

	queue.err = errors.New("redis down")
	assert.Error(t, notifier.UserCreated(context.Background(), users.User{ID: 2, Email: "b@x.com"}))
}
