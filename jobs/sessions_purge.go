package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/rfid-attendance/attendance/internal/jobs"
)

// SessionPurger removes expired session records.
type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// PurgeSessionsJob handles TaskTypePurgeSessions.
type PurgeSessionsJob struct {
	purger  SessionPurger
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewPurgeSessionsJob constructs a PurgeSessionsJob.
func NewPurgeSessionsJob(purger SessionPurger, logger *slog.Logger, metrics *jobmetrics.Metrics) *PurgeSessionsJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &PurgeSessionsJob{purger: purger, logger: logger, metrics: metrics}
}

// Handle runs one purge pass.
func (j *PurgeSessionsJob) Handle(ctx context.Context, _ *asynq.Task) error {
	tracker := j.metrics.Track(TaskTypePurgeSessions)
	removed, err := j.purger.PurgeExpired(ctx)
	if err != nil {
		j.logger.Error("purge sessions", slog.Any("error", err))
		return tracker.End(err)
	}
	j.metrics.AddPurged(removed)
	j.logger.Info("sessions purged", slog.Int64("removed", removed))
	return tracker.End(nil)
}
