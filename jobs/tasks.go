// Package jobs defines background tasks processed by the asynq worker.
package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/towerdesk/towerdesk/internal/session"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionCleanup is the task type for the expired-token sweep.
	TaskSessionCleanup = "session:cleanup"
)

// NewSessionCleanupTask constructs the expired-token sweep task.
func NewSessionCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskSessionCleanup, nil)
}

// NewSessionCleanupHandler returns the handler that deletes expired
// session tokens. The sweep is idempotent; running it twice in a row
// removes nothing the second time.
func NewSessionCleanupHandler(sessions *session.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		removed, err := sessions.CleanupExpired(ctx)
		if err != nil {
			return err
		}
		if logger != nil {
			logger.Info("session cleanup", slog.Int64("removed", removed))
		}
		return nil
	}
}
