// Package jobs defines River Queue job types for async processing. Jobs carry
// only row IDs; workers reload state from the database so retries always act
// on current data.
package jobs

import (
	"context"
	"fmt"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"reqflow.io/reqflow/internal/notification"
	"reqflow.io/reqflow/internal/pkg/logger"
)

// NotificationDispatchArgs carries only the notification ID.
type NotificationDispatchArgs struct {
	NotificationID string `json:"notification_id"`
}

// Kind returns the job kind identifier for notification dispatch.
func (NotificationDispatchArgs) Kind() string { return "notification_dispatch" }

// InsertOpts returns default insert options for dispatch jobs.
func (NotificationDispatchArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       "notifications",
		MaxAttempts: 3,
		UniqueOpts: river.UniqueOpts{
			ByArgs:  true,
			ByQueue: true,
		},
	}
}

// EmailSink pushes a stored notification to an external channel.
type EmailSink interface {
	Deliver(ctx context.Context, n *notification.Notification) error
}

// NotificationDispatchWorker pushes inbox notifications to the external
// channel. The inbox row is the source of truth; a failed push retries
// without re-creating the row.
type NotificationDispatchWorker struct {
	river.WorkerDefaults[NotificationDispatchArgs]
	store notification.Store
	sink  EmailSink
}

// NewNotificationDispatchWorker creates a dispatch worker.
func NewNotificationDispatchWorker(store notification.Store, sink EmailSink) *NotificationDispatchWorker {
	return &NotificationDispatchWorker{store: store, sink: sink}
}

// Work delivers one notification.
func (w *NotificationDispatchWorker) Work(ctx context.Context, job *river.Job[NotificationDispatchArgs]) error {
	id := job.Args.NotificationID
	if id == "" {
		return river.JobCancel(fmt.Errorf("dispatch job has empty notification id"))
	}

	n, err := w.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch notification %s: %w", id, err)
	}
	if n == nil {
		// Cleaned up before dispatch; nothing to deliver.
		logger.Warn("notification vanished before dispatch", zap.String("notification_id", id))
		return nil
	}

	if err := w.sink.Deliver(ctx, n); err != nil {
		return fmt.Errorf("deliver notification %s to %s: %w", id, n.RecipientID, err)
	}

	logger.Debug("notification dispatched",
		zap.String("notification_id", id),
		zap.String("recipient", n.RecipientID),
		zap.String("type", n.Type),
	)
	return nil
}

// LogSink is the default EmailSink: it logs the delivery instead of calling a
// mail provider. Deployments wire a real provider behind the same interface.
type LogSink struct{}

// Deliver logs the notification at info level.
func (LogSink) Deliver(_ context.Context, n *notification.Notification) error {
	logger.Info("notification delivery (log sink)",
		zap.String("notification_id", n.ID),
		zap.String("recipient", n.RecipientID),
		zap.String("type", n.Type),
		zap.String("title", n.Title),
	)
	return nil
}

var _ EmailSink = LogSink{}
