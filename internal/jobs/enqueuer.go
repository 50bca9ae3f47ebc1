package jobs

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
)

// Enqueuer adapts a River client to the notification package's
// DispatchEnqueuer interface.
type Enqueuer struct {
	client *river.Client[pgx.Tx]
}

// NewEnqueuer creates an enqueuer backed by a River client.
func NewEnqueuer(client *river.Client[pgx.Tx]) *Enqueuer {
	return &Enqueuer{client: client}
}

// EnqueueDispatch schedules the external push for a stored notification.
func (e *Enqueuer) EnqueueDispatch(ctx context.Context, notificationID string) error {
	if e == nil || e.client == nil {
		return fmt.Errorf("river client is not initialized")
	}
	_, err := e.client.Insert(ctx, NotificationDispatchArgs{NotificationID: notificationID}, nil)
	if err != nil {
		return fmt.Errorf("insert dispatch job for notification %s: %w", notificationID, err)
	}
	return nil
}
