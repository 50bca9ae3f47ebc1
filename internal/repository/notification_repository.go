package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"reqflow.io/reqflow/internal/notification"
)

// NotificationRepository persists inbox notifications.
type NotificationRepository struct {
	db *pgxpool.Pool
}

// NewNotificationRepository creates a notification repository.
func NewNotificationRepository(db *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification row.
func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	query := `
		INSERT INTO notifications
		    (id, recipient_id, type, title, message, resource_type, resource_id, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8)
	`
	_, err := r.db.Exec(ctx, query,
		n.ID,
		n.RecipientID,
		n.Type,
		n.Title,
		n.Message,
		n.ResourceType,
		n.ResourceID,
		n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification %s: %w", n.ID, err)
	}
	return nil
}

// Get returns a notification by ID, or nil when it no longer exists.
func (r *NotificationRepository) Get(ctx context.Context, id string) (*notification.Notification, error) {
	query := `
		SELECT id, recipient_id, type, title, message, resource_type, resource_id, read, created_at, read_at
		FROM notifications
		WHERE id = $1
	`
	n, err := scanNotification(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get notification %s: %w", id, err)
	}
	return n, nil
}

// ListByRecipient returns a user's notifications, newest first.
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]*notification.Notification, error) {
	query := `
		SELECT id, recipient_id, type, title, message, resource_type, resource_id, read, created_at, read_at
		FROM notifications
		WHERE recipient_id = $1
	`
	if unreadOnly {
		query += ` AND read = FALSE`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, recipientID)
	if err != nil {
		return nil, fmt.Errorf("list notifications for %s: %w", recipientID, err)
	}
	defer rows.Close()

	var out []*notification.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkRead marks one notification as read, scoped to the recipient so a user
// cannot touch another inbox.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID string) error {
	query := `
		UPDATE notifications
		SET read = TRUE, read_at = $1
		WHERE id = $2 AND recipient_id = $3 AND read = FALSE
	`
	_, err := r.db.Exec(ctx, query, time.Now().UTC(), id, recipientID)
	if err != nil {
		return fmt.Errorf("mark notification %s read: %w", id, err)
	}
	return nil
}

// MarkAllRead marks every unread notification of a recipient as read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID string) error {
	query := `
		UPDATE notifications
		SET read = TRUE, read_at = $1
		WHERE recipient_id = $2 AND read = FALSE
	`
	_, err := r.db.Exec(ctx, query, time.Now().UTC(), recipientID)
	if err != nil {
		return fmt.Errorf("mark all notifications read for %s: %w", recipientID, err)
	}
	return nil
}

// DeleteOlderThan removes notifications created before the cutoff and returns
// the number of rows deleted.
func (r *NotificationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM notifications WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete notifications before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return tag.RowsAffected(), nil
}

func scanNotification(row pgx.Row) (*notification.Notification, error) {
	var n notification.Notification
	err := row.Scan(
		&n.ID,
		&n.RecipientID,
		&n.Type,
		&n.Title,
		&n.Message,
		&n.ResourceType,
		&n.ResourceID,
		&n.Read,
		&n.CreatedAt,
		&n.ReadAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// compile-time check
var _ notification.Store = (*NotificationRepository)(nil)
