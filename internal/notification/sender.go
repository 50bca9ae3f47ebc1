// Package notification implements the procurement notification system.
//
// Notifications are written to the in-app inbox after the triggering
// transition has committed, then pushed to external channels (email) through
// a queued dispatch job. Delivery is best-effort at every step: a lost
// notification never invalidates the requisition state that caused it.
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"reqflow.io/reqflow/internal/pkg/logger"
)

// Type constants for inbox notifications.
const (
	TypeApprovalPending   = "APPROVAL_PENDING"
	TypeApprovalCompleted = "APPROVAL_COMPLETED"
	TypeApprovalRejected  = "APPROVAL_REJECTED"
	TypeRequisitionUpdate = "REQUISITION_UPDATE"
	TypeBudgetAlert       = "BUDGET_ALERT"
)

// Notification is one inbox entry.
type Notification struct {
	ID           string     `json:"id"`
	RecipientID  string     `json:"recipient_id"`
	Type         string     `json:"type"`
	Title        string     `json:"title"`
	Message      string     `json:"message"`
	ResourceType string     `json:"resource_type,omitempty"`
	ResourceID   string     `json:"resource_id,omitempty"`
	Read         bool       `json:"read"`
	CreatedAt    time.Time  `json:"created_at"`
	ReadAt       *time.Time `json:"read_at,omitempty"`
}

// Params holds the required fields for creating a notification.
type Params struct {
	RecipientID  string // user ID of the recipient
	Type         string // one of the Type* constants above
	Title        string
	Message      string
	ResourceType string // e.g. "requisition", "department_budget"
	ResourceID   string
}

// Store persists inbox notifications.
type Store interface {
	Create(ctx context.Context, n *Notification) error
	Get(ctx context.Context, id string) (*Notification, error)
	ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]*Notification, error)
	MarkRead(ctx context.Context, id, recipientID string) error
	MarkAllRead(ctx context.Context, recipientID string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// DispatchEnqueuer schedules the external-channel push for a stored
// notification. The job carries only the notification ID.
type DispatchEnqueuer interface {
	EnqueueDispatch(ctx context.Context, notificationID string) error
}

// Sender defines the interface for sending notifications.
type Sender interface {
	// Send creates a notification for a single recipient.
	Send(ctx context.Context, params Params) error

	// SendToMany creates notifications for multiple recipients.
	// Best-effort: logs errors but does not abort on individual failures.
	SendToMany(ctx context.Context, recipientIDs []string, params Params) error
}

// InboxSender writes notifications to the database and enqueues the external
// dispatch job for each stored row.
type InboxSender struct {
	store    Store
	enqueuer DispatchEnqueuer // optional
}

// NewInboxSender creates an inbox sender.
func NewInboxSender(store Store) *InboxSender {
	return &InboxSender{store: store}
}

// SetEnqueuer wires the queued external dispatch channel.
func (s *InboxSender) SetEnqueuer(e DispatchEnqueuer) {
	s.enqueuer = e
}

// Send stores a single notification and schedules its dispatch.
func (s *InboxSender) Send(ctx context.Context, params Params) error {
	if err := validateParams(params); err != nil {
		return fmt.Errorf("notification params invalid: %w", err)
	}

	n := &Notification{
		ID:           uuid.NewString(),
		RecipientID:  params.RecipientID,
		Type:         params.Type,
		Title:        params.Title,
		Message:      params.Message,
		ResourceType: params.ResourceType,
		ResourceID:   params.ResourceID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.Create(ctx, n); err != nil {
		return fmt.Errorf("create notification for user %s: %w", params.RecipientID, err)
	}

	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueDispatch(ctx, n.ID); err != nil {
			// Inbox row exists; only the external push is lost.
			logger.Warn("failed to enqueue notification dispatch",
				zap.String("notification_id", n.ID),
				zap.Error(err),
			)
		}
	}

	logger.Debug("notification sent",
		zap.String("recipient", params.RecipientID),
		zap.String("type", params.Type),
		zap.String("title", params.Title),
	)
	return nil
}

// SendToMany creates notifications for multiple recipients (best-effort).
// Failures are logged but do not prevent delivery to other recipients.
func (s *InboxSender) SendToMany(ctx context.Context, recipientIDs []string, params Params) error {
	if len(recipientIDs) == 0 {
		return nil
	}

	var failCount int
	for _, recipientID := range recipientIDs {
		p := params
		p.RecipientID = recipientID
		if err := s.Send(ctx, p); err != nil {
			failCount++
			logger.Error("notification delivery failed",
				zap.String("recipient", recipientID),
				zap.String("type", params.Type),
				zap.Error(err),
			)
		}
	}

	if failCount > 0 {
		return fmt.Errorf("notification delivery failed for %d/%d recipients", failCount, len(recipientIDs))
	}
	return nil
}

// compile-time check
var _ Sender = (*InboxSender)(nil)

func validateParams(p Params) error {
	if p.RecipientID == "" {
		return fmt.Errorf("recipient_id is required")
	}
	if p.Title == "" {
		return fmt.Errorf("title is required")
	}
	if p.Message == "" {
		return fmt.Errorf("message is required")
	}
	return nil
}
