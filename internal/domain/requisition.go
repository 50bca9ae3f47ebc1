// Package domain holds the procurement domain model: requisitions, approval
// chains, department budgets, and purchase orders.
package domain

import "time"

// Status enumerates requisition lifecycle states.
type Status string

const (
	StatusDraft            Status = "draft"
	StatusPending          Status = "pending"
	StatusInApproval       Status = "in_approval"
	StatusApproved         Status = "approved"
	StatusRejected         Status = "rejected"
	StatusCancelled        Status = "cancelled"
	StatusPartiallyOrdered Status = "partially_ordered"
	StatusOrdered          Status = "ordered"
)

// AwaitingDecision reports whether approve/reject operations are permitted.
func (s Status) AwaitingDecision() bool {
	return s == StatusPending || s == StatusInApproval
}

// Terminal reports whether the approval state machine has halted. Ordered
// states are reached from approved via purchase-order derivation, not via
// approve/reject/cancel.
func (s Status) Terminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusCancelled, StatusPartiallyOrdered, StatusOrdered:
		return true
	}
	return false
}

// CommitsBudget reports whether the requisition's amount counts toward the
// department's committed figure.
func (s Status) CommitsBudget() bool {
	return s == StatusPending || s == StatusInApproval
}

// Priority is informational and does not affect control flow.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ValidPriority reports whether p is a known priority value.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ApprovalState enumerates per-level decision states.
type ApprovalState string

const (
	ApprovalPending  ApprovalState = "pending"
	ApprovalApproved ApprovalState = "approved"
	ApprovalRejected ApprovalState = "rejected"
)

// LineItem is a single requisition line. Amounts are in minor currency units.
type LineItem struct {
	// ItemNumber is 1-based, assigned at creation time in input order, and
	// never renumbered afterward.
	ItemNumber      int    `json:"item_number"`
	Description     string `json:"description"`
	Category        string `json:"category,omitempty"`
	Quantity        int64  `json:"quantity"`
	Unit            string `json:"unit,omitempty"`
	EstimatedPrice  int64  `json:"estimated_price"`
	TotalPrice      int64  `json:"total_price"`
	Justification   string `json:"justification,omitempty"`
	Specifications  string `json:"specifications,omitempty"`
	PurchaseOrderID string `json:"purchase_order_id,omitempty"`
}

// ApprovalRecord is one level of a requisition's approval history. The
// required role is snapshotted from the chain resolved at creation time, so
// later policy changes cannot reshape an in-flight requisition.
type ApprovalRecord struct {
	Level        int           `json:"level"`
	RequiredRole Role          `json:"required_role"`
	LevelName    string        `json:"level_name,omitempty"`
	Approver     string        `json:"approver,omitempty"`
	Status       ApprovalState `json:"status"`
	Comments     string        `json:"comments,omitempty"`
	Date         *time.Time    `json:"date,omitempty"`
}

// Requisition is the core aggregate of the approval engine.
type Requisition struct {
	ID           string    `json:"id"`
	Number       string    `json:"number"`
	RequesterID  string    `json:"requester_id"`
	DepartmentID string    `json:"department_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	RequiredDate time.Time `json:"required_date"`
	Priority     Priority  `json:"priority"`
	Status       Status    `json:"status"`

	Items       []LineItem `json:"items"`
	TotalAmount int64      `json:"total_amount"`

	ApprovalHistory []ApprovalRecord `json:"approval_history"`
	CurrentLevel    int              `json:"current_approval_level"`
	RejectionReason string           `json:"rejection_reason,omitempty"`

	// SpentApplied guards the once-only spent increment on the budget ledger.
	SpentApplied bool `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ComputeTotals assigns 1-based item numbers in input order, computes each
// line's total price, and returns the requisition total.
// Invariant: TotalAmount == Σ Items[i].TotalPrice before every persistence.
func ComputeTotals(items []LineItem) ([]LineItem, int64) {
	var total int64
	out := make([]LineItem, len(items))
	for i, item := range items {
		item.ItemNumber = i + 1
		item.TotalPrice = item.Quantity * item.EstimatedPrice
		total += item.TotalPrice
		out[i] = item
	}
	return out, total
}

// CurrentRecord returns the approval-history entry at the current level, or
// nil when the index is out of range.
func (r *Requisition) CurrentRecord() *ApprovalRecord {
	if r.CurrentLevel < 0 || r.CurrentLevel >= len(r.ApprovalHistory) {
		return nil
	}
	return &r.ApprovalHistory[r.CurrentLevel]
}

// AtFinalLevel reports whether the current level is the last in the chain.
func (r *Requisition) AtFinalLevel() bool {
	return r.CurrentLevel == len(r.ApprovalHistory)-1
}

// AllItemsOrdered reports whether every line item has been placed on a
// purchase order.
func (r *Requisition) AllItemsOrdered() bool {
	for _, item := range r.Items {
		if item.PurchaseOrderID == "" {
			return false
		}
	}
	return len(r.Items) > 0
}
