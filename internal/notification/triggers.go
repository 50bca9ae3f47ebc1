package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"reqflow.io/reqflow/internal/domain"
	"reqflow.io/reqflow/internal/pkg/logger"
)

// RecipientDirectory resolves which users can decide a given approval role.
type RecipientDirectory interface {
	// UsersWithCapability returns the IDs of active users whose role covers
	// the required role (including admins).
	UsersWithCapability(ctx context.Context, required domain.Role) ([]string, error)
}

// Triggers maps requisition lifecycle events and budget alerts onto inbox
// notifications. Every method is best-effort: failures are logged, never
// returned, because the triggering transition has already committed.
type Triggers struct {
	sender    Sender
	directory RecipientDirectory
}

// NewTriggers creates a notification trigger service.
func NewTriggers(sender Sender, directory RecipientDirectory) *Triggers {
	return &Triggers{sender: sender, directory: directory}
}

// RequisitionSubmitted notifies everyone who can decide the first level.
func (t *Triggers) RequisitionSubmitted(ctx context.Context, req *domain.Requisition) {
	t.notifyCurrentLevel(ctx, req)
}

// RequisitionAdvanced notifies the next level's deciders and tells the
// requester their requisition moved forward.
func (t *Triggers) RequisitionAdvanced(ctx context.Context, req *domain.Requisition, actor *domain.User) {
	t.notifyCurrentLevel(ctx, req)

	params := Params{
		RecipientID:  req.RequesterID,
		Type:         TypeRequisitionUpdate,
		Title:        fmt.Sprintf("Requisition %s advanced", req.Number),
		Message:      fmt.Sprintf("%s approved level %d of requisition %s", actor.Name, req.CurrentLevel, req.Number),
		ResourceType: "requisition",
		ResourceID:   req.ID,
	}
	t.send(ctx, req, params)
}

// RequisitionApproved notifies the requester of final approval.
func (t *Triggers) RequisitionApproved(ctx context.Context, req *domain.Requisition, actor *domain.User) {
	params := Params{
		RecipientID:  req.RequesterID,
		Type:         TypeApprovalCompleted,
		Title:        fmt.Sprintf("Requisition %s approved", req.Number),
		Message:      fmt.Sprintf("Requisition %s (%s) received final approval from %s", req.Number, formatAmount(req.TotalAmount), actor.Name),
		ResourceType: "requisition",
		ResourceID:   req.ID,
	}
	t.send(ctx, req, params)
}

// RequisitionRejected notifies the requester with the rejection reason.
func (t *Triggers) RequisitionRejected(ctx context.Context, req *domain.Requisition, actor *domain.User, reason string) {
	params := Params{
		RecipientID:  req.RequesterID,
		Type:         TypeApprovalRejected,
		Title:        fmt.Sprintf("Requisition %s rejected", req.Number),
		Message:      fmt.Sprintf("Requisition %s was rejected by %s: %s", req.Number, actor.Name, reason),
		ResourceType: "requisition",
		ResourceID:   req.ID,
	}
	t.send(ctx, req, params)
}

// RequisitionCancelled notifies the requester unless they cancelled it
// themselves.
func (t *Triggers) RequisitionCancelled(ctx context.Context, req *domain.Requisition, actor *domain.User) {
	if actor.ID == req.RequesterID {
		return
	}
	params := Params{
		RecipientID:  req.RequesterID,
		Type:         TypeRequisitionUpdate,
		Title:        fmt.Sprintf("Requisition %s cancelled", req.Number),
		Message:      fmt.Sprintf("Requisition %s was cancelled by %s", req.Number, actor.Name),
		ResourceType: "requisition",
		ResourceID:   req.ID,
	}
	t.send(ctx, req, params)
}

// BudgetAlertTriggered notifies finance users when a threshold fires.
func (t *Triggers) BudgetAlertTriggered(ctx context.Context, budget *domain.DepartmentBudget, alert domain.BudgetAlert) {
	recipients, err := t.directory.UsersWithCapability(ctx, domain.RoleFinance)
	if err != nil {
		logger.Error("failed to find finance users for budget alert",
			zap.String("department_id", budget.DepartmentID),
			zap.Error(err),
		)
		return
	}
	if len(recipients) == 0 {
		logger.Warn("no finance users found for budget alert",
			zap.String("department_id", budget.DepartmentID),
		)
		return
	}

	params := Params{
		Type:  TypeBudgetAlert,
		Title: fmt.Sprintf("Department budget at %d%%", alert.Percentage),
		Message: fmt.Sprintf("Department %s has consumed %s of its %s budget for fiscal year %d",
			budget.DepartmentID, formatAmount(budget.Spent+budget.Committed), formatAmount(budget.Annual), budget.FiscalYear),
		ResourceType: "department_budget",
		ResourceID:   budget.DepartmentID,
	}
	if err := t.sender.SendToMany(ctx, recipients, params); err != nil {
		logger.Error("failed to send budget alert notifications",
			zap.String("department_id", budget.DepartmentID),
			zap.Int("percentage", alert.Percentage),
			zap.Error(err),
		)
	}
}

// notifyCurrentLevel fans a pending-approval notification out to every user
// who can decide the requisition's current level.
func (t *Triggers) notifyCurrentLevel(ctx context.Context, req *domain.Requisition) {
	record := req.CurrentRecord()
	if record == nil {
		return
	}

	recipients, err := t.directory.UsersWithCapability(ctx, record.RequiredRole)
	if err != nil {
		logger.Error("failed to find approvers for notification",
			zap.String("requisition", req.Number),
			zap.String("required_role", string(record.RequiredRole)),
			zap.Error(err),
		)
		return
	}
	if len(recipients) == 0 {
		logger.Warn("no approvers found for notification",
			zap.String("requisition", req.Number),
			zap.String("required_role", string(record.RequiredRole)),
		)
		return
	}

	params := Params{
		Type:         TypeApprovalPending,
		Title:        fmt.Sprintf("Requisition %s awaits your approval", req.Number),
		Message:      fmt.Sprintf("%s (%s) is pending at level %q", req.Title, formatAmount(req.TotalAmount), record.LevelName),
		ResourceType: "requisition",
		ResourceID:   req.ID,
	}
	if err := t.sender.SendToMany(ctx, recipients, params); err != nil {
		logger.Error("failed to send pending-approval notifications",
			zap.String("requisition", req.Number),
			zap.Int("approver_count", len(recipients)),
			zap.Error(err),
		)
	}
}

func (t *Triggers) send(ctx context.Context, req *domain.Requisition, params Params) {
	if err := t.sender.Send(ctx, params); err != nil {
		logger.Error("failed to send notification",
			zap.String("requisition", req.Number),
			zap.String("type", params.Type),
			zap.Error(err),
		)
	}
}

// formatAmount renders minor currency units as a decimal string.
func formatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
