// Package budget maintains the department budget ledger.
//
// Committed is a derived projection: it is always recomputed as the live sum
// of requisition amounts awaiting a decision, never adjusted incrementally.
// Concurrent recomputes therefore converge without locking.
package budget

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"reqflow.io/reqflow/internal/domain"
	"reqflow.io/reqflow/internal/pkg/logger"
)

// RequisitionSource exposes the requisition queries the ledger needs.
type RequisitionSource interface {
	// CommittedTotal returns the live sum of totalAmount over requisitions in
	// {pending, in_approval} for a department.
	CommittedTotal(ctx context.Context, departmentID string) (int64, error)

	// MarkSpentApplied flips the requisition's spent guard from false to true
	// and reports whether this call performed the flip.
	MarkSpentApplied(ctx context.Context, requisitionID string) (bool, error)
}

// Store persists department budget rows.
type Store interface {
	Get(ctx context.Context, departmentID string) (*domain.DepartmentBudget, error)
	SetCommitted(ctx context.Context, departmentID string, committed int64) error
	AddSpent(ctx context.Context, departmentID string, amount int64) error
	SaveAlerts(ctx context.Context, departmentID string, alerts []domain.BudgetAlert) error
}

// AlertNotifier receives newly triggered budget alerts. Best-effort.
type AlertNotifier interface {
	BudgetAlertTriggered(ctx context.Context, budget *domain.DepartmentBudget, alert domain.BudgetAlert)
}

// Ledger recomputes department budget figures in reaction to requisition
// state transitions. The requisition store remains the source of truth; the
// ledger is a self-healing projection of it.
type Ledger struct {
	budgets      Store
	requisitions RequisitionSource
	notifier     AlertNotifier // optional
	now          func() time.Time
}

// NewLedger creates a budget ledger.
func NewLedger(budgets Store, requisitions RequisitionSource) *Ledger {
	return &Ledger{
		budgets:      budgets,
		requisitions: requisitions,
		now:          time.Now,
	}
}

// SetNotifier wires the alert notifier.
func (l *Ledger) SetNotifier(n AlertNotifier) {
	l.notifier = n
}

// Recompute replaces the department's committed figure with the live sum of
// requisitions awaiting a decision, then re-evaluates alert thresholds.
// Recomputing twice with no intervening requisition change yields the same
// value.
func (l *Ledger) Recompute(ctx context.Context, departmentID string) error {
	committed, err := l.requisitions.CommittedTotal(ctx, departmentID)
	if err != nil {
		return fmt.Errorf("sum committed for department %s: %w", departmentID, err)
	}

	if err := l.budgets.SetCommitted(ctx, departmentID, committed); err != nil {
		return fmt.Errorf("set committed for department %s: %w", departmentID, err)
	}

	b, err := l.budgets.Get(ctx, departmentID)
	if err != nil {
		return fmt.Errorf("reload budget for department %s: %w", departmentID, err)
	}

	fired := b.EvaluateAlerts(l.now().UTC())
	if len(fired) > 0 {
		if err := l.budgets.SaveAlerts(ctx, departmentID, b.Alerts); err != nil {
			return fmt.Errorf("save alerts for department %s: %w", departmentID, err)
		}
		if l.notifier != nil {
			for _, alert := range fired {
				l.notifier.BudgetAlertTriggered(ctx, b, alert)
			}
		}
	}

	logger.Debug("budget recomputed",
		zap.String("department_id", departmentID),
		zap.Int64("committed", committed),
		zap.Int("alerts_fired", len(fired)),
	)
	return nil
}

// ApplySpent adds the requisition's total to the department's spent figure
// exactly once. The guard is a conditional flag flip on the requisition row,
// so replaying the call for an already-approved requisition is a no-op.
func (l *Ledger) ApplySpent(ctx context.Context, req *domain.Requisition) error {
	flipped, err := l.requisitions.MarkSpentApplied(ctx, req.ID)
	if err != nil {
		return fmt.Errorf("mark spent applied for requisition %s: %w", req.ID, err)
	}
	if !flipped {
		return nil
	}

	if err := l.budgets.AddSpent(ctx, req.DepartmentID, req.TotalAmount); err != nil {
		return fmt.Errorf("add spent for department %s: %w", req.DepartmentID, err)
	}

	logger.Info("budget spent applied",
		zap.String("requisition", req.Number),
		zap.String("department_id", req.DepartmentID),
		zap.Int64("amount", req.TotalAmount),
	)
	return nil
}
