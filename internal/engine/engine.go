// Package engine implements the requisition lifecycle: creation, the
// sequential per-level approval state machine, and the budget/notification
// side effects that follow every transition.
package engine

import (
	"context"

	"go.uber.org/zap"

	"reqflow.io/reqflow/internal/domain"
	"reqflow.io/reqflow/internal/pkg/logger"
	"reqflow.io/reqflow/internal/pkg/worker"
)

// RequisitionStore persists requisitions. Transition writes are conditional
// on the expected (status, level) pair so concurrent decisions serialize per
// requisition: only the first writer succeeds, later ones observe zero rows
// affected and surface InvalidStateTransition.
type RequisitionStore interface {
	Create(ctx context.Context, req *domain.Requisition) error
	Get(ctx context.Context, id string) (*domain.Requisition, error)

	// ApplyDecision persists req's new state, conditioned on the stored row
	// still awaiting a decision at expectedLevel. Reports false without error
	// when the condition no longer holds.
	ApplyDecision(ctx context.Context, req *domain.Requisition, expectedLevel int) (bool, error)

	// ApplyCancel persists cancellation, conditioned on the stored row still
	// being cancellable (draft, pending, or in_approval).
	ApplyCancel(ctx context.Context, req *domain.Requisition) (bool, error)

	ListByDepartment(ctx context.Context, departmentID string, statuses []domain.Status) ([]*domain.Requisition, error)
	ListAwaitingRole(ctx context.Context, roles []domain.Role) ([]*domain.Requisition, error)
}

// IdentityProvider resolves an actor to their role and department.
type IdentityProvider interface {
	Resolve(ctx context.Context, actorID string) (*domain.User, error)
}

// ChainResolver selects the approval configuration for (module, amount).
type ChainResolver interface {
	Resolve(ctx context.Context, module string, amount int64) (*domain.ApprovalConfig, error)
}

// Sequencer issues unique sequence numbers.
type Sequencer interface {
	Next(ctx context.Context, name string) (string, error)
}

// Ledger is the department budget projection updated after transitions.
type Ledger interface {
	Recompute(ctx context.Context, departmentID string) error
	ApplySpent(ctx context.Context, req *domain.Requisition) error
}

// Events receives lifecycle notifications. Implementations must be
// best-effort: failures are theirs to log, never to propagate.
type Events interface {
	RequisitionSubmitted(ctx context.Context, req *domain.Requisition)
	RequisitionAdvanced(ctx context.Context, req *domain.Requisition, actor *domain.User)
	RequisitionApproved(ctx context.Context, req *domain.Requisition, actor *domain.User)
	RequisitionRejected(ctx context.Context, req *domain.Requisition, actor *domain.User, reason string)
	RequisitionCancelled(ctx context.Context, req *domain.Requisition, actor *domain.User)
}

// Engine drives the requisition state machine.
type Engine struct {
	store     RequisitionStore
	identity  IdentityProvider
	chains    ChainResolver
	sequences Sequencer
	ledger    Ledger
	events    Events        // optional
	pools     *worker.Pools // optional: nil runs side effects inline
}

// New creates a lifecycle engine.
func New(store RequisitionStore, identity IdentityProvider, chains ChainResolver, sequences Sequencer, ledger Ledger) *Engine {
	return &Engine{
		store:     store,
		identity:  identity,
		chains:    chains,
		sequences: sequences,
		ledger:    ledger,
	}
}

// SetEvents wires the notification trigger service.
func (e *Engine) SetEvents(events Events) {
	e.events = events
}

// SetPools routes side effects through the worker pool collection.
func (e *Engine) SetPools(pools *worker.Pools) {
	e.pools = pools
}

// afterPersist runs budget recompute and notification dispatch after a
// successful save. The requisition row is already committed and is the source
// of truth; everything here is a best-effort projection, so failures are
// logged and never propagated to the caller.
func (e *Engine) afterPersist(ctx context.Context, req *domain.Requisition, becameApproved bool, notify func(context.Context)) {
	task := func(c context.Context) {
		if becameApproved {
			if err := e.ledger.ApplySpent(c, req); err != nil {
				logger.Error("apply spent failed",
					zap.String("requisition", req.Number),
					zap.Error(err),
				)
			}
		}
		if err := e.ledger.Recompute(c, req.DepartmentID); err != nil {
			logger.Error("budget recompute failed",
				zap.String("department_id", req.DepartmentID),
				zap.Error(err),
			)
		}
		if notify != nil {
			notify(c)
		}
	}

	if e.pools != nil {
		err := e.pools.SubmitDetached("side_effect", task)
		if err == nil {
			return
		}
		logger.Warn("side-effect submission failed, running inline", zap.Error(err))
	}
	task(context.WithoutCancel(ctx))
}
