package engine

import (
	"context"

	"reqflow.io/reqflow/internal/domain"
)

// Get returns a requisition by ID.
func (e *Engine) Get(ctx context.Context, requisitionID string) (*domain.Requisition, error) {
	return e.store.Get(ctx, requisitionID)
}

// ListByDepartment returns a department's requisitions, optionally filtered
// by status.
func (e *Engine) ListByDepartment(ctx context.Context, departmentID string, statuses []domain.Status) ([]*domain.Requisition, error) {
	return e.store.ListByDepartment(ctx, departmentID, statuses)
}

// ListPendingForActor returns requisitions whose current level the actor's
// role can decide — the approver's inbox.
func (e *Engine) ListPendingForActor(ctx context.Context, actorID string) ([]*domain.Requisition, error) {
	actor, err := e.identity.Resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var roles []domain.Role
	for _, required := range []domain.Role{domain.RoleApprover, domain.RoleFinance, domain.RoleAdmin} {
		if actor.Role.CanActAs(required) {
			roles = append(roles, required)
		}
	}
	if len(roles) == 0 {
		return nil, nil
	}
	return e.store.ListAwaitingRole(ctx, roles)
}
