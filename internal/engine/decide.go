package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
	"reqflow.io/reqflow/internal/pkg/logger"
)

// loadForDecision fetches the requisition and the acting user, and verifies
// the requisition still awaits a decision. Shared by Approve and Reject.
func (e *Engine) loadForDecision(ctx context.Context, requisitionID, actorID string) (*domain.Requisition, *domain.User, error) {
	req, err := e.store.Get(ctx, requisitionID)
	if err != nil {
		return nil, nil, err
	}
	if !req.Status.AwaitingDecision() {
		return nil, nil, apperrors.ErrInvalidStateTransitionf(req.ID, string(req.Status))
	}

	actor, err := e.identity.Resolve(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	return req, actor, nil
}

// Approve records the actor's approval on the current level. The chain role
// sequence was snapshotted at creation, so the check is against the stored
// history, not current policy. On the final level the requisition becomes
// approved; otherwise the level pointer advances by exactly one and the
// status moves to in_approval.
func (e *Engine) Approve(ctx context.Context, requisitionID, actorID, comments string) (*domain.Requisition, error) {
	req, actor, err := e.loadForDecision(ctx, requisitionID, actorID)
	if err != nil {
		return nil, err
	}

	record := req.CurrentRecord()
	if record == nil {
		return nil, apperrors.ErrInvalidStateTransitionf(req.ID, string(req.Status))
	}
	if !actor.Role.CanActAs(record.RequiredRole) {
		return nil, apperrors.ErrInsufficientPermissionf(string(record.RequiredRole), req.CurrentLevel)
	}

	now := time.Now().UTC()
	record.Approver = actor.ID
	record.Status = domain.ApprovalApproved
	record.Comments = comments
	record.Date = &now

	expectedLevel := req.CurrentLevel
	becameApproved := req.AtFinalLevel()
	if becameApproved {
		req.Status = domain.StatusApproved
	} else {
		req.CurrentLevel++
		req.Status = domain.StatusInApproval
	}
	req.UpdatedAt = now

	applied, err := e.store.ApplyDecision(ctx, req, expectedLevel)
	if err != nil {
		return nil, err
	}
	if !applied {
		// Someone else decided this level first; the caller should re-fetch.
		return nil, apperrors.ErrInvalidStateTransitionf(req.ID, string(req.Status))
	}

	logger.Info("requisition approval recorded",
		zap.String("requisition", req.Number),
		zap.String("approver", actor.ID),
		zap.Int("level", expectedLevel),
		zap.String("status", string(req.Status)),
	)

	e.afterPersist(ctx, req, becameApproved, func(c context.Context) {
		if e.events == nil {
			return
		}
		if becameApproved {
			e.events.RequisitionApproved(c, req, actor)
		} else {
			e.events.RequisitionAdvanced(c, req, actor)
		}
	})

	return req, nil
}

// Reject terminates the requisition at the current level. A reason is
// mandatory. The level pointer does not move.
func (e *Engine) Reject(ctx context.Context, requisitionID, actorID, reason string) (*domain.Requisition, error) {
	if reason == "" {
		return nil, apperrors.BadRequest(apperrors.CodeReasonRequired, "rejection reason is required")
	}

	req, actor, err := e.loadForDecision(ctx, requisitionID, actorID)
	if err != nil {
		return nil, err
	}

	record := req.CurrentRecord()
	if record == nil {
		return nil, apperrors.ErrInvalidStateTransitionf(req.ID, string(req.Status))
	}
	if !actor.Role.CanActAs(record.RequiredRole) {
		return nil, apperrors.ErrInsufficientPermissionf(string(record.RequiredRole), req.CurrentLevel)
	}

	now := time.Now().UTC()
	record.Approver = actor.ID
	record.Status = domain.ApprovalRejected
	record.Comments = reason
	record.Date = &now

	expectedLevel := req.CurrentLevel
	req.Status = domain.StatusRejected
	req.RejectionReason = reason
	req.UpdatedAt = now

	applied, err := e.store.ApplyDecision(ctx, req, expectedLevel)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, apperrors.ErrInvalidStateTransitionf(req.ID, string(req.Status))
	}

	logger.Info("requisition rejected",
		zap.String("requisition", req.Number),
		zap.String("approver", actor.ID),
		zap.Int("level", expectedLevel),
		zap.String("reason", reason),
	)

	e.afterPersist(ctx, req, false, func(c context.Context) {
		if e.events != nil {
			e.events.RequisitionRejected(c, req, actor, reason)
		}
	})

	return req, nil
}

// Cancel withdraws a requisition. Only the original requester or an admin may
// cancel, and never once the requisition has been (partially) ordered.
func (e *Engine) Cancel(ctx context.Context, requisitionID, actorID string) (*domain.Requisition, error) {
	req, err := e.store.Get(ctx, requisitionID)
	if err != nil {
		return nil, err
	}

	actor, err := e.identity.Resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.ID != req.RequesterID && actor.Role != domain.RoleAdmin {
		return nil, apperrors.Forbidden(apperrors.CodeForbidden,
			"only the requester or an admin may cancel a requisition")
	}

	switch req.Status {
	case domain.StatusOrdered, domain.StatusPartiallyOrdered:
		return nil, apperrors.Conflict(apperrors.CodeCannotCancelOrdered,
			"requisition has already been ordered")
	case domain.StatusApproved, domain.StatusRejected, domain.StatusCancelled:
		return nil, apperrors.ErrInvalidStateTransitionf(req.ID, string(req.Status))
	}

	req.Status = domain.StatusCancelled
	req.UpdatedAt = time.Now().UTC()

	applied, err := e.store.ApplyCancel(ctx, req)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, apperrors.ErrInvalidStateTransitionf(req.ID, string(req.Status))
	}

	logger.Info("requisition cancelled",
		zap.String("requisition", req.Number),
		zap.String("actor", actor.ID),
	)

	e.afterPersist(ctx, req, false, func(c context.Context) {
		if e.events != nil {
			e.events.RequisitionCancelled(c, req, actor)
		}
	})

	return req, nil
}
