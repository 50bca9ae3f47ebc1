package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
	"reqflow.io/reqflow/internal/pkg/logger"
)

// ItemInput is a raw line item supplied by the requester.
type ItemInput struct {
	Description    string `json:"description"`
	Category       string `json:"category,omitempty"`
	Quantity       int64  `json:"quantity"`
	Unit           string `json:"unit,omitempty"`
	EstimatedPrice int64  `json:"estimated_price"`
	Justification  string `json:"justification,omitempty"`
	Specifications string `json:"specifications,omitempty"`
}

// CreateInput carries the fields of a new requisition.
type CreateInput struct {
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	RequiredDate time.Time       `json:"required_date"`
	Priority     domain.Priority `json:"priority,omitempty"`
	Items        []ItemInput     `json:"items"`
}

// validate checks the raw input before any side effect happens.
func (in *CreateInput) validate() error {
	if in.Title == "" {
		return apperrors.BadRequest(apperrors.CodeValidationFailed, "title is required")
	}
	if len(in.Items) == 0 {
		return apperrors.BadRequest(apperrors.CodeValidationFailed, "at least one line item is required")
	}
	if in.Priority != "" && !domain.ValidPriority(in.Priority) {
		return apperrors.BadRequest(apperrors.CodeValidationFailed, "unknown priority").
			WithParams(map[string]interface{}{"priority": string(in.Priority)})
	}
	for i, item := range in.Items {
		if item.Description == "" {
			return apperrors.BadRequest(apperrors.CodeValidationFailed, "item description is required").
				WithParams(map[string]interface{}{"index": i})
		}
		if item.Quantity <= 0 {
			return apperrors.BadRequest(apperrors.CodeValidationFailed, "item quantity must be positive").
				WithParams(map[string]interface{}{"index": i})
		}
		if item.EstimatedPrice < 0 {
			return apperrors.BadRequest(apperrors.CodeValidationFailed, "item estimated price must not be negative").
				WithParams(map[string]interface{}{"index": i})
		}
	}
	return nil
}

// Create builds and persists a new requisition in status pending.
//
// The approval chain is resolved from the total amount and its role sequence
// is snapshotted into the approval history, one pending entry per level, so
// later policy changes cannot reshape this requisition. Nothing is persisted
// when any step fails.
func (e *Engine) Create(ctx context.Context, requesterID string, in CreateInput) (*domain.Requisition, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	requester, err := e.identity.Resolve(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if requester.DepartmentID == "" {
		return nil, apperrors.BadRequest(apperrors.CodeNoDepartmentAssigned,
			"requester has no department assigned")
	}

	items := make([]domain.LineItem, len(in.Items))
	for i, raw := range in.Items {
		items[i] = domain.LineItem{
			Description:    raw.Description,
			Category:       raw.Category,
			Quantity:       raw.Quantity,
			Unit:           raw.Unit,
			EstimatedPrice: raw.EstimatedPrice,
			Justification:  raw.Justification,
			Specifications: raw.Specifications,
		}
	}
	items, total := domain.ComputeTotals(items)

	chain, err := e.chains.Resolve(ctx, domain.ModuleRequisition, total)
	if err != nil {
		return nil, err
	}

	number, err := e.sequences.Next(ctx, domain.ModuleRequisition)
	if err != nil {
		return nil, fmt.Errorf("allocate requisition number: %w", err)
	}

	history := make([]domain.ApprovalRecord, len(chain.Levels))
	for i, level := range chain.Levels {
		history[i] = domain.ApprovalRecord{
			Level:        i,
			RequiredRole: level.Role,
			LevelName:    level.Name,
			Status:       domain.ApprovalPending,
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate requisition id: %w", err)
	}

	priority := in.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}

	now := time.Now().UTC()
	req := &domain.Requisition{
		ID:              id.String(),
		Number:          number,
		RequesterID:     requester.ID,
		DepartmentID:    requester.DepartmentID,
		Title:           in.Title,
		Description:     in.Description,
		RequiredDate:    in.RequiredDate,
		Priority:        priority,
		Status:          domain.StatusPending,
		Items:           items,
		TotalAmount:     total,
		ApprovalHistory: history,
		CurrentLevel:    0,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := e.store.Create(ctx, req); err != nil {
		return nil, err
	}

	logger.Info("requisition created",
		zap.String("requisition", req.Number),
		zap.String("requester", requester.ID),
		zap.String("department_id", req.DepartmentID),
		zap.Int64("total_amount", req.TotalAmount),
		zap.Int("levels", len(history)),
	)

	e.afterPersist(ctx, req, false, func(c context.Context) {
		if e.events != nil {
			e.events.RequisitionSubmitted(c, req)
		}
	})

	return req, nil
}
