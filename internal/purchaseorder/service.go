// Package purchaseorder derives purchase orders from approved requisitions.
package purchaseorder

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

// Store persists purchase orders and applies the ordering transition to the
// source requisitions atomically.
type Store interface {
	// CreateWithRequisitions inserts the purchase order and the requisitions'
	// new ordered state in one transaction. Reports false when a requisition
	// changed concurrently.
	CreateWithRequisitions(ctx context.Context, po *domain.PurchaseOrder, reqs []*domain.Requisition) (bool, error)
	Get(ctx context.Context, id string) (*domain.PurchaseOrder, error)
	ListByDepartment(ctx context.Context, departmentID string) ([]*domain.PurchaseOrder, error)

	// SetStatus moves an issued purchase order to a terminal status. Reports
	// false without error when the order is no longer issued.
	SetStatus(ctx context.Context, id string, status domain.POStatus) (bool, error)
}

// RequisitionSource loads the requisitions being ordered.
type RequisitionSource interface {
	Get(ctx context.Context, id string) (*domain.Requisition, error)
}

// IdentityProvider resolves the acting user.
type IdentityProvider interface {
	Resolve(ctx context.Context, actorID string) (*domain.User, error)
}

// Sequencer issues purchase order numbers.
type Sequencer interface {
	Next(ctx context.Context, name string) (string, error)
}

// Selection picks line items from one requisition. Empty ItemNumbers means
// every item not yet ordered.
type Selection struct {
	RequisitionID string `json:"requisition_id"`
	ItemNumbers   []int  `json:"item_numbers,omitempty"`
}

// CreateInput carries the fields of a new purchase order.
type CreateInput struct {
	Supplier   string      `json:"supplier"`
	Selections []Selection `json:"selections"`
}

// Service creates and reads purchase orders.
type Service struct {
	store        Store
	requisitions RequisitionSource
	identity     IdentityProvider
	sequences    Sequencer
}

// NewService creates a purchase order service.
func NewService(store Store, requisitions RequisitionSource, identity IdentityProvider, sequences Sequencer) *Service {
	return &Service{
		store:        store,
		requisitions: requisitions,
		identity:     identity,
		sequences:    sequences,
	}
}

// Create derives a purchase order from selected line items of approved
// requisitions. All requisitions must belong to the same department. Each
// requisition moves to ordered when all of its items are on purchase orders,
// partially_ordered otherwise.
func (s *Service) Create(ctx context.Context, actorID string, in CreateInput) (*domain.PurchaseOrder, error) {
	if in.Supplier == "" {
		return nil, apperrors.BadRequest(apperrors.CodeValidationFailed, "supplier is required")
	}
	if len(in.Selections) == 0 {
		return nil, apperrors.BadRequest(apperrors.CodeValidationFailed, "at least one requisition selection is required")
	}

	actor, err := s.identity.Resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role == domain.RoleEmployee {
		return nil, apperrors.Forbidden(apperrors.CodeForbidden,
			"employees cannot create purchase orders")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate purchase order id: %w", err)
	}

	now := time.Now().UTC()
	po := &domain.PurchaseOrder{
		ID:        id.String(),
		Supplier:  in.Supplier,
		Status:    domain.POStatusIssued,
		CreatedBy: actor.ID,
		CreatedAt: now,
	}

	var reqs []*domain.Requisition
	for _, sel := range in.Selections {
		req, err := s.requisitions.Get(ctx, sel.RequisitionID)
		if err != nil {
			return nil, err
		}
		if req.Status != domain.StatusApproved && req.Status != domain.StatusPartiallyOrdered {
			return nil, apperrors.Conflict(apperrors.CodeRequisitionNotApproved,
				"requisition is not approved for ordering").
				WithParams(map[string]interface{}{"requisition_id": req.ID, "status": string(req.Status)})
		}
		if po.DepartmentID == "" {
			po.DepartmentID = req.DepartmentID
		} else if po.DepartmentID != req.DepartmentID {
			return nil, apperrors.Conflict(apperrors.CodeDepartmentMismatch,
				"all requisitions on a purchase order must belong to one department").
				WithParams(map[string]interface{}{"requisition_id": req.ID})
		}

		lines, err := takeItems(req, sel.ItemNumbers, po.ID)
		if err != nil {
			return nil, err
		}
		for _, line := range lines {
			po.TotalAmount += line.TotalPrice
		}
		po.Lines = append(po.Lines, lines...)
		po.RequisitionIDs = append(po.RequisitionIDs, req.ID)

		if req.AllItemsOrdered() {
			req.Status = domain.StatusOrdered
		} else {
			req.Status = domain.StatusPartiallyOrdered
		}
		req.UpdatedAt = now
		reqs = append(reqs, req)
	}

	number, err := s.sequences.Next(ctx, domain.ModulePurchaseOrder)
	if err != nil {
		return nil, fmt.Errorf("allocate purchase order number: %w", err)
	}
	po.Number = number

	applied, err := s.store.CreateWithRequisitions(ctx, po, reqs)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, apperrors.Conflict(apperrors.CodeInvalidStateTransition,
			"a requisition changed while the purchase order was being created")
	}

	logger.Info("purchase order created",
		zap.String("purchase_order", po.Number),
		zap.String("department_id", po.DepartmentID),
		zap.Int64("total_amount", po.TotalAmount),
		zap.Int("requisitions", len(reqs)),
		zap.String("created_by", actor.ID),
	)
	return po, nil
}

// UpdateStatus marks an issued purchase order delivered or cancelled.
func (s *Service) UpdateStatus(ctx context.Context, actorID, id string, status domain.POStatus) (*domain.PurchaseOrder, error) {
	if status != domain.POStatusDelivered && status != domain.POStatusCancelled {
		return nil, apperrors.BadRequest(apperrors.CodeValidationFailed, "unsupported purchase order status").
			WithParams(map[string]interface{}{"status": string(status)})
	}

	actor, err := s.identity.Resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role == domain.RoleEmployee {
		return nil, apperrors.Forbidden(apperrors.CodeForbidden,
			"employees cannot update purchase orders")
	}

	po, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !po.Status.CanBecome(status) {
		return nil, apperrors.Conflict(apperrors.CodeInvalidStateTransition,
			"purchase order is not in an updatable state").
			WithParams(map[string]interface{}{"purchase_order_id": po.ID, "status": string(po.Status)})
	}

	applied, err := s.store.SetStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, apperrors.Conflict(apperrors.CodeInvalidStateTransition,
			"purchase order changed while the status was being updated").
			WithParams(map[string]interface{}{"purchase_order_id": po.ID})
	}
	po.Status = status

	logger.Info("purchase order status updated",
		zap.String("purchase_order", po.Number),
		zap.String("status", string(status)),
		zap.String("updated_by", actor.ID),
	)
	return po, nil
}

// Get returns a purchase order by ID.
func (s *Service) Get(ctx context.Context, id string) (*domain.PurchaseOrder, error) {
	return s.store.Get(ctx, id)
}

// ListByDepartment returns a department's purchase orders.
func (s *Service) ListByDepartment(ctx context.Context, departmentID string) ([]*domain.PurchaseOrder, error) {
	return s.store.ListByDepartment(ctx, departmentID)
}

// takeItems marks the selected line items with the purchase order ID and
// returns the corresponding order lines. Empty numbers selects every item not
// yet ordered.
func takeItems(req *domain.Requisition, numbers []int, poID string) ([]domain.PurchaseOrderLine, error) {
	wanted := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		wanted[n] = true
	}

	var lines []domain.PurchaseOrderLine
	for i := range req.Items {
		item := &req.Items[i]
		if len(numbers) > 0 && !wanted[item.ItemNumber] {
			continue
		}
		delete(wanted, item.ItemNumber)
		if item.PurchaseOrderID != "" {
			if len(numbers) == 0 {
				continue
			}
			return nil, apperrors.Conflict(apperrors.CodeValidationFailed,
				"line item is already on a purchase order").
				WithParams(map[string]interface{}{"requisition_id": req.ID, "item_number": item.ItemNumber})
		}
		item.PurchaseOrderID = poID
		lines = append(lines, domain.PurchaseOrderLine{
			RequisitionID: req.ID,
			ItemNumber:    item.ItemNumber,
			Description:   item.Description,
			Quantity:      item.Quantity,
			UnitPrice:     item.EstimatedPrice,
			TotalPrice:    item.TotalPrice,
		})
	}

	if len(wanted) > 0 {
		return nil, apperrors.BadRequest(apperrors.CodeValidationFailed,
			"selection references unknown line items").
			WithParams(map[string]interface{}{"requisition_id": req.ID})
	}
	if len(lines) == 0 {
		return nil, apperrors.BadRequest(apperrors.CodeValidationFailed,
			"selection contains no orderable line items").
			WithParams(map[string]interface{}{"requisition_id": req.ID})
	}
	return lines, nil
}
