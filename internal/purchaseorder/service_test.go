package purchaseorder

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
	"reqflow.io/reqflow/internal/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Init("error", "console")
	os.Exit(m.Run())
}

type fakePOStore struct {
	orders        map[string]*domain.PurchaseOrder
	saved         map[string]*domain.Requisition
	denyApply     bool
	denySetStatus bool
}

func newFakePOStore() *fakePOStore {
	return &fakePOStore{
		orders: make(map[string]*domain.PurchaseOrder),
		saved:  make(map[string]*domain.Requisition),
	}
}

func (f *fakePOStore) CreateWithRequisitions(_ context.Context, po *domain.PurchaseOrder, reqs []*domain.Requisition) (bool, error) {
	if f.denyApply {
		return false, nil
	}
	f.orders[po.ID] = po
	for _, req := range reqs {
		f.saved[req.ID] = req
	}
	return true, nil
}

func (f *fakePOStore) Get(_ context.Context, id string) (*domain.PurchaseOrder, error) {
	po, ok := f.orders[id]
	if !ok {
		return nil, apperrors.NotFound(apperrors.CodePurchaseOrderNotFound, "purchase order not found")
	}
	return po, nil
}

func (f *fakePOStore) SetStatus(_ context.Context, id string, status domain.POStatus) (bool, error) {
	if f.denySetStatus {
		return false, nil
	}
	po, ok := f.orders[id]
	if !ok || po.Status != domain.POStatusIssued {
		return false, nil
	}
	po.Status = status
	return true, nil
}

func (f *fakePOStore) ListByDepartment(_ context.Context, departmentID string) ([]*domain.PurchaseOrder, error) {
	var out []*domain.PurchaseOrder
	for _, po := range f.orders {
		if po.DepartmentID == departmentID {
			out = append(out, po)
		}
	}
	return out, nil
}

type fakeRequisitions struct {
	byID map[string]*domain.Requisition
}

func (f *fakeRequisitions) Get(_ context.Context, id string) (*domain.Requisition, error) {
	req, ok := f.byID[id]
	if !ok {
		return nil, apperrors.ErrRequisitionNotFoundf(id)
	}
	return req, nil
}

type fakeIdentity struct {
	users map[string]*domain.User
}

func (f *fakeIdentity) Resolve(_ context.Context, actorID string) (*domain.User, error) {
	u, ok := f.users[actorID]
	if !ok {
		return nil, apperrors.NotFound(apperrors.CodeUserNotFound, "user not found")
	}
	return u, nil
}

type fakeSequencer struct {
	next int
}

func (f *fakeSequencer) Next(_ context.Context, name string) (string, error) {
	f.next++
	return fmt.Sprintf("PO-2026-%05d", f.next), nil
}

func approvedRequisition(id string) *domain.Requisition {
	return &domain.Requisition{
		ID:           id,
		Number:       "REQ-2026-00001",
		RequesterID:  "emp-1",
		DepartmentID: "eng",
		Status:       domain.StatusApproved,
		Items: []domain.LineItem{
			{ItemNumber: 1, Description: "laptop", Quantity: 3, EstimatedPrice: 120000, TotalPrice: 360000},
			{ItemNumber: 2, Description: "dock", Quantity: 3, EstimatedPrice: 25000, TotalPrice: 75000},
		},
		TotalAmount: 435000,
	}
}

type poFixture struct {
	service *Service
	store   *fakePOStore
	reqs    *fakeRequisitions
}

func newPOFixture(requisitions ...*domain.Requisition) *poFixture {
	byID := make(map[string]*domain.Requisition)
	for _, req := range requisitions {
		byID[req.ID] = req
	}
	store := newFakePOStore()
	reqs := &fakeRequisitions{byID: byID}
	identity := &fakeIdentity{users: map[string]*domain.User{
		"emp-1":  {ID: "emp-1", Role: domain.RoleEmployee, DepartmentID: "eng"},
		"appr-1": {ID: "appr-1", Role: domain.RoleApprover, DepartmentID: "eng"},
	}}
	return &poFixture{
		service: NewService(store, reqs, identity, &fakeSequencer{}),
		store:   store,
		reqs:    reqs,
	}
}

func TestCreateOrdersAllItems(t *testing.T) {
	fx := newPOFixture(approvedRequisition("r1"))

	po, err := fx.service.Create(context.Background(), "appr-1", CreateInput{
		Supplier:   "Acme Supplies",
		Selections: []Selection{{RequisitionID: "r1"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "PO-2026-00001", po.Number)
	assert.Equal(t, "eng", po.DepartmentID)
	assert.Equal(t, domain.POStatusIssued, po.Status)
	assert.Equal(t, int64(435000), po.TotalAmount)
	require.Len(t, po.Lines, 2)
	assert.Equal(t, []string{"r1"}, po.RequisitionIDs)

	saved := fx.store.saved["r1"]
	require.NotNil(t, saved)
	assert.Equal(t, domain.StatusOrdered, saved.Status)
	assert.Equal(t, po.ID, saved.Items[0].PurchaseOrderID)
	assert.Equal(t, po.ID, saved.Items[1].PurchaseOrderID)
}

func TestCreatePartialThenCompletion(t *testing.T) {
	req := approvedRequisition("r1")
	fx := newPOFixture(req)

	po, err := fx.service.Create(context.Background(), "appr-1", CreateInput{
		Supplier:   "Acme Supplies",
		Selections: []Selection{{RequisitionID: "r1", ItemNumbers: []int{1}}},
	})
	require.NoError(t, err)

	require.Len(t, po.Lines, 1)
	assert.Equal(t, int64(360000), po.TotalAmount)
	assert.Equal(t, domain.StatusPartiallyOrdered, fx.store.saved["r1"].Status)
	assert.Empty(t, req.Items[1].PurchaseOrderID)

	// Ordering the remaining item completes the requisition. An empty
	// selection picks up whatever is still unordered.
	po2, err := fx.service.Create(context.Background(), "appr-1", CreateInput{
		Supplier:   "Acme Supplies",
		Selections: []Selection{{RequisitionID: "r1"}},
	})
	require.NoError(t, err)
	require.Len(t, po2.Lines, 1)
	assert.Equal(t, 2, po2.Lines[0].ItemNumber)
	assert.Equal(t, domain.StatusOrdered, fx.store.saved["r1"].Status)
}

func TestCreateValidatesInput(t *testing.T) {
	fx := newPOFixture(approvedRequisition("r1"))

	_, err := fx.service.Create(context.Background(), "appr-1", CreateInput{
		Selections: []Selection{{RequisitionID: "r1"}},
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	_, err = fx.service.Create(context.Background(), "appr-1", CreateInput{Supplier: "Acme Supplies"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
}

func TestCreateForbiddenForEmployees(t *testing.T) {
	fx := newPOFixture(approvedRequisition("r1"))

	_, err := fx.service.Create(context.Background(), "emp-1", CreateInput{
		Supplier:   "Acme Supplies",
		Selections: []Selection{{RequisitionID: "r1"}},
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestCreateRejectsUnapprovedRequisition(t *testing.T) {
	req := approvedRequisition("r1")
	req.Status = domain.StatusInApproval
	fx := newPOFixture(req)

	_, err := fx.service.Create(context.Background(), "appr-1", CreateInput{
		Supplier:   "Acme Supplies",
		Selections: []Selection{{RequisitionID: "r1"}},
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeRequisitionNotApproved))
}

func TestCreateRejectsDepartmentMismatch(t *testing.T) {
	r1 := approvedRequisition("r1")
	r2 := approvedRequisition("r2")
	r2.DepartmentID = "ops"
	fx := newPOFixture(r1, r2)

	_, err := fx.service.Create(context.Background(), "appr-1", CreateInput{
		Supplier: "Acme Supplies",
		Selections: []Selection{
			{RequisitionID: "r1"},
			{RequisitionID: "r2"},
		},
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDepartmentMismatch))
}

func TestCreateRejectsUnknownItemNumbers(t *testing.T) {
	fx := newPOFixture(approvedRequisition("r1"))

	_, err := fx.service.Create(context.Background(), "appr-1", CreateInput{
		Supplier:   "Acme Supplies",
		Selections: []Selection{{RequisitionID: "r1", ItemNumbers: []int{1, 9}}},
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
}

func TestCreateRejectsAlreadyOrderedItem(t *testing.T) {
	req := approvedRequisition("r1")
	req.Items[0].PurchaseOrderID = "po-prev"
	req.Status = domain.StatusPartiallyOrdered
	fx := newPOFixture(req)

	// Explicitly naming an ordered item is a conflict.
	_, err := fx.service.Create(context.Background(), "appr-1", CreateInput{
		Supplier:   "Acme Supplies",
		Selections: []Selection{{RequisitionID: "r1", ItemNumbers: []int{1}}},
	})
	require.Error(t, err)
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 409, appErr.HTTPStatus)
}

func TestUpdateStatusDelivers(t *testing.T) {
	fx := newPOFixture(approvedRequisition("r1"))
	po, err := fx.service.Create(context.Background(), "appr-1", CreateInput{
		Supplier:   "Acme Supplies",
		Selections: []Selection{{RequisitionID: "r1"}},
	})
	require.NoError(t, err)

	out, err := fx.service.UpdateStatus(context.Background(), "appr-1", po.ID, domain.POStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, domain.POStatusDelivered, out.Status)
	assert.Equal(t, domain.POStatusDelivered, fx.store.orders[po.ID].Status)

	// Delivered is terminal.
	_, err = fx.service.UpdateStatus(context.Background(), "appr-1", po.ID, domain.POStatusCancelled)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidStateTransition))
}

func TestUpdateStatusValidatesTarget(t *testing.T) {
	fx := newPOFixture(approvedRequisition("r1"))
	po, err := fx.service.Create(context.Background(), "appr-1", CreateInput{
		Supplier:   "Acme Supplies",
		Selections: []Selection{{RequisitionID: "r1"}},
	})
	require.NoError(t, err)

	// Only the terminal statuses are reachable through this operation.
	_, err = fx.service.UpdateStatus(context.Background(), "appr-1", po.ID, domain.POStatusIssued)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	_, err = fx.service.UpdateStatus(context.Background(), "emp-1", po.ID, domain.POStatusDelivered)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = fx.service.UpdateStatus(context.Background(), "appr-1", "missing", domain.POStatusDelivered)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodePurchaseOrderNotFound))
}

func TestUpdateStatusConflictOnConcurrentChange(t *testing.T) {
	fx := newPOFixture(approvedRequisition("r1"))
	po, err := fx.service.Create(context.Background(), "appr-1", CreateInput{
		Supplier:   "Acme Supplies",
		Selections: []Selection{{RequisitionID: "r1"}},
	})
	require.NoError(t, err)

	fx.store.denySetStatus = true
	_, err = fx.service.UpdateStatus(context.Background(), "appr-1", po.ID, domain.POStatusDelivered)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidStateTransition))
}

func TestCreateConflictOnConcurrentChange(t *testing.T) {
	fx := newPOFixture(approvedRequisition("r1"))
	fx.store.denyApply = true

	_, err := fx.service.Create(context.Background(), "appr-1", CreateInput{
		Supplier:   "Acme Supplies",
		Selections: []Selection{{RequisitionID: "r1"}},
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidStateTransition))
}
