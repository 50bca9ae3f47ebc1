package notification

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reqflow.io/reqflow/internal/domain"
)

type recordingSender struct {
	single []Params
	fanned []struct {
		recipients []string
		params     Params
	}
}

func (r *recordingSender) Send(_ context.Context, params Params) error {
	r.single = append(r.single, params)
	return nil
}

func (r *recordingSender) SendToMany(_ context.Context, recipientIDs []string, params Params) error {
	r.fanned = append(r.fanned, struct {
		recipients []string
		params     Params
	}{recipientIDs, params})
	return nil
}

type fakeDirectory struct {
	byRole map[domain.Role][]string
}

func (f *fakeDirectory) UsersWithCapability(_ context.Context, required domain.Role) ([]string, error) {
	return f.byRole[required], nil
}

func twoLevelRequisition() *domain.Requisition {
	return &domain.Requisition{
		ID:          "r1",
		Number:      "REQ-2026-00001",
		RequesterID: "emp-1",
		Title:       "Team laptops",
		TotalAmount: 435000,
		Status:      domain.StatusPending,
		ApprovalHistory: []domain.ApprovalRecord{
			{Level: 0, RequiredRole: domain.RoleApprover, LevelName: "Manager", Status: domain.ApprovalPending},
			{Level: 1, RequiredRole: domain.RoleFinance, LevelName: "Finance", Status: domain.ApprovalPending},
		},
	}
}

func newTriggersFixture() (*Triggers, *recordingSender) {
	sender := &recordingSender{}
	directory := &fakeDirectory{byRole: map[domain.Role][]string{
		domain.RoleApprover: {"appr-1", "admin-1"},
		domain.RoleFinance:  {"fin-1", "admin-1"},
	}}
	return NewTriggers(sender, directory), sender
}

func TestSubmittedNotifiesFirstLevel(t *testing.T) {
	triggers, sender := newTriggersFixture()
	req := twoLevelRequisition()

	triggers.RequisitionSubmitted(context.Background(), req)

	require.Len(t, sender.fanned, 1)
	assert.Equal(t, []string{"appr-1", "admin-1"}, sender.fanned[0].recipients)
	assert.Equal(t, TypeApprovalPending, sender.fanned[0].params.Type)
	assert.Contains(t, sender.fanned[0].params.Message, "Manager")
	assert.Empty(t, sender.single)
}

func TestAdvancedNotifiesNextLevelAndRequester(t *testing.T) {
	triggers, sender := newTriggersFixture()
	req := twoLevelRequisition()
	req.Status = domain.StatusInApproval
	req.CurrentLevel = 1

	actor := &domain.User{ID: "appr-1", Name: "Kim", Role: domain.RoleApprover}
	triggers.RequisitionAdvanced(context.Background(), req, actor)

	require.Len(t, sender.fanned, 1)
	assert.Equal(t, []string{"fin-1", "admin-1"}, sender.fanned[0].recipients)
	assert.Equal(t, TypeApprovalPending, sender.fanned[0].params.Type)

	require.Len(t, sender.single, 1)
	assert.Equal(t, "emp-1", sender.single[0].RecipientID)
	assert.Equal(t, TypeRequisitionUpdate, sender.single[0].Type)
	assert.Contains(t, sender.single[0].Message, "Kim")
}

func TestApprovedNotifiesRequester(t *testing.T) {
	triggers, sender := newTriggersFixture()
	req := twoLevelRequisition()
	req.Status = domain.StatusApproved
	req.CurrentLevel = 1

	actor := &domain.User{ID: "fin-1", Name: "Ada", Role: domain.RoleFinance}
	triggers.RequisitionApproved(context.Background(), req, actor)

	assert.Empty(t, sender.fanned)
	require.Len(t, sender.single, 1)
	assert.Equal(t, "emp-1", sender.single[0].RecipientID)
	assert.Equal(t, TypeApprovalCompleted, sender.single[0].Type)
	assert.Contains(t, sender.single[0].Message, "4350.00")
}

func TestRejectedIncludesReason(t *testing.T) {
	triggers, sender := newTriggersFixture()
	req := twoLevelRequisition()
	req.Status = domain.StatusRejected

	actor := &domain.User{ID: "appr-1", Name: "Kim", Role: domain.RoleApprover}
	triggers.RequisitionRejected(context.Background(), req, actor, "over budget")

	require.Len(t, sender.single, 1)
	assert.Equal(t, TypeApprovalRejected, sender.single[0].Type)
	assert.Contains(t, sender.single[0].Message, "over budget")
}

func TestCancelledSkipsSelfCancel(t *testing.T) {
	triggers, sender := newTriggersFixture()
	req := twoLevelRequisition()
	req.Status = domain.StatusCancelled

	requester := &domain.User{ID: "emp-1", Name: "Dana", Role: domain.RoleEmployee}
	triggers.RequisitionCancelled(context.Background(), req, requester)
	assert.Empty(t, sender.single)

	admin := &domain.User{ID: "admin-1", Name: "Root", Role: domain.RoleAdmin}
	triggers.RequisitionCancelled(context.Background(), req, admin)
	require.Len(t, sender.single, 1)
	assert.Equal(t, "emp-1", sender.single[0].RecipientID)
	assert.Contains(t, sender.single[0].Message, "Root")
}

func TestBudgetAlertNotifiesFinance(t *testing.T) {
	triggers, sender := newTriggersFixture()
	budget := &domain.DepartmentBudget{
		DepartmentID: "eng",
		FiscalYear:   2026,
		Annual:       1000000,
		Spent:        300000,
		Committed:    550000,
	}

	triggers.BudgetAlertTriggered(context.Background(), budget, domain.BudgetAlert{Percentage: 80})

	require.Len(t, sender.fanned, 1)
	assert.Equal(t, []string{"fin-1", "admin-1"}, sender.fanned[0].recipients)
	assert.Equal(t, TypeBudgetAlert, sender.fanned[0].params.Type)
	assert.Contains(t, sender.fanned[0].params.Title, "80%")
	assert.Contains(t, sender.fanned[0].params.Message, "eng")
}

func TestBudgetAlertNoFinanceUsers(t *testing.T) {
	sender := &recordingSender{}
	triggers := NewTriggers(sender, &fakeDirectory{byRole: map[domain.Role][]string{}})

	triggers.BudgetAlertTriggered(context.Background(), &domain.DepartmentBudget{DepartmentID: "eng"}, domain.BudgetAlert{Percentage: 50})
	assert.Empty(t, sender.fanned)
}
