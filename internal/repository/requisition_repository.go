// Package repository implements PostgreSQL persistence with hand-written SQL
// over the shared pgx pool. State transitions are conditional updates: the
// WHERE clause restates the state the caller read, and zero rows affected
// means another writer got there first.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
)

// RequisitionRepository handles CRUD and conditional transitions for
// requisitions.
type RequisitionRepository struct {
	db *pgxpool.Pool
}

// NewRequisitionRepository creates a requisition repository.
func NewRequisitionRepository(db *pgxpool.Pool) *RequisitionRepository {
	return &RequisitionRepository{db: db}
}

const requisitionColumns = `
	id, number, requester_id, department_id, title, description,
	required_date, priority, status, items, total_amount,
	approval_history, current_level, rejection_reason, spent_applied,
	created_at, updated_at`

// awaitingRole returns the role column value for the requisition's current
// state: the required role of the current level while a decision is pending,
// empty otherwise. Kept as a plain column so the approver inbox query does
// not have to dig through the history JSON.
func awaitingRole(req *domain.Requisition) string {
	if !req.Status.AwaitingDecision() {
		return ""
	}
	record := req.CurrentRecord()
	if record == nil {
		return ""
	}
	return string(record.RequiredRole)
}

// Create inserts a new requisition.
func (r *RequisitionRepository) Create(ctx context.Context, req *domain.Requisition) error {
	itemsJSON, err := json.Marshal(req.Items)
	if err != nil {
		return fmt.Errorf("marshal items for requisition %s: %w", req.Number, err)
	}
	historyJSON, err := json.Marshal(req.ApprovalHistory)
	if err != nil {
		return fmt.Errorf("marshal approval history for requisition %s: %w", req.Number, err)
	}

	query := `
		INSERT INTO requisitions
		    (id, number, requester_id, department_id, title, description,
		     required_date, priority, status, items, total_amount,
		     approval_history, current_level, awaiting_role, rejection_reason,
		     spent_applied, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6,
		        $7, $8, $9, $10, $11,
		        $12, $13, $14, $15,
		        $16, $17, $18)
	`
	_, err = r.db.Exec(ctx, query,
		req.ID,
		req.Number,
		req.RequesterID,
		req.DepartmentID,
		req.Title,
		req.Description,
		req.RequiredDate,
		string(req.Priority),
		string(req.Status),
		itemsJSON,
		req.TotalAmount,
		historyJSON,
		req.CurrentLevel,
		awaitingRole(req),
		req.RejectionReason,
		req.SpentApplied,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert requisition %s: %w", req.Number, err)
	}
	return nil
}

// Get retrieves a requisition by ID.
func (r *RequisitionRepository) Get(ctx context.Context, id string) (*domain.Requisition, error) {
	query := `SELECT ` + requisitionColumns + ` FROM requisitions WHERE id = $1`

	req, err := scanRequisition(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrRequisitionNotFoundf(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get requisition %s: %w", id, err)
	}
	return req, nil
}

// ApplyDecision persists an approve/reject transition, conditioned on the
// stored row still awaiting a decision at expectedLevel. Reports false
// without error when a concurrent writer decided the level first.
func (r *RequisitionRepository) ApplyDecision(ctx context.Context, req *domain.Requisition, expectedLevel int) (bool, error) {
	historyJSON, err := json.Marshal(req.ApprovalHistory)
	if err != nil {
		return false, fmt.Errorf("marshal approval history for requisition %s: %w", req.Number, err)
	}

	query := `
		UPDATE requisitions
		SET status = $1,
		    approval_history = $2,
		    current_level = $3,
		    awaiting_role = $4,
		    rejection_reason = $5,
		    updated_at = $6
		WHERE id = $7
		  AND status IN ('pending', 'in_approval')
		  AND current_level = $8
	`
	tag, err := r.db.Exec(ctx, query,
		string(req.Status),
		historyJSON,
		req.CurrentLevel,
		awaitingRole(req),
		req.RejectionReason,
		req.UpdatedAt,
		req.ID,
		expectedLevel,
	)
	if err != nil {
		return false, fmt.Errorf("apply decision on requisition %s: %w", req.ID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// ApplyCancel persists cancellation, conditioned on the stored row still
// being cancellable.
func (r *RequisitionRepository) ApplyCancel(ctx context.Context, req *domain.Requisition) (bool, error) {
	query := `
		UPDATE requisitions
		SET status = 'cancelled',
		    awaiting_role = '',
		    updated_at = $1
		WHERE id = $2
		  AND status IN ('draft', 'pending', 'in_approval')
	`
	tag, err := r.db.Exec(ctx, query, req.UpdatedAt, req.ID)
	if err != nil {
		return false, fmt.Errorf("apply cancel on requisition %s: %w", req.ID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListByDepartment returns a department's requisitions, newest first,
// optionally filtered by status.
func (r *RequisitionRepository) ListByDepartment(ctx context.Context, departmentID string, statuses []domain.Status) ([]*domain.Requisition, error) {
	query := `SELECT ` + requisitionColumns + ` FROM requisitions WHERE department_id = $1`
	args := []interface{}{departmentID}
	if len(statuses) > 0 {
		values := make([]string, len(statuses))
		for i, s := range statuses {
			values[i] = string(s)
		}
		query += ` AND status = ANY($2)`
		args = append(args, values)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list requisitions for department %s: %w", departmentID, err)
	}
	defer rows.Close()
	return collectRequisitions(rows)
}

// ListAwaitingRole returns requisitions whose current level requires one of
// the given roles, oldest first so approvers work the backlog in order.
func (r *RequisitionRepository) ListAwaitingRole(ctx context.Context, roles []domain.Role) ([]*domain.Requisition, error) {
	values := make([]string, len(roles))
	for i, role := range roles {
		values[i] = string(role)
	}

	query := `SELECT ` + requisitionColumns + `
		FROM requisitions
		WHERE status IN ('pending', 'in_approval')
		  AND awaiting_role = ANY($1)
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, values)
	if err != nil {
		return nil, fmt.Errorf("list requisitions awaiting roles %v: %w", roles, err)
	}
	defer rows.Close()
	return collectRequisitions(rows)
}

// CommittedTotal returns the live sum of totalAmount over requisitions in
// budget-committing states for a department.
func (r *RequisitionRepository) CommittedTotal(ctx context.Context, departmentID string) (int64, error) {
	query := `
		SELECT COALESCE(SUM(total_amount), 0)
		FROM requisitions
		WHERE department_id = $1
		  AND status IN ('pending', 'in_approval')
	`
	var total int64
	if err := r.db.QueryRow(ctx, query, departmentID).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum committed for department %s: %w", departmentID, err)
	}
	return total, nil
}

// MarkSpentApplied flips the spent guard from false to true and reports
// whether this call performed the flip.
func (r *RequisitionRepository) MarkSpentApplied(ctx context.Context, requisitionID string) (bool, error) {
	query := `
		UPDATE requisitions
		SET spent_applied = TRUE
		WHERE id = $1
		  AND spent_applied = FALSE
	`
	tag, err := r.db.Exec(ctx, query, requisitionID)
	if err != nil {
		return false, fmt.Errorf("mark spent applied on requisition %s: %w", requisitionID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanRequisition(row pgx.Row) (*domain.Requisition, error) {
	var (
		req         domain.Requisition
		priority    string
		status      string
		itemsJSON   []byte
		historyJSON []byte
	)
	err := row.Scan(
		&req.ID,
		&req.Number,
		&req.RequesterID,
		&req.DepartmentID,
		&req.Title,
		&req.Description,
		&req.RequiredDate,
		&priority,
		&status,
		&itemsJSON,
		&req.TotalAmount,
		&historyJSON,
		&req.CurrentLevel,
		&req.RejectionReason,
		&req.SpentApplied,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	req.Priority = domain.Priority(priority)
	req.Status = domain.Status(status)
	if err := json.Unmarshal(itemsJSON, &req.Items); err != nil {
		return nil, fmt.Errorf("unmarshal items for requisition %s: %w", req.ID, err)
	}
	if err := json.Unmarshal(historyJSON, &req.ApprovalHistory); err != nil {
		return nil, fmt.Errorf("unmarshal approval history for requisition %s: %w", req.ID, err)
	}
	return &req, nil
}

func collectRequisitions(rows pgx.Rows) ([]*domain.Requisition, error) {
	var out []*domain.Requisition
	for rows.Next() {
		req, err := scanRequisition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
