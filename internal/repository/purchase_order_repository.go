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

// PurchaseOrderRepository persists purchase orders. Lines and source
// requisition IDs are stored as JSONB; purchase orders are read whole.
type PurchaseOrderRepository struct {
	db *pgxpool.Pool
}

// NewPurchaseOrderRepository creates a purchase order repository.
func NewPurchaseOrderRepository(db *pgxpool.Pool) *PurchaseOrderRepository {
	return &PurchaseOrderRepository{db: db}
}

const purchaseOrderColumns = `
	id, number, department_id, supplier, status, total_amount,
	lines, requisition_ids, created_by, created_at`

// CreateWithRequisitions inserts a purchase order and applies the ordering
// state to its source requisitions in one transaction. Each requisition write
// is conditional on the row still being orderable; any conflict rolls the
// whole transaction back and reports false.
func (r *PurchaseOrderRepository) CreateWithRequisitions(ctx context.Context, po *domain.PurchaseOrder, reqs []*domain.Requisition) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin ordering transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	linesJSON, err := json.Marshal(po.Lines)
	if err != nil {
		return false, fmt.Errorf("marshal lines for purchase order %s: %w", po.Number, err)
	}
	reqIDsJSON, err := json.Marshal(po.RequisitionIDs)
	if err != nil {
		return false, fmt.Errorf("marshal requisition ids for purchase order %s: %w", po.Number, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO purchase_orders
		    (id, number, department_id, supplier, status, total_amount,
		     lines, requisition_ids, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		po.ID,
		po.Number,
		po.DepartmentID,
		po.Supplier,
		string(po.Status),
		po.TotalAmount,
		linesJSON,
		reqIDsJSON,
		po.CreatedBy,
		po.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert purchase order %s: %w", po.Number, err)
	}

	for _, req := range reqs {
		itemsJSON, err := json.Marshal(req.Items)
		if err != nil {
			return false, fmt.Errorf("marshal items for requisition %s: %w", req.Number, err)
		}
		tag, err := tx.Exec(ctx, `
			UPDATE requisitions
			SET status = $1, items = $2, updated_at = $3
			WHERE id = $4
			  AND status IN ('approved', 'partially_ordered')`,
			string(req.Status),
			itemsJSON,
			req.UpdatedAt,
			req.ID,
		)
		if err != nil {
			return false, fmt.Errorf("apply ordering on requisition %s: %w", req.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return false, nil
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit ordering transaction: %w", err)
	}
	return true, nil
}

// Get retrieves a purchase order by ID.
func (r *PurchaseOrderRepository) Get(ctx context.Context, id string) (*domain.PurchaseOrder, error) {
	query := `SELECT ` + purchaseOrderColumns + ` FROM purchase_orders WHERE id = $1`

	po, err := scanPurchaseOrder(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound(apperrors.CodePurchaseOrderNotFound, "purchase order not found").
			WithParams(map[string]interface{}{"purchase_order_id": id})
	}
	if err != nil {
		return nil, fmt.Errorf("get purchase order %s: %w", id, err)
	}
	return po, nil
}

// ListByDepartment returns a department's purchase orders, newest first.
func (r *PurchaseOrderRepository) ListByDepartment(ctx context.Context, departmentID string) ([]*domain.PurchaseOrder, error) {
	query := `SELECT ` + purchaseOrderColumns + `
		FROM purchase_orders
		WHERE department_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, departmentID)
	if err != nil {
		return nil, fmt.Errorf("list purchase orders for department %s: %w", departmentID, err)
	}
	defer rows.Close()

	var out []*domain.PurchaseOrder
	for rows.Next() {
		po, err := scanPurchaseOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, po)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SetStatus moves an issued purchase order to a terminal status. Reports
// false without error when the order is missing or no longer issued.
func (r *PurchaseOrderRepository) SetStatus(ctx context.Context, id string, status domain.POStatus) (bool, error) {
	query := `
		UPDATE purchase_orders
		SET status = $1
		WHERE id = $2
		  AND status = 'issued'
	`
	tag, err := r.db.Exec(ctx, query, string(status), id)
	if err != nil {
		return false, fmt.Errorf("set status on purchase order %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanPurchaseOrder(row pgx.Row) (*domain.PurchaseOrder, error) {
	var (
		po         domain.PurchaseOrder
		status     string
		linesJSON  []byte
		reqIDsJSON []byte
	)
	err := row.Scan(
		&po.ID,
		&po.Number,
		&po.DepartmentID,
		&po.Supplier,
		&status,
		&po.TotalAmount,
		&linesJSON,
		&reqIDsJSON,
		&po.CreatedBy,
		&po.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	po.Status = domain.POStatus(status)
	if err := json.Unmarshal(linesJSON, &po.Lines); err != nil {
		return nil, fmt.Errorf("unmarshal lines for purchase order %s: %w", po.ID, err)
	}
	if err := json.Unmarshal(reqIDsJSON, &po.RequisitionIDs); err != nil {
		return nil, fmt.Errorf("unmarshal requisition ids for purchase order %s: %w", po.ID, err)
	}
	return &po, nil
}
