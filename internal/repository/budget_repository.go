package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
)

// BudgetRepository persists department budget rows, keyed by department and
// fiscal year. Write paths upsert so an unseeded department still tracks its
// committed and spent figures with a zero annual budget.
type BudgetRepository struct {
	db           *pgxpool.Pool
	yearOverride int
	now          func() time.Time
}

// NewBudgetRepository creates a budget repository. A non-zero fiscalYear pins
// every read and write to that year; zero follows the calendar year.
func NewBudgetRepository(db *pgxpool.Pool, fiscalYear int) *BudgetRepository {
	return &BudgetRepository{db: db, yearOverride: fiscalYear, now: time.Now}
}

func (r *BudgetRepository) fiscalYear() int {
	if r.yearOverride != 0 {
		return r.yearOverride
	}
	return r.now().UTC().Year()
}

// Get retrieves the department's budget for the current fiscal year.
func (r *BudgetRepository) Get(ctx context.Context, departmentID string) (*domain.DepartmentBudget, error) {
	query := `
		SELECT department_id, fiscal_year, annual, spent, committed, alerts, updated_at
		FROM department_budgets
		WHERE department_id = $1 AND fiscal_year = $2
	`
	var (
		b          domain.DepartmentBudget
		alertsJSON []byte
	)
	err := r.db.QueryRow(ctx, query, departmentID, r.fiscalYear()).Scan(
		&b.DepartmentID,
		&b.FiscalYear,
		&b.Annual,
		&b.Spent,
		&b.Committed,
		&alertsJSON,
		&b.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound(apperrors.CodeBudgetNotFound, "department budget not found").
			WithParams(map[string]interface{}{"department_id": departmentID, "fiscal_year": r.fiscalYear()})
	}
	if err != nil {
		return nil, fmt.Errorf("get budget for department %s: %w", departmentID, err)
	}
	if len(alertsJSON) > 0 {
		if err := json.Unmarshal(alertsJSON, &b.Alerts); err != nil {
			return nil, fmt.Errorf("unmarshal alerts for department %s: %w", departmentID, err)
		}
	}
	return &b, nil
}

// Upsert creates or replaces a department's annual budget and alert
// thresholds for a fiscal year. Spent and committed are preserved on update.
func (r *BudgetRepository) Upsert(ctx context.Context, b *domain.DepartmentBudget) error {
	alertsJSON, err := json.Marshal(b.Alerts)
	if err != nil {
		return fmt.Errorf("marshal alerts for department %s: %w", b.DepartmentID, err)
	}

	query := `
		INSERT INTO department_budgets
		    (department_id, fiscal_year, annual, spent, committed, alerts, updated_at)
		VALUES ($1, $2, $3, 0, 0, $4, $5)
		ON CONFLICT (department_id, fiscal_year)
		DO UPDATE SET annual = EXCLUDED.annual,
		              alerts = EXCLUDED.alerts,
		              updated_at = EXCLUDED.updated_at
	`
	_, err = r.db.Exec(ctx, query,
		b.DepartmentID,
		b.FiscalYear,
		b.Annual,
		alertsJSON,
		r.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert budget for department %s: %w", b.DepartmentID, err)
	}
	return nil
}

// SetCommitted replaces the committed figure for the current fiscal year.
func (r *BudgetRepository) SetCommitted(ctx context.Context, departmentID string, committed int64) error {
	query := `
		INSERT INTO department_budgets
		    (department_id, fiscal_year, annual, spent, committed, alerts, updated_at)
		VALUES ($1, $2, 0, 0, $3, '[]', $4)
		ON CONFLICT (department_id, fiscal_year)
		DO UPDATE SET committed = EXCLUDED.committed,
		              updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.Exec(ctx, query, departmentID, r.fiscalYear(), committed, r.now().UTC())
	if err != nil {
		return fmt.Errorf("set committed for department %s: %w", departmentID, err)
	}
	return nil
}

// AddSpent increments the spent figure for the current fiscal year.
func (r *BudgetRepository) AddSpent(ctx context.Context, departmentID string, amount int64) error {
	query := `
		INSERT INTO department_budgets
		    (department_id, fiscal_year, annual, spent, committed, alerts, updated_at)
		VALUES ($1, $2, 0, $3, 0, '[]', $4)
		ON CONFLICT (department_id, fiscal_year)
		DO UPDATE SET spent = department_budgets.spent + EXCLUDED.spent,
		              updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.Exec(ctx, query, departmentID, r.fiscalYear(), amount, r.now().UTC())
	if err != nil {
		return fmt.Errorf("add spent for department %s: %w", departmentID, err)
	}
	return nil
}

// SaveAlerts replaces the alert thresholds (including triggered flags).
func (r *BudgetRepository) SaveAlerts(ctx context.Context, departmentID string, alerts []domain.BudgetAlert) error {
	alertsJSON, err := json.Marshal(alerts)
	if err != nil {
		return fmt.Errorf("marshal alerts for department %s: %w", departmentID, err)
	}

	query := `
		UPDATE department_budgets
		SET alerts = $1, updated_at = $2
		WHERE department_id = $3 AND fiscal_year = $4
	`
	_, err = r.db.Exec(ctx, query, alertsJSON, r.now().UTC(), departmentID, r.fiscalYear())
	if err != nil {
		return fmt.Errorf("save alerts for department %s: %w", departmentID, err)
	}
	return nil
}
