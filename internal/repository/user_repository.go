package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
)

// UserRepository resolves actors and notification recipients.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a user repository.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Resolve returns an active user by ID.
func (r *UserRepository) Resolve(ctx context.Context, actorID string) (*domain.User, error) {
	query := `
		SELECT id, name, email, role, department_id
		FROM users
		WHERE id = $1 AND active = TRUE
	`
	var (
		u    domain.User
		role string
	)
	err := r.db.QueryRow(ctx, query, actorID).Scan(&u.ID, &u.Name, &u.Email, &role, &u.DepartmentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound(apperrors.CodeUserNotFound, "user not found").
			WithParams(map[string]interface{}{"user_id": actorID})
	}
	if err != nil {
		return nil, fmt.Errorf("resolve user %s: %w", actorID, err)
	}
	u.Role = domain.Role(role)
	return &u, nil
}

// UsersWithCapability returns IDs of active users whose role covers the
// required chain role. The capability table is small and closed, so the role
// set is computed in Go and pushed into the query.
func (r *UserRepository) UsersWithCapability(ctx context.Context, required domain.Role) ([]string, error) {
	var roles []string
	for _, role := range []domain.Role{domain.RoleEmployee, domain.RoleApprover, domain.RoleFinance, domain.RoleAdmin} {
		if role.CanActAs(required) {
			roles = append(roles, string(role))
		}
	}
	if len(roles) == 0 {
		return nil, nil
	}

	query := `SELECT id FROM users WHERE active = TRUE AND role = ANY($1) ORDER BY id`
	rows, err := r.db.Query(ctx, query, roles)
	if err != nil {
		return nil, fmt.Errorf("list users with capability %s: %w", required, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
