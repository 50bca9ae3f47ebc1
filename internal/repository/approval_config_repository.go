package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
)

// ApprovalConfigRepository handles CRUD for approval configurations. Levels
// are stored as a JSONB array on the config row; chains are small and always
// read whole.
type ApprovalConfigRepository struct {
	db *pgxpool.Pool
}

// NewApprovalConfigRepository creates an approval config repository.
func NewApprovalConfigRepository(db *pgxpool.Pool) *ApprovalConfigRepository {
	return &ApprovalConfigRepository{db: db}
}

// Create inserts a new approval configuration.
func (r *ApprovalConfigRepository) Create(ctx context.Context, cfg *domain.ApprovalConfig) error {
	levelsJSON, err := json.Marshal(cfg.Levels)
	if err != nil {
		return fmt.Errorf("marshal levels for approval config %s: %w", cfg.Name, err)
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}

	query := `
		INSERT INTO approval_configs
		    (id, module, name, min_amount, max_amount, active, levels)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.Exec(ctx, query,
		cfg.ID,
		cfg.Module,
		cfg.Name,
		cfg.MinAmount,
		cfg.MaxAmount,
		cfg.Active,
		levelsJSON,
	)
	if err != nil {
		return fmt.Errorf("insert approval config %s: %w", cfg.Name, err)
	}
	return nil
}

// Get retrieves a configuration by ID.
func (r *ApprovalConfigRepository) Get(ctx context.Context, id string) (*domain.ApprovalConfig, error) {
	query := `
		SELECT id, module, name, min_amount, max_amount, active, levels
		FROM approval_configs
		WHERE id = $1
	`
	cfg, err := scanApprovalConfig(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound(apperrors.CodeConfigurationNotFound, "approval configuration not found").
			WithParams(map[string]interface{}{"config_id": id})
	}
	if err != nil {
		return nil, fmt.Errorf("get approval config %s: %w", id, err)
	}
	return cfg, nil
}

// ListActive returns active configurations for a module.
func (r *ApprovalConfigRepository) ListActive(ctx context.Context, module string) ([]*domain.ApprovalConfig, error) {
	query := `
		SELECT id, module, name, min_amount, max_amount, active, levels
		FROM approval_configs
		WHERE module = $1 AND active = TRUE
		ORDER BY min_amount ASC
	`
	rows, err := r.db.Query(ctx, query, module)
	if err != nil {
		return nil, fmt.Errorf("list active approval configs for module %s: %w", module, err)
	}
	defer rows.Close()

	var configs []*domain.ApprovalConfig
	for rows.Next() {
		cfg, err := scanApprovalConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return configs, nil
}

// SetActive toggles a configuration. Deactivating never touches in-flight
// requisitions: their chains were snapshotted at creation.
func (r *ApprovalConfigRepository) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE approval_configs SET active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("set active on approval config %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(apperrors.CodeConfigurationNotFound, "approval configuration not found").
			WithParams(map[string]interface{}{"config_id": id})
	}
	return nil
}

func scanApprovalConfig(row pgx.Row) (*domain.ApprovalConfig, error) {
	var (
		cfg        domain.ApprovalConfig
		levelsJSON []byte
	)
	err := row.Scan(
		&cfg.ID,
		&cfg.Module,
		&cfg.Name,
		&cfg.MinAmount,
		&cfg.MaxAmount,
		&cfg.Active,
		&levelsJSON,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(levelsJSON, &cfg.Levels); err != nil {
		return nil, fmt.Errorf("unmarshal levels for approval config %s: %w", cfg.ID, err)
	}
	return &cfg, nil
}
