package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SequenceRepository implements year-scoped atomic counters. The single
// upsert statement makes concurrent increments serialize on the row lock, so
// two callers can never observe the same value.
type SequenceRepository struct {
	db *pgxpool.Pool
}

// NewSequenceRepository creates a sequence repository.
func NewSequenceRepository(db *pgxpool.Pool) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// Increment bumps the (name, year) counter and returns the new value. The
// first call of a year creates the row at 1.
func (r *SequenceRepository) Increment(ctx context.Context, name string, year int) (int64, error) {
	query := `
		INSERT INTO sequence_counters (name, year, value)
		VALUES ($1, $2, 1)
		ON CONFLICT (name, year)
		DO UPDATE SET value = sequence_counters.value + 1
		RETURNING value
	`
	var value int64
	if err := r.db.QueryRow(ctx, query, name, year).Scan(&value); err != nil {
		return 0, fmt.Errorf("increment sequence %s/%d: %w", name, year, err)
	}
	return value, nil
}
