// Package policy resolves the approval chain applicable to a monetary amount.
package policy

import (
	"context"
	"sort"

	apperrors "reqflow.io/reqflow/internal/pkg/errors"
	"reqflow.io/reqflow/internal/domain"
)

// Store lists active approval configurations for a module.
type Store interface {
	ListActive(ctx context.Context, module string) ([]*domain.ApprovalConfig, error)
}

// Resolver selects the single active configuration whose [min, max) range
// contains an amount.
type Resolver struct {
	store Store
}

// NewResolver creates a chain resolver backed by a configuration store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the matching configuration for (module, amount). When
// several ranges overlap, the one with the largest MinAmount wins (the most
// specific floor). The returned configuration's levels are sorted ascending
// by order so index i corresponds to approval-history level i.
//
// A requisition must never be created without a resolvable chain, so the
// absence of a match is an error, not a silent fallback.
func (r *Resolver) Resolve(ctx context.Context, module string, amount int64) (*domain.ApprovalConfig, error) {
	configs, err := r.store.ListActive(ctx, module)
	if err != nil {
		return nil, err
	}

	var best *domain.ApprovalConfig
	for _, cfg := range configs {
		if !cfg.Matches(amount) {
			continue
		}
		if best == nil || cfg.MinAmount > best.MinAmount {
			best = cfg
		}
	}
	if best == nil {
		return nil, apperrors.ErrConfigurationNotFoundf(module, amount)
	}

	resolved := *best
	resolved.Levels = make([]domain.ApprovalLevel, len(best.Levels))
	copy(resolved.Levels, best.Levels)
	sort.SliceStable(resolved.Levels, func(i, j int) bool {
		return resolved.Levels[i].Order < resolved.Levels[j].Order
	})
	return &resolved, nil
}
