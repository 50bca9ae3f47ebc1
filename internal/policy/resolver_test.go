package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
)

type fakeConfigStore struct {
	configs []*domain.ApprovalConfig
	err     error
}

func (f *fakeConfigStore) ListActive(_ context.Context, _ string) ([]*domain.ApprovalConfig, error) {
	return f.configs, f.err
}

func int64p(v int64) *int64 { return &v }

func TestResolvePicksMatchingRange(t *testing.T) {
	store := &fakeConfigStore{configs: []*domain.ApprovalConfig{
		{ID: "small", MinAmount: 0, MaxAmount: int64p(100000), Levels: []domain.ApprovalLevel{
			{Order: 1, Name: "Manager", Role: domain.RoleApprover},
		}},
		{ID: "large", MinAmount: 100000, Levels: []domain.ApprovalLevel{
			{Order: 1, Name: "Manager", Role: domain.RoleApprover},
			{Order: 2, Name: "Finance", Role: domain.RoleFinance},
		}},
	}}
	resolver := NewResolver(store)

	cfg, err := resolver.Resolve(context.Background(), domain.ModuleRequisition, 50000)
	require.NoError(t, err)
	assert.Equal(t, "small", cfg.ID)

	// Boundary: max is exclusive, min inclusive.
	cfg, err = resolver.Resolve(context.Background(), domain.ModuleRequisition, 100000)
	require.NoError(t, err)
	assert.Equal(t, "large", cfg.ID)
	require.Len(t, cfg.Levels, 2)
}

func TestResolvePrefersLargestFloorOnOverlap(t *testing.T) {
	store := &fakeConfigStore{configs: []*domain.ApprovalConfig{
		{ID: "broad", MinAmount: 0},
		{ID: "specific", MinAmount: 200000},
	}}
	resolver := NewResolver(store)

	cfg, err := resolver.Resolve(context.Background(), domain.ModuleRequisition, 300000)
	require.NoError(t, err)
	assert.Equal(t, "specific", cfg.ID)
}

func TestResolveSortsLevels(t *testing.T) {
	store := &fakeConfigStore{configs: []*domain.ApprovalConfig{
		{ID: "cfg", MinAmount: 0, Levels: []domain.ApprovalLevel{
			{Order: 3, Name: "CFO", Role: domain.RoleFinance},
			{Order: 1, Name: "Manager", Role: domain.RoleApprover},
			{Order: 2, Name: "Director", Role: domain.RoleApprover},
		}},
	}}
	resolver := NewResolver(store)

	cfg, err := resolver.Resolve(context.Background(), domain.ModuleRequisition, 1)
	require.NoError(t, err)
	require.Len(t, cfg.Levels, 3)
	assert.Equal(t, "Manager", cfg.Levels[0].Name)
	assert.Equal(t, "Director", cfg.Levels[1].Name)
	assert.Equal(t, "CFO", cfg.Levels[2].Name)

	// Resolution must not reorder the stored config.
	assert.Equal(t, "CFO", store.configs[0].Levels[0].Name)
}

func TestResolveNoMatch(t *testing.T) {
	store := &fakeConfigStore{configs: []*domain.ApprovalConfig{
		{ID: "cfg", MinAmount: 100000},
	}}
	resolver := NewResolver(store)

	_, err := resolver.Resolve(context.Background(), domain.ModuleRequisition, 50000)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConfigurationNotFound))
}
