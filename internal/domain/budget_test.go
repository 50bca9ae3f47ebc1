package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgetAvailable(t *testing.T) {
	b := &DepartmentBudget{Annual: 1000000, Spent: 300000, Committed: 200000}
	assert.Equal(t, int64(500000), b.Available())
}

func TestConsumedPercent(t *testing.T) {
	b := &DepartmentBudget{Annual: 1000000, Spent: 500000, Committed: 250000}
	assert.Equal(t, 75, b.ConsumedPercent())

	unseeded := &DepartmentBudget{Committed: 100000}
	assert.Equal(t, 0, unseeded.ConsumedPercent())
}

func TestEvaluateAlertsFireOnce(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	b := &DepartmentBudget{
		Annual:    1000000,
		Spent:     0,
		Committed: 820000,
		Alerts: []BudgetAlert{
			{Percentage: 50},
			{Percentage: 80},
			{Percentage: 95},
		},
	}

	fired := b.EvaluateAlerts(now)
	require.Len(t, fired, 2)
	assert.Equal(t, 50, fired[0].Percentage)
	assert.Equal(t, 80, fired[1].Percentage)
	require.NotNil(t, fired[0].TriggeredDate)
	assert.Equal(t, now, *fired[0].TriggeredDate)

	// Same consumption again: nothing new fires.
	assert.Empty(t, b.EvaluateAlerts(now.Add(time.Hour)))

	// Crossing the last threshold fires it exactly once.
	b.Committed = 960000
	fired = b.EvaluateAlerts(now.Add(2 * time.Hour))
	require.Len(t, fired, 1)
	assert.Equal(t, 95, fired[0].Percentage)
	assert.Empty(t, b.EvaluateAlerts(now.Add(3*time.Hour)))
}
