package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBudgetFiscalYear(t *testing.T) {
	r := NewBudgetRepository(nil, 0)
	r.now = func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) }
	assert.Equal(t, 2026, r.fiscalYear())

	// A configured fiscal year pins every read and write to that year.
	pinned := NewBudgetRepository(nil, 2025)
	pinned.now = func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) }
	assert.Equal(t, 2025, pinned.fiscalYear())
}
