// Package sequence issues unique, human-readable, year-scoped identifiers
// such as REQ-2025-00007.
package sequence

import (
	"context"
	"fmt"
	"time"

	"reqflow.io/reqflow/internal/domain"
)

// CounterStore atomically increments and returns a per-(name, year) counter.
// The read-modify-write must be indivisible in the underlying store.
type CounterStore interface {
	Increment(ctx context.Context, name string, year int) (int64, error)
}

// prefixes maps sequence names to their number prefix.
var prefixes = map[string]string{
	domain.ModuleRequisition:   "REQ",
	domain.ModulePurchaseOrder: "PO",
}

// Generator formats sequence numbers from an atomic counter store.
type Generator struct {
	counters CounterStore
	now      func() time.Time
}

// NewGenerator creates a sequence generator.
func NewGenerator(counters CounterStore) *Generator {
	return &Generator{counters: counters, now: time.Now}
}

// Next returns the next number for the named sequence in the current year.
// Two concurrent calls never receive the same number; uniqueness rides on the
// store's atomic increment-and-fetch.
func (g *Generator) Next(ctx context.Context, name string) (string, error) {
	prefix, ok := prefixes[name]
	if !ok {
		return "", fmt.Errorf("unknown sequence name %q", name)
	}

	year := g.now().UTC().Year()
	n, err := g.counters.Increment(ctx, name, year)
	if err != nil {
		return "", fmt.Errorf("increment sequence %s/%d: %w", name, year, err)
	}
	return fmt.Sprintf("%s-%d-%05d", prefix, year, n), nil
}
