package domain

import "time"

// BudgetAlert is a threshold on budget consumption. Once triggered it stays
// triggered for the fiscal year.
type BudgetAlert struct {
	Percentage    int        `json:"percentage"`
	Triggered     bool       `json:"triggered"`
	TriggeredDate *time.Time `json:"triggered_date,omitempty"`
}

// DepartmentBudget tracks a department's annual budget. Committed is a
// derived value recomputed from live requisition state; Spent is applied
// exactly once per approved requisition.
type DepartmentBudget struct {
	DepartmentID string        `json:"department_id"`
	FiscalYear   int           `json:"fiscal_year"`
	Annual       int64         `json:"annual"`
	Spent        int64         `json:"spent"`
	Committed    int64         `json:"committed"`
	Alerts       []BudgetAlert `json:"alerts,omitempty"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Available returns annual - spent - committed.
func (b *DepartmentBudget) Available() int64 {
	return b.Annual - b.Spent - b.Committed
}

// ConsumedPercent returns consumption of the annual budget in whole percent.
// A zero annual budget reports 0 to avoid division noise on unseeded rows.
func (b *DepartmentBudget) ConsumedPercent() int {
	if b.Annual <= 0 {
		return 0
	}
	return int((b.Spent + b.Committed) * 100 / b.Annual)
}

// EvaluateAlerts flips untriggered alerts whose threshold has been crossed
// and returns the newly triggered ones.
func (b *DepartmentBudget) EvaluateAlerts(now time.Time) []BudgetAlert {
	consumed := b.ConsumedPercent()
	var fired []BudgetAlert
	for i := range b.Alerts {
		alert := &b.Alerts[i]
		if alert.Triggered || consumed < alert.Percentage {
			continue
		}
		alert.Triggered = true
		t := now
		alert.TriggeredDate = &t
		fired = append(fired, *alert)
	}
	return fired
}
