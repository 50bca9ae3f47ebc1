package domain

// Approval policy modules.
const (
	ModuleRequisition   = "requisition"
	ModulePurchaseOrder = "purchase_order"
)

// ApprovalLevel is one step of an approval configuration.
type ApprovalLevel struct {
	Order int    `json:"order"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	// ApprovalLimit is an optional per-level monetary cap; nil means no cap.
	ApprovalLimit *int64 `json:"approval_limit,omitempty"`
}

// ApprovalConfig is an ordered list of approval levels selected by amount
// range. A nil MaxAmount means the range is unbounded above.
type ApprovalConfig struct {
	ID        string          `json:"id"`
	Module    string          `json:"module"`
	Name      string          `json:"name"`
	MinAmount int64           `json:"min_amount"`
	MaxAmount *int64          `json:"max_amount,omitempty"`
	Active    bool            `json:"active"`
	Levels    []ApprovalLevel `json:"levels"`
}

// Matches reports whether amount falls within [MinAmount, MaxAmount).
func (c *ApprovalConfig) Matches(amount int64) bool {
	if amount < c.MinAmount {
		return false
	}
	if c.MaxAmount != nil && amount >= *c.MaxAmount {
		return false
	}
	return true
}
