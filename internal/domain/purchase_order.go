package domain

import "time"

// POStatus enumerates purchase order states.
type POStatus string

const (
	POStatusDraft     POStatus = "draft"
	POStatusIssued    POStatus = "issued"
	POStatusDelivered POStatus = "delivered"
	POStatusCancelled POStatus = "cancelled"
)

// CanBecome reports whether a purchase order may move from s to next. Only
// issued orders move; delivered and cancelled are terminal.
func (s POStatus) CanBecome(next POStatus) bool {
	if s != POStatusIssued {
		return false
	}
	return next == POStatusDelivered || next == POStatusCancelled
}

// PurchaseOrderLine references a specific requisition line item.
type PurchaseOrderLine struct {
	RequisitionID string `json:"requisition_id"`
	ItemNumber    int    `json:"item_number"`
	Description   string `json:"description"`
	Quantity      int64  `json:"quantity"`
	UnitPrice     int64  `json:"unit_price"`
	TotalPrice    int64  `json:"total_price"`
}

// PurchaseOrder is derived from one or more approved requisitions of the
// same department.
type PurchaseOrder struct {
	ID             string              `json:"id"`
	Number         string              `json:"number"`
	DepartmentID   string              `json:"department_id"`
	Supplier       string              `json:"supplier"`
	Status         POStatus            `json:"status"`
	TotalAmount    int64               `json:"total_amount"`
	Lines          []PurchaseOrderLine `json:"lines"`
	RequisitionIDs []string            `json:"requisition_ids"`
	CreatedBy      string              `json:"created_by"`
	CreatedAt      time.Time           `json:"created_at"`
}
