package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
	"reqflow.io/reqflow/internal/purchaseorder"
)

// CreatePurchaseOrder handles POST /purchase-orders.
func (s *Server) CreatePurchaseOrder(c *gin.Context) {
	var in purchaseorder.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": apperrors.CodeValidationFailed, "message": "invalid request body"})
		return
	}

	po, err := s.purchaseOrders.Create(c.Request.Context(), actorFromCtx(c), in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, po)
}

// GetPurchaseOrder handles GET /purchase-orders/:id.
func (s *Server) GetPurchaseOrder(c *gin.Context) {
	po, err := s.purchaseOrders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, po)
}

// UpdatePurchaseOrderStatus handles PATCH /purchase-orders/:id/status.
func (s *Server) UpdatePurchaseOrderStatus(c *gin.Context) {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": apperrors.CodeValidationFailed, "message": "invalid request body"})
		return
	}

	po, err := s.purchaseOrders.UpdateStatus(c.Request.Context(), actorFromCtx(c), c.Param("id"), domain.POStatus(body.Status))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, po)
}

// ListPurchaseOrders handles GET /purchase-orders?department_id=.
func (s *Server) ListPurchaseOrders(c *gin.Context) {
	departmentID := c.Query("department_id")
	if departmentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": apperrors.CodeValidationFailed, "message": "department_id is required"})
		return
	}

	pos, err := s.purchaseOrders.ListByDepartment(c.Request.Context(), departmentID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": pos, "count": len(pos)})
}
