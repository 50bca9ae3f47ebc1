package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reqflow.io/reqflow/internal/domain"
	"reqflow.io/reqflow/internal/engine"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
)

// CreateRequisition handles POST /requisitions.
func (s *Server) CreateRequisition(c *gin.Context) {
	var in engine.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": apperrors.CodeValidationFailed, "message": "invalid request body"})
		return
	}

	req, err := s.engine.Create(c.Request.Context(), actorFromCtx(c), in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

// GetRequisition handles GET /requisitions/:id.
func (s *Server) GetRequisition(c *gin.Context) {
	req, err := s.engine.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// ListRequisitions handles GET /requisitions?department_id=&status=.
func (s *Server) ListRequisitions(c *gin.Context) {
	departmentID := c.Query("department_id")
	if departmentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": apperrors.CodeValidationFailed, "message": "department_id is required"})
		return
	}

	var statuses []domain.Status
	for _, raw := range c.QueryArray("status") {
		statuses = append(statuses, domain.Status(raw))
	}

	reqs, err := s.engine.ListByDepartment(c.Request.Context(), departmentID, statuses)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": reqs, "count": len(reqs)})
}

// ListPendingApprovals handles GET /requisitions/pending — the approver inbox.
func (s *Server) ListPendingApprovals(c *gin.Context) {
	reqs, err := s.engine.ListPendingForActor(c.Request.Context(), actorFromCtx(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": reqs, "count": len(reqs)})
}

type decisionRequest struct {
	Comments string `json:"comments"`
	Reason   string `json:"reason"`
}

// ApproveRequisition handles POST /requisitions/:id/approve.
func (s *Server) ApproveRequisition(c *gin.Context) {
	var body decisionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": apperrors.CodeValidationFailed, "message": "invalid request body"})
			return
		}
	}

	req, err := s.engine.Approve(c.Request.Context(), c.Param("id"), actorFromCtx(c), body.Comments)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// RejectRequisition handles POST /requisitions/:id/reject.
func (s *Server) RejectRequisition(c *gin.Context) {
	var body decisionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": apperrors.CodeValidationFailed, "message": "invalid request body"})
		return
	}

	req, err := s.engine.Reject(c.Request.Context(), c.Param("id"), actorFromCtx(c), body.Reason)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// CancelRequisition handles POST /requisitions/:id/cancel.
func (s *Server) CancelRequisition(c *gin.Context) {
	req, err := s.engine.Cancel(c.Request.Context(), c.Param("id"), actorFromCtx(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, req)
}
