package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
)

// CreateApprovalConfig handles POST /admin/approval-configs (admin only).
func (s *Server) CreateApprovalConfig(c *gin.Context) {
	var cfg domain.ApprovalConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": apperrors.CodeValidationFailed, "message": "invalid request body"})
		return
	}
	if cfg.Module != domain.ModuleRequisition && cfg.Module != domain.ModulePurchaseOrder {
		c.JSON(http.StatusBadRequest, gin.H{"code": apperrors.CodeValidationFailed, "message": "unknown module"})
		return
	}
	if len(cfg.Levels) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": apperrors.CodeValidationFailed, "message": "at least one approval level is required"})
		return
	}
	for _, level := range cfg.Levels {
		if !domain.ValidRole(level.Role) {
			c.JSON(http.StatusBadRequest, gin.H{"code": apperrors.CodeValidationFailed, "message": "unknown role in approval level"})
			return
		}
	}

	if err := s.configs.Create(c.Request.Context(), &cfg); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, cfg)
}

// ListApprovalConfigs handles GET /admin/approval-configs?module=.
func (s *Server) ListApprovalConfigs(c *gin.Context) {
	module := c.DefaultQuery("module", domain.ModuleRequisition)

	configs, err := s.configs.ListActive(c.Request.Context(), module)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": configs, "count": len(configs)})
}

type configActiveRequest struct {
	Active bool `json:"active"`
}

// SetApprovalConfigActive handles PATCH /admin/approval-configs/:id/active.
// In-flight requisitions keep their snapshotted chains.
func (s *Server) SetApprovalConfigActive(c *gin.Context) {
	var body configActiveRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": apperrors.CodeValidationFailed, "message": "invalid request body"})
		return
	}

	if err := s.configs.SetActive(c.Request.Context(), c.Param("id"), body.Active); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
