package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
)

// GetDepartmentBudget handles GET /departments/:id/budget.
func (s *Server) GetDepartmentBudget(c *gin.Context) {
	b, err := s.budgets.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, b)
}

type budgetUpsertRequest struct {
	FiscalYear int   `json:"fiscal_year"`
	Annual     int64 `json:"annual"`
	Alerts     []int `json:"alert_percentages"`
}

// UpsertDepartmentBudget handles PUT /departments/:id/budget (finance role).
// Spent and committed are never set directly: committed is recomputed from
// live requisitions and spent accrues from approvals.
func (s *Server) UpsertDepartmentBudget(c *gin.Context) {
	var body budgetUpsertRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": apperrors.CodeValidationFailed, "message": "invalid request body"})
		return
	}
	if body.Annual < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": apperrors.CodeValidationFailed, "message": "annual budget must not be negative"})
		return
	}

	fiscalYear := body.FiscalYear
	if fiscalYear == 0 {
		fiscalYear = time.Now().UTC().Year()
	}

	alerts := make([]domain.BudgetAlert, len(body.Alerts))
	for i, pct := range body.Alerts {
		if pct <= 0 || pct > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"code": apperrors.CodeValidationFailed, "message": "alert percentages must be in (0, 100]"})
			return
		}
		alerts[i] = domain.BudgetAlert{Percentage: pct}
	}

	b := &domain.DepartmentBudget{
		DepartmentID: c.Param("id"),
		FiscalYear:   fiscalYear,
		Annual:       body.Annual,
		Alerts:       alerts,
	}
	if err := s.budgets.Upsert(c.Request.Context(), b); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, b)
}
