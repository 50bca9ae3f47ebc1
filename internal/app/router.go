package app

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"reqflow.io/reqflow/internal/api/handlers"
	"reqflow.io/reqflow/internal/api/middleware"
	"reqflow.io/reqflow/internal/domain"
)

func newRouter(server *handlers.Server, signingKey []byte) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.ErrorHandler())
	router.Use(cors.Default())

	api := router.Group("/api/v1")

	// Public routes.
	api.GET("/health/live", server.HealthLive)
	api.GET("/health/ready", server.HealthReady)

	// Authenticated routes.
	auth := api.Group("", middleware.JWTAuth(signingKey))

	auth.POST("/requisitions", server.CreateRequisition)
	auth.GET("/requisitions", server.ListRequisitions)
	auth.GET("/requisitions/pending", server.ListPendingApprovals)
	auth.GET("/requisitions/:id", server.GetRequisition)
	auth.POST("/requisitions/:id/approve", server.ApproveRequisition)
	auth.POST("/requisitions/:id/reject", server.RejectRequisition)
	auth.POST("/requisitions/:id/cancel", server.CancelRequisition)

	auth.POST("/purchase-orders", server.CreatePurchaseOrder)
	auth.GET("/purchase-orders", server.ListPurchaseOrders)
	auth.GET("/purchase-orders/:id", server.GetPurchaseOrder)
	auth.PATCH("/purchase-orders/:id/status", server.UpdatePurchaseOrderStatus)

	auth.GET("/departments/:id/budget", server.GetDepartmentBudget)
	auth.PUT("/departments/:id/budget",
		middleware.RequireRole(string(domain.RoleFinance)), server.UpsertDepartmentBudget)

	auth.GET("/notifications", server.ListNotifications)
	auth.POST("/notifications/:id/read", server.MarkNotificationRead)
	auth.POST("/notifications/read-all", server.MarkAllNotificationsRead)

	// Admin-only policy management.
	admin := auth.Group("/admin", middleware.RequireRole())
	admin.POST("/approval-configs", server.CreateApprovalConfig)
	admin.GET("/approval-configs", server.ListApprovalConfigs)
	admin.PATCH("/approval-configs/:id/active", server.SetApprovalConfigActive)

	return router
}
