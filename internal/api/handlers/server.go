// Package handlers implements the HTTP handlers for the procurement API.
// Route registration lives in internal/app; handlers push domain errors into
// the gin error chain and let the ErrorHandler middleware shape responses.
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"reqflow.io/reqflow/internal/api/middleware"
	"reqflow.io/reqflow/internal/engine"
	"reqflow.io/reqflow/internal/notification"
	"reqflow.io/reqflow/internal/pkg/worker"
	"reqflow.io/reqflow/internal/purchaseorder"
	"reqflow.io/reqflow/internal/repository"
)

// Server holds all API handler dependencies. Manual DI, no framework.
type Server struct {
	engine         *engine.Engine
	purchaseOrders *purchaseorder.Service
	budgets        *repository.BudgetRepository
	configs        *repository.ApprovalConfigRepository
	notifications  notification.Store
	pool           *pgxpool.Pool
	pools          *worker.Pools
	jwtCfg         middleware.JWTConfig
}

// ServerDeps holds all dependencies for creating a Server.
type ServerDeps struct {
	Engine         *engine.Engine
	PurchaseOrders *purchaseorder.Service
	Budgets        *repository.BudgetRepository
	Configs        *repository.ApprovalConfigRepository
	Notifications  notification.Store
	Pool           *pgxpool.Pool
	Pools          *worker.Pools
	JWTCfg         middleware.JWTConfig
}

// NewServer creates a new Server with all dependencies.
func NewServer(deps ServerDeps) *Server {
	return &Server{
		engine:         deps.Engine,
		purchaseOrders: deps.PurchaseOrders,
		budgets:        deps.Budgets,
		configs:        deps.Configs,
		notifications:  deps.Notifications,
		pool:           deps.Pool,
		pools:          deps.Pools,
		jwtCfg:         deps.JWTCfg,
	}
}

// actorFromCtx extracts the authenticated user ID from the request context.
func actorFromCtx(c *gin.Context) string {
	return c.GetString("user_id")
}
