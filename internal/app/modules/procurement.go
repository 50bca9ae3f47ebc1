package modules

import (
	"context"

	"github.com/riverqueue/river"

	"reqflow.io/reqflow/internal/api/handlers"
	"reqflow.io/reqflow/internal/budget"
	"reqflow.io/reqflow/internal/engine"
	"reqflow.io/reqflow/internal/policy"
	"reqflow.io/reqflow/internal/purchaseorder"
	"reqflow.io/reqflow/internal/repository"
	"reqflow.io/reqflow/internal/sequence"
)

// ProcurementModule wires the requisition lifecycle: repositories, chain
// resolver, sequence generator, budget ledger, engine, and purchase order
// derivation.
type ProcurementModule struct {
	Requisitions   *repository.RequisitionRepository
	Configs        *repository.ApprovalConfigRepository
	Budgets        *repository.BudgetRepository
	Users          *repository.UserRepository
	PurchaseOrders *repository.PurchaseOrderRepository

	Ledger  *budget.Ledger
	Engine  *engine.Engine
	POs     *purchaseorder.Service
	Numbers *sequence.Generator
}

// NewProcurementModule builds the procurement dependency graph.
func NewProcurementModule(infra *Infrastructure) *ProcurementModule {
	requisitions := repository.NewRequisitionRepository(infra.Pool)
	configs := repository.NewApprovalConfigRepository(infra.Pool)
	budgets := repository.NewBudgetRepository(infra.Pool, infra.Config.Budget.FiscalYear)
	users := repository.NewUserRepository(infra.Pool)
	purchaseOrders := repository.NewPurchaseOrderRepository(infra.Pool)

	numbers := sequence.NewGenerator(repository.NewSequenceRepository(infra.Pool))
	resolver := policy.NewResolver(configs)
	ledger := budget.NewLedger(budgets, requisitions)

	eng := engine.New(requisitions, users, resolver, numbers, ledger)
	eng.SetPools(infra.Pools)

	pos := purchaseorder.NewService(purchaseOrders, requisitions, users, numbers)

	return &ProcurementModule{
		Requisitions:   requisitions,
		Configs:        configs,
		Budgets:        budgets,
		Users:          users,
		PurchaseOrders: purchaseOrders,
		Ledger:         ledger,
		Engine:         eng,
		POs:            pos,
		Numbers:        numbers,
	}
}

// Name implements Module.
func (m *ProcurementModule) Name() string { return "procurement" }

// ContributeServerDeps implements Module.
func (m *ProcurementModule) ContributeServerDeps(deps *handlers.ServerDeps) {
	deps.Engine = m.Engine
	deps.PurchaseOrders = m.POs
	deps.Budgets = m.Budgets
	deps.Configs = m.Configs
}

// RegisterWorkers implements Module. Procurement has no queued jobs; its side
// effects run on the worker pools.
func (m *ProcurementModule) RegisterWorkers(_ *river.Workers) {}

// Shutdown implements Module.
func (m *ProcurementModule) Shutdown(_ context.Context) error { return nil }
