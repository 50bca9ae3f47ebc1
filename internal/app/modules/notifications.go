package modules

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"

	"reqflow.io/reqflow/internal/api/handlers"
	"reqflow.io/reqflow/internal/jobs"
	"reqflow.io/reqflow/internal/notification"
	"reqflow.io/reqflow/internal/repository"
)

// NotificationModule wires the inbox, the lifecycle triggers, and the River
// dispatch/cleanup workers. It hooks the triggers into the procurement
// module's engine and ledger.
type NotificationModule struct {
	Store    *repository.NotificationRepository
	Sender   *notification.InboxSender
	Triggers *notification.Triggers

	cleanup  *jobs.NotificationCleanupWorker
	dispatch *jobs.NotificationDispatchWorker
}

// NewNotificationModule builds the notification dependency graph and attaches
// the triggers to the procurement engine and budget ledger.
func NewNotificationModule(infra *Infrastructure, procurement *ProcurementModule) *NotificationModule {
	store := repository.NewNotificationRepository(infra.Pool)
	sender := notification.NewInboxSender(store)
	triggers := notification.NewTriggers(sender, procurement.Users)

	procurement.Engine.SetEvents(triggers)
	procurement.Ledger.SetNotifier(triggers)

	return &NotificationModule{
		Store:    store,
		Sender:   sender,
		Triggers: triggers,
		cleanup:  jobs.NewNotificationCleanupWorker(store, infra.Config.River.NotificationRetention),
		dispatch: jobs.NewNotificationDispatchWorker(store, jobs.LogSink{}),
	}
}

// Name implements Module.
func (m *NotificationModule) Name() string { return "notifications" }

// ContributeServerDeps implements Module.
func (m *NotificationModule) ContributeServerDeps(deps *handlers.ServerDeps) {
	deps.Notifications = m.Store
}

// RegisterWorkers implements Module.
func (m *NotificationModule) RegisterWorkers(workers *river.Workers) {
	river.AddWorker(workers, m.dispatch)
	river.AddWorker(workers, m.cleanup)
}

// AttachRiver wires the queued dispatch channel once the River client exists.
// Before this call notifications land in the inbox without an external push.
func (m *NotificationModule) AttachRiver(client *river.Client[pgx.Tx]) {
	m.Sender.SetEnqueuer(jobs.NewEnqueuer(client))
}

// Shutdown implements Module.
func (m *NotificationModule) Shutdown(_ context.Context) error { return nil }
