package bot

import (
	"github.com/jmoiron/sqlx"

	"honeydesk/internal/events"
	"honeydesk/internal/flow"
	"honeydesk/internal/metrics"
	"honeydesk/internal/notify"
	"honeydesk/internal/repos"
	"honeydesk/internal/services"
	"honeydesk/internal/session"
	"honeydesk/internal/storage"
	"honeydesk/internal/transport"
)

// Options carries the collaborators and admin configuration of a Bot.
type Options struct {
	Sender   transport.Sender
	Blobs    storage.Blobs
	Sessions session.Store
	Events   events.Publisher
	Metrics  *metrics.Metrics

	SuperAdmin   string
	AdminIDs     []string
	AdminHandles []string
	AutoApprove  bool
}

// Wire builds the repos, services, flow registry and engine over db.
func Wire(db *sqlx.DB, o Options) *Bot {
	if o.Events == nil {
		o.Events = events.Nop{}
	}
	if o.Sessions == nil {
		o.Sessions = session.NewMemoryStore(0)
	}
	customers := repos.NewCustomerRepo(db)
	gate := services.NewGate(customers, o.SuperAdmin, o.AdminHandles)
	n := notify.New(o.Sender, customers, o.AdminIDs, o.Metrics)

	svc := flow.Deps{
		Customers: services.NewCustomerService(customers, gate, n, o.Events, o.AutoApprove),
		Orders:    services.NewOrderService(repos.NewOrderRepo(db), n, o.Events, o.Metrics),
		Tickets:   services.NewTicketService(repos.NewTicketRepo(db), o.Blobs, n, o.Events, o.Metrics),
		Feedback:  services.NewFeedbackService(repos.NewFeedbackRepo(db), o.Blobs, n, o.Events, o.Metrics),
		Catalog:   services.NewCatalogService(repos.NewCategoryRepo(db), repos.NewProductRepo(db), o.Blobs, o.Events),
		Gate:      gate,
	}
	reports := services.NewReportService(repos.NewStatsRepo(db), repos.NewInventoryRepo(db))
	engine := flow.NewEngine(flow.NewRegistry(flow.Flows(svc)...), o.Sessions, o.Sender, o.Metrics)
	return New(engine, svc, reports, o.Sender)
}
