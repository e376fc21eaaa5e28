package handlers

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"honeydesk/internal/bot"
	"honeydesk/internal/config"
	"honeydesk/internal/services"
	"honeydesk/internal/storage"
)

type Deps struct {
	WebhookHandler *WebhookHandler
	AdminHandler   *AdminHandler
	HealthHandler  *HealthHandler

	WebhookAuth   services.TokenAuth
	DashboardAuth services.TokenAuth
	// Metrics is served on /metrics when set.
	Metrics prometheus.Gatherer
}

type pinger interface {
	Ping(ctx context.Context) error
}

func NewDeps(db *sqlx.DB, b *bot.Bot, blobs storage.DiskStore, cfg config.Config, gatherer prometheus.Gatherer) *Deps {
	health := &HealthHandler{DB: db, Checks: map[string]func(context.Context) error{}}
	if p, ok := b.Engine.Store.(pinger); ok {
		health.Checks["sessions"] = p.Ping
	}
	return &Deps{
		WebhookHandler: &WebhookHandler{Bot: b, Files: blobs},
		AdminHandler:   &AdminHandler{Reports: b.Reports, DB: db, Files: blobs},
		HealthHandler:  health,
		WebhookAuth:    services.TokenAuth{Hash: cfg.WebhookSecretHash},
		DashboardAuth:  services.TokenAuth{Hash: cfg.DashboardHash},
		Metrics:        gatherer,
	}
}
