package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"honeydesk/internal/bot"
	"honeydesk/internal/config"
	"honeydesk/internal/events"
	"honeydesk/internal/flow"
	"honeydesk/internal/http/handlers"
	applog "honeydesk/internal/log"
	"honeydesk/internal/metrics"
	"honeydesk/internal/session"
	"honeydesk/internal/storage"
	"honeydesk/internal/transport"
	"honeydesk/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook, dashboard and metrics server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, db, err := setup()
	if err != nil {
		return err
	}
	defer db.Close()
	log := applog.L()
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessions, err := sessionStore(ctx, cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		return err
	}

	producer := events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, log)
	defer producer.Close()

	var sender transport.Sender = transport.LogSender{Log: log}
	if cfg.RelayURL != "" {
		sender = transport.NewRelaySender(cfg.RelayURL)
	}

	blobs := storage.DiskStore{Root: cfg.UploadDir}
	b := bot.Wire(db, bot.Options{
		Sender:       sender,
		Blobs:        blobs,
		Sessions:     sessions,
		Events:       producer,
		Metrics:      m,
		SuperAdmin:   cfg.SuperAdmin,
		AdminIDs:     cfg.AdminIDs,
		AdminHandles: cfg.AdminUsernames,
		AutoApprove:  cfg.AutoApprove,
	})
	if n, err := b.Svc.Customers.PromoteBootstrap(ctx, cfg.AdminUsernames); err != nil {
		return fmt.Errorf("promote bootstrap admins: %w", err)
	} else if n > 0 {
		log.Info("admins.bootstrap", zap.Int("promoted", n))
	}

	app := handlers.NewApp(web.Views(cfg.TemplatesDir), handlers.NewDeps(db, b, blobs, cfg, reg))

	errc := make(chan error, 1)
	go func() { errc <- app.Listen(":" + cfg.Port) }()
	log.Info("server.start", zap.String("port", cfg.Port), zap.String("sessions", cfg.SessionBackend))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdown); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	log.Info("server.stop")
	return nil
}

func sessionStore(ctx context.Context, cfg config.Config) (session.Store, error) {
	if cfg.SessionBackend != "redis" {
		return session.NewMemoryStore(cfg.SessionTTL), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	store := session.NewRedisStore(client, cfg.SessionTTL, flow.NewData)
	if err := store.Ping(ctx); err != nil {
		return nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
	}
	return store, nil
}
