package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/analyzer"
	httptransport "github.com/spec-kit/ticket-triage/internal/api/http"
	"github.com/spec-kit/ticket-triage/internal/api/http/handlers"
	"github.com/spec-kit/ticket-triage/internal/capability"
	"github.com/spec-kit/ticket-triage/internal/config"
	"github.com/spec-kit/ticket-triage/internal/contextstore"
	"github.com/spec-kit/ticket-triage/internal/events"
	"github.com/spec-kit/ticket-triage/internal/kafka"
	"github.com/spec-kit/ticket-triage/internal/observability"
	"github.com/spec-kit/ticket-triage/internal/orchestrator"
	"github.com/spec-kit/ticket-triage/internal/persistence"
	"github.com/spec-kit/ticket-triage/internal/planner"
	"github.com/spec-kit/ticket-triage/internal/service"
	"github.com/spec-kit/ticket-triage/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics()

	var caps capability.TextCapabilities = capability.NewLocal()
	var redis *persistence.Redis
	if cfg.Redis.Addr != "" {
		redis = persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
		caps = capability.NewCached(caps, redis.Client, cfg.Redis.CacheTTL(), logger)
	}

	var producer *kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.ResolutionsTopic, logger)
		defer producer.Close() //nolint:errcheck
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification, producer)
	worker.StartNotificationWorker(notificationService)

	store := contextstore.New()
	orch := orchestrator.New(orchestrator.Dependencies{
		Analyzer: analyzer.New(caps, logger, analyzer.Options{
			ClassifyThreshold: cfg.Analyzer.ClassifyThreshold,
			MaxKeyPoints:      cfg.Analyzer.MaxKeyPoints,
		}),
		Planner: planner.New(caps, logger, planner.Options{
			ApprovalThreshold:    cfg.Planner.ApprovalThreshold,
			ReadabilityThreshold: cfg.Planner.ReadabilityThreshold,
		}),
		Store:      store,
		Catalog:    planner.DefaultCatalog(),
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	}, orchestrator.Options{
		QualityFloor:     cfg.Orchestrator.QualityFloor,
		RetryMaxAttempts: cfg.Orchestrator.RetryMaxAttempts,
		RetryBaseDelay:   cfg.Orchestrator.RetryBaseDelay(),
		RetryMaxDelay:    cfg.Orchestrator.RetryMaxDelay(),
		ProcessTimeout:   cfg.Orchestrator.ProcessTimeout(),
	})

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, store, metrics, redis)
	ticketsHandler := handlers.NewTicketsHandler(orch)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  healthHandler,
		Tickets: ticketsHandler,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
