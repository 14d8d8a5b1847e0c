package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	fulfillmentserver "github.com/Apurer/go-fulfillment-server/go"

	fulfillmentmemory "github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/adapters/memory"
	fulfillmentobs "github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/adapters/observability"
	fulfillmentpostgres "github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/adapters/persistence/postgres"
	fulfillmentworkflows "github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/adapters/workflows"
	fulfillmentapp "github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/application"
	fulfillmentports "github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/ports"
	platformmigrations "github.com/Apurer/go-fulfillment-server/internal/platform/migrations"
	platformobservability "github.com/Apurer/go-fulfillment-server/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-fulfillment-server/internal/platform/postgres"
)

// Run boots the fulfillment HTTP API with observability, the order
// repository, and the checkout workflow orchestrator wired.
func Run(ctx context.Context) error {
	const serviceName = "fulfillment-api"
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	repo, cleanupRepo := buildOrderRepository(ctx, cfg, logger)
	defer cleanupRepo()
	coreService := fulfillmentapp.NewService(repo, serviceOptions(cfg)...)
	service := fulfillmentobs.New(
		coreService,
		fulfillmentobs.WithLogger(logger),
		fulfillmentobs.WithTracer(instruments.Tracer("internal.fulfillment.application")),
		fulfillmentobs.WithMeter(instruments.Meter("internal.fulfillment.application")),
	)
	var orchestrator fulfillmentports.CheckoutOrchestrator = fulfillmentworkflows.NewInlineCheckoutWorkflows(service)
	if temporalClient, err := connectTemporalClient(cfg, instruments); err != nil {
		logger.Warn("Temporal workflows unavailable, running checkout inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		orchestrator = fulfillmentworkflows.NewTemporalCheckoutWorkflows(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	handlers := fulfillmentserver.ApiHandleFunctions{
		OrdersAPI: fulfillmentserver.NewOrdersAPI(service, orchestrator),
	}

	router := fulfillmentserver.NewRouter(handlers)
	router.Use(otelgin.Middleware(serviceName))
	addr := ":" + cfg.Port
	logger.Info("fulfillment API listening", slog.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Error("fulfillment API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}

func serviceOptions(cfg Config) []fulfillmentapp.Option {
	var opts []fulfillmentapp.Option
	if cfg.MaxCartLines > 0 {
		opts = append(opts, fulfillmentapp.WithMaxCartLines(cfg.MaxCartLines))
	}
	if cfg.CheckoutTimeout > 0 {
		opts = append(opts, fulfillmentapp.WithCheckoutTimeout(cfg.CheckoutTimeout))
	}
	return opts
}

func buildOrderRepository(ctx context.Context, cfg Config, logger *slog.Logger) (fulfillmentports.Repository, func()) {
	if cfg.PostgresDSN == "" {
		logger.Warn("POSTGRES_DSN not set, falling back to in-memory order repository")
		return fulfillmentmemory.NewRepository(), func() {}
	}
	db, err := platformpostgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Warn("failed to connect to postgres, falling back to memory", slog.String("error", err.Error()))
		return fulfillmentmemory.NewRepository(), func() {}
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn("failed to unwrap postgres connection, falling back to memory", slog.String("error", err.Error()))
		return fulfillmentmemory.NewRepository(), func() {}
	}
	if err := platformmigrations.Run(db); err != nil {
		logger.Warn("failed to run migrations, falling back to memory", slog.String("error", err.Error()))
		_ = sqlDB.Close()
		return fulfillmentmemory.NewRepository(), func() {}
	}
	logger.Info("order repository configured with postgres")
	return fulfillmentpostgres.NewRepository(db), func() { _ = sqlDB.Close() }
}

func connectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	logger := effectiveLogger(instruments)
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(logger),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.Default()
}
