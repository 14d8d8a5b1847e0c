package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	fulfillmentmemory "github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/adapters/memory"
	fulfillmentobs "github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/adapters/observability"
	fulfillmentpostgres "github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/adapters/persistence/postgres"
	fulfillmentapp "github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/application"
	fulfillmentports "github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/ports"
	platformmigrations "github.com/Apurer/go-fulfillment-server/internal/platform/migrations"
	platformobservability "github.com/Apurer/go-fulfillment-server/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-fulfillment-server/internal/platform/postgres"
	checkoutactivities "github.com/Apurer/go-fulfillment-server/internal/platform/temporal/activities/checkout"
	checkoutworkflows "github.com/Apurer/go-fulfillment-server/internal/platform/temporal/workflows/checkout"
)

func main() {
	ctx := context.Background()
	const serviceName = "fulfillment-worker"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	repo, cleanupRepo := buildOrderRepository(ctx, logger)
	defer cleanupRepo()
	service := fulfillmentobs.New(
		fulfillmentapp.NewService(repo),
		fulfillmentobs.WithLogger(logger),
		fulfillmentobs.WithTracer(instruments.Tracer("internal.fulfillment.application")),
		fulfillmentobs.WithMeter(instruments.Meter("internal.fulfillment.application")),
	)
	activities := checkoutactivities.NewActivities(service)

	tracerOptions := temporalotel.TracerOptions{Tracer: instruments.Tracer("temporal-worker")}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		logger.Error("failed to configure Temporal tracing interceptor", slog.String("error", err.Error()))
		os.Exit(1)
	}
	clientOptions := client.Options{
		HostPort:  envOrDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		Namespace: envOrDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		Logger:    workerlog.NewStructuredLogger(logger),
	}
	clientOptions.Interceptors = append(clientOptions.Interceptors, tracingInterceptor)
	temporalClient, err := client.Dial(clientOptions)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, checkoutworkflows.CheckoutTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(checkoutworkflows.CheckoutWorkflow, workflow.RegisterOptions{Name: checkoutworkflows.CheckoutWorkflowName})
	w.RegisterActivityWithOptions(activities.PlaceOrder, activity.RegisterOptions{Name: checkoutactivities.PlaceOrderActivityName})

	logger.Info("worker listening", slog.String("taskQueue", checkoutworkflows.CheckoutTaskQueue), slog.String("namespace", clientOptions.Namespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}

func buildOrderRepository(ctx context.Context, logger *slog.Logger) (fulfillmentports.Repository, func()) {
	dsn := strings.TrimSpace(os.Getenv("POSTGRES_DSN"))
	if dsn == "" {
		logger.Warn("POSTGRES_DSN not set, falling back to in-memory order repository")
		return fulfillmentmemory.NewRepository(), func() {}
	}
	db, err := platformpostgres.Connect(ctx, dsn)
	if err != nil {
		logger.Warn("worker failed to connect to postgres, falling back to memory", slog.String("error", err.Error()))
		return fulfillmentmemory.NewRepository(), func() {}
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn("worker failed to unwrap postgres connection, falling back to memory", slog.String("error", err.Error()))
		return fulfillmentmemory.NewRepository(), func() {}
	}
	if err := platformmigrations.Run(db); err != nil {
		logger.Warn("worker failed to run migrations, falling back to memory", slog.String("error", err.Error()))
		_ = sqlDB.Close()
		return fulfillmentmemory.NewRepository(), func() {}
	}
	logger.Info("worker order repository configured with postgres")
	return fulfillmentpostgres.NewRepository(db), func() { _ = sqlDB.Close() }
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
