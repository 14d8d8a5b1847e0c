package workflows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/application/types"
	"github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/domain"
	"github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/ports"
	checkoutworkflows "github.com/Apurer/go-fulfillment-server/internal/platform/temporal/workflows/checkout"
)

var (
	_ ports.CheckoutOrchestrator = (*TemporalCheckoutWorkflows)(nil)
	_ ports.CheckoutOrchestrator = (*InlineCheckoutWorkflows)(nil)
)

// TemporalCheckoutWorkflows starts checkout workflows on a Temporal cluster.
// When the caller supplies an idempotency key, the workflow ID is derived
// from it, so a retried checkout attaches to the original run instead of
// starting a second one.
type TemporalCheckoutWorkflows struct {
	client    client.Client
	taskQueue string
}

// NewTemporalCheckoutWorkflows wires a Temporal client into the orchestrator.
func NewTemporalCheckoutWorkflows(c client.Client) *TemporalCheckoutWorkflows {
	return &TemporalCheckoutWorkflows{client: c, taskQueue: checkoutworkflows.CheckoutTaskQueue}
}

// PlaceOrder starts the durable checkout workflow and waits for its result.
func (o *TemporalCheckoutWorkflows) PlaceOrder(ctx context.Context, input types.CheckoutInput) (*domain.Order, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal checkout workflows not configured")
	}
	traceComponent := workflowTraceComponent(ctx)
	workflowID := buildCheckoutWorkflowID(input, traceComponent)
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: o.taskQueue,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		checkoutworkflows.CheckoutWorkflow,
		checkoutworkflows.CheckoutWorkflowInput{Command: input, TraceID: traceComponent},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) && strings.TrimSpace(input.IdempotencyKey) != "" {
			existingRun := o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
			var order domain.Order
			if err := existingRun.Get(ctx, &order); err != nil {
				return nil, err
			}
			return &order, nil
		}
		return nil, err
	}
	var order domain.Order
	if err := run.Get(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// InlineCheckoutWorkflows executes the service directly without Temporal,
// useful for tests or dev fallbacks.
type InlineCheckoutWorkflows struct {
	service ports.Service
}

// NewInlineCheckoutWorkflows wraps the fulfillment service for synchronous execution.
func NewInlineCheckoutWorkflows(service ports.Service) *InlineCheckoutWorkflows {
	return &InlineCheckoutWorkflows{service: service}
}

// PlaceOrder delegates to the application service without durable orchestration.
func (o *InlineCheckoutWorkflows) PlaceOrder(ctx context.Context, input types.CheckoutInput) (*domain.Order, error) {
	if o == nil || o.service == nil {
		return nil, errors.New("inline checkout workflows not configured")
	}
	return o.service.Checkout(ctx, input)
}

func buildCheckoutWorkflowID(input types.CheckoutInput, traceComponent string) string {
	if key := strings.TrimSpace(input.IdempotencyKey); key != "" {
		return fmt.Sprintf("checkout-idem-%s", hashIdempotencyKey(key))
	}
	return fmt.Sprintf("checkout-%d-%s", input.CustomerID, traceComponent)
}

func hashIdempotencyKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	// First 16 hex chars keep workflow IDs readable while staying deterministic.
	return hex.EncodeToString(sum[:8])
}

func workflowTraceComponent(ctx context.Context) string {
	if traceID := workflowTraceID(ctx); traceID != "" {
		return traceID
	}
	return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
}

func workflowTraceID(ctx context.Context) string {
	span := oteltrace.SpanFromContext(ctx)
	if span == nil {
		return ""
	}
	spanCtx := span.SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	traceID := spanCtx.TraceID()
	if !traceID.IsValid() {
		return ""
	}
	return traceID.String()
}
