package checkout

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/application/types"
	"github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/domain"
	checkoutactivities "github.com/Apurer/go-fulfillment-server/internal/platform/temporal/activities/checkout"
)

const (
	// CheckoutWorkflowName is the public identifier for registering the workflow.
	CheckoutWorkflowName = "fulfillment.workflows.Checkout"
	// CheckoutTaskQueue is the queue consumed by the worker processing checkouts.
	CheckoutTaskQueue = "ORDER_CHECKOUT"
)

// CheckoutWorkflowInput captures the payload required to place an order.
type CheckoutWorkflowInput struct {
	Command types.CheckoutInput
	TraceID string
}

// CheckoutWorkflow durably executes the checkout transaction. The database
// transaction itself stays atomic inside the activity; the workflow adds
// retry-on-infrastructure-failure and idempotent re-attachment by workflow
// ID. Business rejections are non-retryable and fail the workflow as-is.
func CheckoutWorkflow(ctx workflow.Context, input CheckoutWorkflowInput) (*domain.Order, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("CheckoutWorkflow started", withTraceID(input.TraceID, "customerId", input.Command.CustomerID)...)

	options := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        2 * time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        10 * time.Second,
			MaximumAttempts:        5,
			NonRetryableErrorTypes: []string{checkoutactivities.CheckoutRejectedErrorType},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	var order domain.Order
	if err := workflow.ExecuteActivity(ctx, checkoutactivities.PlaceOrderActivityName, input.Command).Get(ctx, &order); err != nil {
		logger.Error("CheckoutWorkflow failed", withTraceID(input.TraceID, "customerId", input.Command.CustomerID, "error", err)...)
		return nil, err
	}
	logger.Info("CheckoutWorkflow completed", withTraceID(input.TraceID, "orderId", order.ID)...)
	return &order, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
