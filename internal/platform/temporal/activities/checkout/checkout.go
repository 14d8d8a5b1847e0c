package checkout

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/application"
	"github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/application/types"
	"github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/domain"
	"github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/ports"
)

const (
	// PlaceOrderActivityName executes the atomic checkout transaction.
	PlaceOrderActivityName = "fulfillment.activities.PlaceOrder"
	// CheckoutRejectedErrorType marks business rejections that retrying can
	// never fix (bad cart, missing product, insufficient stock).
	CheckoutRejectedErrorType = "CheckoutRejected"
)

// Activities groups activities operating on the fulfillment bounded context.
type Activities struct {
	service ports.Service
}

// NewActivities wires the fulfillment service into the Temporal activities bundle.
func NewActivities(service ports.Service) *Activities {
	return &Activities{service: service}
}

// PlaceOrder runs the checkout transaction and returns the created order.
func (a *Activities) PlaceOrder(ctx context.Context, input types.CheckoutInput) (*domain.Order, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("place order activity not initialized", "customerId", input.CustomerID)
		return nil, errors.New("place order activity not initialized")
	}
	logger.Info("PlaceOrder activity started", "customerId", input.CustomerID, "lines", len(input.Lines))
	order, err := a.service.Checkout(ctx, input)
	if err != nil {
		logger.Error("PlaceOrder activity failed", "customerId", input.CustomerID, "error", err)
		if isBusinessRejection(err) {
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), CheckoutRejectedErrorType, err)
		}
		return nil, err
	}
	logger.Info("PlaceOrder activity completed", "orderId", order.ID)
	return order, nil
}

func isBusinessRejection(err error) bool {
	return errors.Is(err, application.ErrInvalidInput) ||
		errors.Is(err, ports.ErrProductNotFound) ||
		errors.Is(err, ports.ErrInsufficientStock) ||
		errors.Is(err, domain.ErrProductNotSellable) ||
		errors.Is(err, domain.ErrInvalidPrice)
}
