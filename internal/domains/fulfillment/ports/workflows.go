package ports

import (
	"context"

	"github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/application/types"
	"github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/domain"
)

// CheckoutOrchestrator runs the checkout use case, either inline or through
// a durable workflow engine.
type CheckoutOrchestrator interface {
	PlaceOrder(ctx context.Context, input types.CheckoutInput) (*domain.Order, error)
}
