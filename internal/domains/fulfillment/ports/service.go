package ports

import (
	"context"

	"github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/application/types"
	"github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/domain"
)

// Service exposes the fulfillment use cases to adapters: the checkout
// coordinator, the lifecycle transitions, and the role visibility queries.
type Service interface {
	Checkout(ctx context.Context, input types.CheckoutInput) (*domain.Order, error)

	ConfirmOrder(ctx context.Context, orderID int64) (*domain.Order, error)
	PackOrder(ctx context.Context, orderID int64, distributorID int64) (*domain.Order, error)
	ShipOrder(ctx context.Context, orderID int64) (*domain.Order, error)
	DeliverOrder(ctx context.Context, orderID int64) (*domain.Order, error)
	CancelOrder(ctx context.Context, orderID int64) (*domain.Order, error)

	OrdersForCustomer(ctx context.Context, customerID int64) ([]*domain.Order, error)
	PendingOrdersForRetailer(ctx context.Context, retailerID int64) ([]types.RetailerOrderView, error)
	AssignedOrdersForDistributor(ctx context.Context, distributorID int64, filter types.DistributorStatusFilter) ([]types.DistributorOrderView, error)
	OrdersAwaitingPacking(ctx context.Context) ([]*domain.Order, error)
}
