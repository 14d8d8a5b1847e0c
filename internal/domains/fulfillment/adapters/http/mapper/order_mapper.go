package mapper

import (
	"time"

	"github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/application/types"
	"github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/domain"
)

// Order is the transport-layer shape of a full order, as returned to the
// customer who owns it and to the transition endpoints.
type Order struct {
	ID            int64       `json:"id"`
	CustomerID    int64       `json:"customerId"`
	TotalCents    int64       `json:"totalCents"`
	Status        string      `json:"status"`
	DistributorID *int64      `json:"distributorId,omitempty"`
	Lines         []OrderLine `json:"lines"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// OrderLine carries the frozen checkout snapshot for one line.
type OrderLine struct {
	ProductID      int64 `json:"productId"`
	Quantity       int32 `json:"quantity"`
	UnitPriceCents int64 `json:"unitPriceCents"`
	LineTotalCents int64 `json:"lineTotalCents"`
	FarmerID       int64 `json:"farmerId"`
	RetailerID     int64 `json:"retailerId"`
}

// CheckoutRequest is the wire shape of a checkout. The customer identity is
// NOT part of the body; it arrives as a gateway-resolved header.
type CheckoutRequest struct {
	Lines          []types.CartLine `json:"lines" binding:"required"`
	IdempotencyKey string           `json:"idempotencyKey"`
}

// PackRequest assigns the distributor while packing.
type PackRequest struct {
	DistributorID int64 `json:"distributorId" binding:"required"`
}

// FromDomainOrder converts a domain order to its transport representation.
func FromDomainOrder(order *domain.Order) Order {
	if order == nil {
		return Order{}
	}
	lines := make([]OrderLine, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, OrderLine{
			ProductID:      line.ProductID,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
			LineTotalCents: line.LineTotalCents(),
			FarmerID:       line.FarmerID,
			RetailerID:     line.RetailerID,
		})
	}
	return Order{
		ID:            order.ID,
		CustomerID:    order.CustomerID,
		TotalCents:    order.TotalCents,
		Status:        string(order.Status),
		DistributorID: order.DistributorID,
		Lines:         lines,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
}

// FromDomainOrders converts a list of domain orders.
func FromDomainOrders(orders []*domain.Order) []Order {
	out := make([]Order, 0, len(orders))
	for _, order := range orders {
		out = append(out, FromDomainOrder(order))
	}
	return out
}
