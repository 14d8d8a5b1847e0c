// Package types carries the use-case inputs and role-shaped projections
// exchanged between the transport, application, and workflow layers.
package types

import (
	"time"

	"github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/domain"
)

// CartLine is a requested (product, quantity) pair submitted at checkout,
// prior to any order existing.
type CartLine struct {
	ProductID int64 `json:"productId"`
	Quantity  int32 `json:"quantity"`
}

// CheckoutInput is the resolved checkout command. CustomerID must already be
// a verified internal identity; it is never taken from an untrusted request
// field. IdempotencyKey is optional and makes retried checkouts return the
// originally created order.
type CheckoutInput struct {
	CustomerID     int64      `json:"customerId"`
	Lines          []CartLine `json:"lines"`
	IdempotencyKey string     `json:"idempotencyKey,omitempty"`
}

// DistributorStatusFilter narrows the distributor's assigned-orders view.
type DistributorStatusFilter string

const (
	FilterPacked             DistributorStatusFilter = "packed"
	FilterShippedOrDelivered DistributorStatusFilter = "shipped_or_delivered"
	FilterAll                DistributorStatusFilter = "all"
)

// Statuses expands the filter into the matching status set. A nil result
// means no status predicate (the distributor equality filter still applies).
func (f DistributorStatusFilter) Statuses() []domain.Status {
	switch f {
	case FilterPacked:
		return []domain.Status{domain.StatusPacked}
	case FilterShippedOrDelivered:
		return []domain.Status{domain.StatusShipped, domain.StatusDelivered}
	default:
		return nil
	}
}

// Valid reports whether the filter is one of the known values.
func (f DistributorStatusFilter) Valid() bool {
	switch f {
	case FilterPacked, FilterShippedOrDelivered, FilterAll:
		return true
	default:
		return false
	}
}

// RetailerLineView is one of the retailer's own frozen lines within an order.
type RetailerLineView struct {
	ProductID      int64 `json:"productId"`
	Quantity       int32 `json:"quantity"`
	UnitPriceCents int64 `json:"unitPriceCents"`
	LineTotalCents int64 `json:"lineTotalCents"`
	FarmerID       int64 `json:"farmerId"`
}

// RetailerOrderView is the retailer-scoped projection of a pending order.
// Lines belonging to other retailers are reduced to a count, never exposed
// in detail.
type RetailerOrderView struct {
	OrderID                int64              `json:"orderId"`
	Status                 domain.Status      `json:"status"`
	Lines                  []RetailerLineView `json:"lines"`
	OtherRetailerLineCount int                `json:"otherRetailerLineCount"`
	CreatedAt              time.Time          `json:"createdAt"`
}

// DistributorLineView summarizes one line for the assigned distributor.
type DistributorLineView struct {
	ProductID  int64 `json:"productId"`
	Quantity   int32 `json:"quantity"`
	RetailerID int64 `json:"retailerId"`
}

// DistributorOrderView is the distributor-scoped projection of an assigned
// order. An order only ever enters this view once packed, because the
// distributor assignment happens atomically with that transition.
type DistributorOrderView struct {
	OrderID       int64                 `json:"orderId"`
	Status        domain.Status         `json:"status"`
	CustomerID    int64                 `json:"customerId"`
	DistributorID int64                 `json:"distributorId"`
	TotalCents    int64                 `json:"totalCents"`
	Lines         []DistributorLineView `json:"lines"`
	UpdatedAt     time.Time             `json:"updatedAt"`
}
