package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Status enumerates order progression through the supply chain.
type Status string

const (
	StatusPlaced    Status = "placed"
	StatusConfirmed Status = "confirmed"
	StatusPacked    Status = "packed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

var (
	ErrIllegalTransition = errors.New("illegal order transition")
	ErrInvalidAssignment = errors.New("distributor assignment is invalid")
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrInvalidCustomer   = errors.New("customer id must be greater than zero")
	ErrInvalidStatus     = errors.New("order status is invalid")
	ErrOrderHasNoLines   = errors.New("order must contain at least one line")
)

// Order is the durable purchase aggregate. It is created together with its
// lines in one transaction and afterwards mutated only through status
// transitions; lines are immutable once written.
type Order struct {
	ID            int64
	CustomerID    int64
	TotalCents    int64
	Status        Status
	DistributorID *int64
	Lines         []OrderLine
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OrderLine freezes the product price and ownership snapshot taken at
// checkout. The snapshot is never recomputed from the live product.
type OrderLine struct {
	ID             int64
	OrderID        int64
	ProductID      int64
	Quantity       int32
	UnitPriceCents int64
	FarmerID       int64
	RetailerID     int64
}

// LineTotalCents returns the frozen price times quantity for one line.
func (l OrderLine) LineTotalCents() int64 {
	return l.UnitPriceCents * int64(l.Quantity)
}

// NewOrder validates and constructs a placed order from frozen lines.
// The total is always derived from the lines, never accepted from a caller.
func NewOrder(customerID int64, lines []OrderLine) (*Order, error) {
	if customerID <= 0 {
		return nil, ErrInvalidCustomer
	}
	if len(lines) == 0 {
		return nil, ErrOrderHasNoLines
	}
	var total int64
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: product %d", ErrInvalidQuantity, line.ProductID)
		}
		total += line.LineTotalCents()
	}
	return &Order{
		CustomerID: customerID,
		TotalCents: total,
		Status:     StatusPlaced,
		Lines:      lines,
	}, nil
}

// Confirm moves a placed order into confirmed.
func (o *Order) Confirm() error {
	if o.Status != StatusPlaced {
		return illegalTransition("confirm", o.Status)
	}
	o.Status = StatusConfirmed
	return nil
}

// Pack assigns the distributor and marks the order packed in one step.
// A packed order can never be unassigned, and an unpacked order never
// carries a distributor.
func (o *Order) Pack(distributorID int64) error {
	if distributorID <= 0 {
		return fmt.Errorf("%w: distributor id %d", ErrInvalidAssignment, distributorID)
	}
	if o.Status != StatusConfirmed {
		return illegalTransition("pack", o.Status)
	}
	o.Status = StatusPacked
	o.DistributorID = &distributorID
	return nil
}

// Ship moves a packed order into shipped.
func (o *Order) Ship() error {
	if o.Status != StatusPacked {
		return illegalTransition("ship", o.Status)
	}
	o.Status = StatusShipped
	return nil
}

// Deliver moves a shipped order into its terminal delivered state.
func (o *Order) Deliver() error {
	if o.Status != StatusShipped {
		return illegalTransition("deliver", o.Status)
	}
	o.Status = StatusDelivered
	return nil
}

// Cancel terminates an order from any non-terminal, non-delivered state.
// The caller is responsible for restoring inventory for every line; the
// absence of outgoing edges from cancelled makes that restore exactly-once.
func (o *Order) Cancel() error {
	switch o.Status {
	case StatusPlaced, StatusConfirmed, StatusPacked, StatusShipped:
		o.Status = StatusCancelled
		return nil
	default:
		return illegalTransition("cancel", o.Status)
	}
}

// Terminal reports whether the order has no outgoing transitions left.
func (o *Order) Terminal() bool {
	return o.Status == StatusDelivered || o.Status == StatusCancelled
}

// RetailerIDs returns the distinct retailer snapshots across the lines,
// ascending. Retailer association is derived, never stored on the order row.
func (o *Order) RetailerIDs() []int64 {
	return distinctLineIDs(o.Lines, func(l OrderLine) int64 { return l.RetailerID })
}

// FarmerIDs returns the distinct farmer snapshots across the lines, ascending.
func (o *Order) FarmerIDs() []int64 {
	return distinctLineIDs(o.Lines, func(l OrderLine) int64 { return l.FarmerID })
}

// ValidStatus reports whether the given status is part of the lifecycle.
func ValidStatus(status Status) bool {
	switch status {
	case StatusPlaced, StatusConfirmed, StatusPacked, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

func illegalTransition(transition string, from Status) error {
	return fmt.Errorf("%w: cannot %s an order in status %q", ErrIllegalTransition, transition, from)
}

func distinctLineIDs(lines []OrderLine, pick func(OrderLine) int64) []int64 {
	seen := map[int64]struct{}{}
	var ids []int64
	for _, line := range lines {
		id := pick(line)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
