package application

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/application/types"
	"github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/domain"
	"github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/ports"
)

const (
	// DefaultMaxCartLines bounds a single checkout request.
	DefaultMaxCartLines = 100
	// DefaultCheckoutTimeout bounds how long a checkout may hold row locks.
	DefaultCheckoutTimeout = 5 * time.Second

	// transitionAttempts bounds the compare-and-swap retry loop. A racing
	// transition surfaces as ErrIllegalTransition on the re-read, so more
	// than a couple of attempts never helps.
	transitionAttempts = 3
)

// Service orchestrates the fulfillment use cases: the atomic checkout
// transaction, the order lifecycle, and the role visibility queries.
type Service struct {
	repo            ports.Repository
	maxCartLines    int
	checkoutTimeout time.Duration
}

type Option func(*Service)

// WithMaxCartLines overrides the checkout line bound.
func WithMaxCartLines(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxCartLines = n
		}
	}
}

// WithCheckoutTimeout overrides the checkout deadline.
func WithCheckoutTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.checkoutTimeout = d
		}
	}
}

// NewService wires the fulfillment service with its repository.
func NewService(repo ports.Repository, opts ...Option) *Service {
	s := &Service{
		repo:            repo,
		maxCartLines:    DefaultMaxCartLines,
		checkoutTimeout: DefaultCheckoutTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Checkout turns a validated cart into a durable order. Either a fully
// formed order with reserved inventory exists afterwards, or nothing
// changed; there is no third outcome.
func (s *Service) Checkout(ctx context.Context, input types.CheckoutInput) (*domain.Order, error) {
	lines, err := s.normalizeCart(input)
	if err != nil {
		return nil, err
	}

	frozen := make([]domain.OrderLine, 0, len(lines))
	for _, line := range lines {
		product, err := s.repo.GetProduct(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, ports.ErrProductNotFound) {
				return nil, fmt.Errorf("%w: product %d", ports.ErrProductNotFound, line.ProductID)
			}
			return nil, err
		}
		if err := product.Sellable(); err != nil {
			return nil, fmt.Errorf("product %d: %w", product.ID, err)
		}
		frozen = append(frozen, domain.OrderLine{
			ProductID:      product.ID,
			Quantity:       line.Quantity,
			UnitPriceCents: product.PriceCents,
			FarmerID:       *product.FarmerID,
			RetailerID:     *product.RetailerID,
		})
	}

	order, err := domain.NewOrder(input.CustomerID, frozen)
	if err != nil {
		return nil, mapError(err)
	}

	txCtx, cancel := context.WithTimeout(ctx, s.checkoutTimeout)
	defer cancel()
	created, err := s.repo.CreateOrder(txCtx, order, input.IdempotencyKey)
	switch {
	case err == nil:
		return created, nil
	case errors.Is(err, ports.ErrDuplicateCheckout) && input.IdempotencyKey != "":
		return s.repo.GetOrderByIdempotencyKey(ctx, input.IdempotencyKey)
	case errors.Is(err, context.DeadlineExceeded):
		return nil, fmt.Errorf("%w: %w", ErrCheckoutTimeout, err)
	default:
		return nil, err
	}
}

// normalizeCart applies the input-shape rules before any transaction:
// non-empty, bounded, positive quantities. Duplicate product lines are
// merged, and the result is sorted ascending by product id so concurrent
// checkouts sharing products always reserve in the same order.
func (s *Service) normalizeCart(input types.CheckoutInput) ([]types.CartLine, error) {
	if input.CustomerID <= 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, domain.ErrInvalidCustomer)
	}
	if len(input.Lines) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, ErrEmptyCart)
	}
	if len(input.Lines) > s.maxCartLines {
		return nil, fmt.Errorf("%w: %w (%d > %d)", ErrInvalidInput, ErrCartTooLarge, len(input.Lines), s.maxCartLines)
	}
	merged := map[int64]int64{}
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: %w: product %d", ErrInvalidInput, domain.ErrInvalidQuantity, line.ProductID)
		}
		merged[line.ProductID] += int64(line.Quantity)
		// Merging must not wrap int32; a wrapped quantity would commit an
		// order that misstates what was requested.
		if merged[line.ProductID] > math.MaxInt32 {
			return nil, fmt.Errorf("%w: %w: product %d", ErrInvalidInput, domain.ErrInvalidQuantity, line.ProductID)
		}
	}
	lines := make([]types.CartLine, 0, len(merged))
	for productID, quantity := range merged {
		lines = append(lines, types.CartLine{ProductID: productID, Quantity: int32(quantity)})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines, nil
}

// ConfirmOrder moves a placed order into confirmed.
func (s *Service) ConfirmOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	return s.transition(ctx, orderID, func(o *domain.Order) error { return o.Confirm() })
}

// PackOrder assigns the distributor and marks the order packed atomically.
func (s *Service) PackOrder(ctx context.Context, orderID int64, distributorID int64) (*domain.Order, error) {
	return s.transition(ctx, orderID, func(o *domain.Order) error { return o.Pack(distributorID) })
}

// ShipOrder moves a packed order into shipped.
func (s *Service) ShipOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	return s.transition(ctx, orderID, func(o *domain.Order) error { return o.Ship() })
}

// DeliverOrder moves a shipped order into delivered.
func (s *Service) DeliverOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	return s.transition(ctx, orderID, func(o *domain.Order) error { return o.Deliver() })
}

// CancelOrder terminates the order and restores every line's inventory in
// the same transaction as the status flip. Because cancelled has no
// outgoing transitions, the restore runs at most once per order.
func (s *Service) CancelOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	return s.transition(ctx, orderID, func(o *domain.Order) error { return o.Cancel() })
}

// transition serializes concurrent transition requests per order through a
// compare-and-swap on the previous status. A lost race re-reads the fresh
// state so the caller observes the post-transition status and gets the
// precise illegal-transition error, never a silent coercion.
func (s *Service) transition(ctx context.Context, orderID int64, apply func(*domain.Order) error) (*domain.Order, error) {
	var lastErr error
	for attempt := 0; attempt < transitionAttempts; attempt++ {
		order, err := s.repo.GetOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
		from := order.Status
		if err := apply(order); err != nil {
			return nil, err
		}
		restock := order.Status == domain.StatusCancelled
		updated, err := s.repo.UpdateStatus(ctx, order, from, restock)
		if errors.Is(err, ports.ErrConflict) {
			lastErr = err
			continue
		}
		return updated, err
	}
	return nil, lastErr
}

// OrdersForCustomer returns all of the customer's orders, newest first.
func (s *Service) OrdersForCustomer(ctx context.Context, customerID int64) ([]*domain.Order, error) {
	if customerID <= 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, domain.ErrInvalidCustomer)
	}
	return s.repo.OrdersByCustomer(ctx, customerID)
}

// PendingOrdersForRetailer returns placed/confirmed orders containing the
// retailer's lines, shaped so other retailers' lines are only a count.
func (s *Service) PendingOrdersForRetailer(ctx context.Context, retailerID int64) ([]types.RetailerOrderView, error) {
	if retailerID <= 0 {
		return nil, fmt.Errorf("%w: retailer id must be greater than zero", ErrInvalidInput)
	}
	orders, err := s.repo.PendingOrdersByRetailer(ctx, retailerID)
	if err != nil {
		return nil, err
	}
	return shapeRetailerViews(orders, retailerID), nil
}

// AssignedOrdersForDistributor returns the distributor's assigned orders,
// optionally narrowed by the status filter. Orders never appear here before
// they are packed: the distributor equality predicate cannot match a nil
// assignment.
func (s *Service) AssignedOrdersForDistributor(ctx context.Context, distributorID int64, filter types.DistributorStatusFilter) ([]types.DistributorOrderView, error) {
	if distributorID <= 0 {
		return nil, fmt.Errorf("%w: distributor id must be greater than zero", ErrInvalidInput)
	}
	if filter == "" {
		filter = types.FilterAll
	}
	if !filter.Valid() {
		return nil, fmt.Errorf("%w: unknown status filter %q", ErrInvalidInput, filter)
	}
	orders, err := s.repo.OrdersByDistributor(ctx, distributorID, filter.Statuses())
	if err != nil {
		return nil, err
	}
	return shapeDistributorViews(orders), nil
}

// OrdersAwaitingPacking feeds the warehouse: confirmed orders that have no
// distributor yet.
func (s *Service) OrdersAwaitingPacking(ctx context.Context) ([]*domain.Order, error) {
	return s.repo.OrdersAwaitingPacking(ctx)
}

var _ ports.Service = (*Service)(nil)
