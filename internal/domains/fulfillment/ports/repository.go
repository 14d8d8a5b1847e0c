package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/domain"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrConflict signals a lost compare-and-swap on the order status: a
	// concurrent transition committed first. Callers re-read and re-derive
	// the proper illegal-transition error from the fresh state.
	ErrConflict = errors.New("order was modified concurrently")
	// ErrDuplicateCheckout signals the idempotency key already produced an
	// order; the original order should be returned instead.
	ErrDuplicateCheckout = errors.New("checkout already processed")
)

// InventoryLedger performs atomic conditional quantity mutations on product
// rows. Reserve must be a single check-and-decrement: two concurrent
// reservations for the last unit must never both succeed.
type InventoryLedger interface {
	Reserve(ctx context.Context, productID int64, quantity int32) error
	Restore(ctx context.Context, productID int64, quantity int32) error
}

// Repository persists orders and their lines and answers the role-scoped
// queries. Implementations own transactional atomicity; the application
// layer owns the business rules.
type Repository interface {
	// GetProduct loads a product read-only for checkout validation and
	// price freezing.
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)

	// CreateOrder inserts the order and every line and reserves each line's
	// quantity against its product, all in one transaction. Lines must be
	// pre-sorted ascending by product id; the first reservation failure
	// aborts the whole transaction with ErrInsufficientStock or
	// ErrProductNotFound and leaves no rows behind. A non-empty
	// idempotencyKey that was already committed yields ErrDuplicateCheckout.
	CreateOrder(ctx context.Context, order *domain.Order, idempotencyKey string) (*domain.Order, error)

	// GetOrder loads an order with all of its lines.
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)

	// GetOrderByIdempotencyKey resolves a previously committed checkout.
	GetOrderByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error)

	// UpdateStatus persists a transition already applied to the aggregate,
	// guarded by a compare-and-swap on the previous status (ErrConflict on a
	// lost race). When restock is set, every line's quantity is restored to
	// its product within the same transaction.
	UpdateStatus(ctx context.Context, order *domain.Order, from domain.Status, restock bool) (*domain.Order, error)

	// OrdersByCustomer lists the customer's orders, newest first.
	OrdersByCustomer(ctx context.Context, customerID int64) ([]*domain.Order, error)

	// PendingOrdersByRetailer lists placed/confirmed orders containing at
	// least one line frozen to the retailer, deduplicated, newest first.
	// Orders are returned whole; per-line shaping is the resolver's job.
	PendingOrdersByRetailer(ctx context.Context, retailerID int64) ([]*domain.Order, error)

	// OrdersByDistributor lists orders assigned to the distributor, further
	// narrowed to the given statuses (nil means any). The distributor
	// equality predicate structurally excludes unpacked orders.
	OrdersByDistributor(ctx context.Context, distributorID int64, statuses []domain.Status) ([]*domain.Order, error)

	// OrdersAwaitingPacking lists confirmed orders with no distributor yet.
	OrdersAwaitingPacking(ctx context.Context) ([]*domain.Order, error)
}
