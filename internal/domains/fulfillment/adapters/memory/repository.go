package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/domain"
	"github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/ports"
)

var (
	_ ports.Repository      = (*Repository)(nil)
	_ ports.InventoryLedger = (*Repository)(nil)
)

// Repository is an in-memory fulfillment store. A single mutex makes every
// composite operation atomic, mirroring the transactional guarantees of the
// Postgres adapter. Used as the dev fallback and in tests.
type Repository struct {
	mu          sync.Mutex
	products    map[int64]*domain.Product
	orders      map[int64]*domain.Order
	byIdemKey   map[string]int64
	nextOrderID int64
	nextLineID  int64
}

func NewRepository() *Repository {
	return &Repository{
		products:  map[int64]*domain.Product{},
		orders:    map[int64]*domain.Order{},
		byIdemKey: map[string]int64{},
	}
}

// SeedProduct inserts or replaces a product row. The catalog is externally
// owned; seeding stands in for it in dev and test setups.
func (r *Repository) SeedProduct(product domain.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := product
	r.products[product.ID] = &clone
}

// Reset drops all state. Contract tests use it between provider states.
func (r *Repository) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products = map[int64]*domain.Product{}
	r.orders = map[int64]*domain.Order{}
	r.byIdemKey = map[string]int64{}
	r.nextOrderID = 0
	r.nextLineID = 0
}

func (r *Repository) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.products[id]
	if !ok {
		return nil, ports.ErrProductNotFound
	}
	clone := *product
	return &clone, nil
}

// Reserve atomically checks and decrements available quantity.
func (r *Repository) Reserve(_ context.Context, productID int64, quantity int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reserveLocked(productID, quantity)
}

// Restore unconditionally returns quantity to the product.
func (r *Repository) Restore(_ context.Context, productID int64, quantity int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.restoreLocked(productID, quantity)
	return nil
}

func (r *Repository) reserveLocked(productID int64, quantity int32) error {
	product, ok := r.products[productID]
	if !ok {
		return ports.ErrProductNotFound
	}
	if product.Quantity < quantity {
		return ports.ErrInsufficientStock
	}
	product.Quantity -= quantity
	return nil
}

func (r *Repository) restoreLocked(productID int64, quantity int32) {
	if product, ok := r.products[productID]; ok {
		product.Quantity += quantity
	}
}

func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order, idempotencyKey string) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if idempotencyKey != "" {
		if _, ok := r.byIdemKey[idempotencyKey]; ok {
			return nil, ports.ErrDuplicateCheckout
		}
	}

	// Validate every reservation before mutating anything so a late
	// failure leaves no partial decrement.
	for _, line := range order.Lines {
		product, ok := r.products[line.ProductID]
		if !ok {
			return nil, ports.ErrProductNotFound
		}
		if product.Quantity < line.Quantity {
			return nil, ports.ErrInsufficientStock
		}
	}
	for _, line := range order.Lines {
		r.products[line.ProductID].Quantity -= line.Quantity
	}

	now := time.Now().UTC()
	clone := cloneOrder(order)
	r.nextOrderID++
	clone.ID = r.nextOrderID
	clone.CreatedAt = now
	clone.UpdatedAt = now
	for i := range clone.Lines {
		r.nextLineID++
		clone.Lines[i].ID = r.nextLineID
		clone.Lines[i].OrderID = clone.ID
	}
	r.orders[clone.ID] = clone
	if idempotencyKey != "" {
		r.byIdemKey[idempotencyKey] = clone.ID
	}
	return cloneOrder(clone), nil
}

func (r *Repository) GetOrder(_ context.Context, id int64) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return cloneOrder(order), nil
}

func (r *Repository) GetOrderByIdempotencyKey(_ context.Context, key string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byIdemKey[key]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return cloneOrder(r.orders[id]), nil
}

func (r *Repository) UpdateStatus(_ context.Context, order *domain.Order, from domain.Status, restock bool) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.orders[order.ID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if existing.Status != from {
		return nil, ports.ErrConflict
	}
	existing.Status = order.Status
	existing.DistributorID = cloneID(order.DistributorID)
	existing.UpdatedAt = time.Now().UTC()
	if restock {
		for _, line := range existing.Lines {
			r.restoreLocked(line.ProductID, line.Quantity)
		}
	}
	return cloneOrder(existing), nil
}

func (r *Repository) OrdersByCustomer(_ context.Context, customerID int64) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.collectLocked(func(o *domain.Order) bool {
		return o.CustomerID == customerID
	}), nil
}

func (r *Repository) PendingOrdersByRetailer(_ context.Context, retailerID int64) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.collectLocked(func(o *domain.Order) bool {
		if o.Status != domain.StatusPlaced && o.Status != domain.StatusConfirmed {
			return false
		}
		for _, line := range o.Lines {
			if line.RetailerID == retailerID {
				return true
			}
		}
		return false
	}), nil
}

func (r *Repository) OrdersByDistributor(_ context.Context, distributorID int64, statuses []domain.Status) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.collectLocked(func(o *domain.Order) bool {
		if o.DistributorID == nil || *o.DistributorID != distributorID {
			return false
		}
		if len(statuses) == 0 {
			return true
		}
		for _, status := range statuses {
			if o.Status == status {
				return true
			}
		}
		return false
	}), nil
}

func (r *Repository) OrdersAwaitingPacking(_ context.Context) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.collectLocked(func(o *domain.Order) bool {
		return o.Status == domain.StatusConfirmed && o.DistributorID == nil
	}), nil
}

// collectLocked returns matching orders newest first.
func (r *Repository) collectLocked(match func(*domain.Order) bool) []*domain.Order {
	var list []*domain.Order
	for _, order := range r.orders {
		if match(order) {
			list = append(list, cloneOrder(order))
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	return list
}

func cloneOrder(order *domain.Order) *domain.Order {
	clone := *order
	clone.DistributorID = cloneID(order.DistributorID)
	clone.Lines = make([]domain.OrderLine, len(order.Lines))
	copy(clone.Lines, order.Lines)
	return &clone
}

func cloneID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
