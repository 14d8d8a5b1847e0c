package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/domain"
	"github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/ports"
)

func ptr(v int64) *int64 { return &v }

func orderFor(t *testing.T, quantity int32) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(7, []domain.OrderLine{
		{ProductID: 1, Quantity: quantity, UnitPriceCents: 250, FarmerID: 100, RetailerID: 20},
	})
	require.NoError(t, err)
	return order
}

func TestCreateOrder_AssignsIdentifiers(t *testing.T) {
	repo := NewRepository()
	repo.SeedProduct(domain.Product{ID: 1, Quantity: 10, PriceCents: 250, FarmerID: ptr(100), RetailerID: ptr(20)})

	created, err := repo.CreateOrder(context.Background(), orderFor(t, 3), "")
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.NotZero(t, created.Lines[0].ID)
	require.Equal(t, created.ID, created.Lines[0].OrderID)
	require.False(t, created.CreatedAt.IsZero())

	product, err := repo.GetProduct(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, int32(7), product.Quantity)
}

func TestCreateOrder_DuplicateIdempotencyKey(t *testing.T) {
	repo := NewRepository()
	repo.SeedProduct(domain.Product{ID: 1, Quantity: 10, PriceCents: 250, FarmerID: ptr(100), RetailerID: ptr(20)})

	created, err := repo.CreateOrder(context.Background(), orderFor(t, 1), "key-1")
	require.NoError(t, err)

	_, err = repo.CreateOrder(context.Background(), orderFor(t, 1), "key-1")
	require.ErrorIs(t, err, ports.ErrDuplicateCheckout)

	found, err := repo.GetOrderByIdempotencyKey(context.Background(), "key-1")
	require.NoError(t, err)
	require.Equal(t, created.ID, found.ID)

	// The rejected attempt reserved nothing.
	product, err := repo.GetProduct(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, int32(9), product.Quantity)
}

func TestCreateOrder_InsufficientStockIsAllOrNothing(t *testing.T) {
	repo := NewRepository()
	repo.SeedProduct(domain.Product{ID: 1, Quantity: 10, PriceCents: 250, FarmerID: ptr(100), RetailerID: ptr(20)})
	repo.SeedProduct(domain.Product{ID: 2, Quantity: 1, PriceCents: 400, FarmerID: ptr(101), RetailerID: ptr(21)})

	order, err := domain.NewOrder(7, []domain.OrderLine{
		{ProductID: 1, Quantity: 5, UnitPriceCents: 250, FarmerID: 100, RetailerID: 20},
		{ProductID: 2, Quantity: 2, UnitPriceCents: 400, FarmerID: 101, RetailerID: 21},
	})
	require.NoError(t, err)

	_, err = repo.CreateOrder(context.Background(), order, "")
	require.ErrorIs(t, err, ports.ErrInsufficientStock)

	p1, err := repo.GetProduct(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, int32(10), p1.Quantity)
}

func TestCreateOrder_ConcurrentCheckoutsNeverOversell(t *testing.T) {
	const (
		stock      = 10
		perOrder   = 3
		attempts   = 50
		maxWinners = stock / perOrder
	)
	repo := NewRepository()
	repo.SeedProduct(domain.Product{ID: 1, Quantity: stock, PriceCents: 250, FarmerID: ptr(100), RetailerID: ptr(20)})

	orders := make([]*domain.Order, attempts)
	for i := range orders {
		orders[i] = orderFor(t, perOrder)
	}

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.CreateOrder(context.Background(), orders[i], "")
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, ports.ErrInsufficientStock):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, maxWinners, winners)

	product, err := repo.GetProduct(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, int32(stock-maxWinners*perOrder), product.Quantity)
}

func TestUpdateStatus_CompareAndSwap(t *testing.T) {
	repo := NewRepository()
	repo.SeedProduct(domain.Product{ID: 1, Quantity: 10, PriceCents: 250, FarmerID: ptr(100), RetailerID: ptr(20)})
	created, err := repo.CreateOrder(context.Background(), orderFor(t, 1), "")
	require.NoError(t, err)

	next := *created
	next.Status = domain.StatusConfirmed
	updated, err := repo.UpdateStatus(context.Background(), &next, domain.StatusPlaced, false)
	require.NoError(t, err)
	require.Equal(t, domain.StatusConfirmed, updated.Status)

	// A second swap from the stale status loses.
	_, err = repo.UpdateStatus(context.Background(), &next, domain.StatusPlaced, false)
	require.ErrorIs(t, err, ports.ErrConflict)

	_, err = repo.UpdateStatus(context.Background(), &domain.Order{ID: 999, Status: domain.StatusConfirmed}, domain.StatusPlaced, false)
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestUpdateStatus_RestockRestoresInventory(t *testing.T) {
	repo := NewRepository()
	repo.SeedProduct(domain.Product{ID: 1, Quantity: 10, PriceCents: 250, FarmerID: ptr(100), RetailerID: ptr(20)})
	created, err := repo.CreateOrder(context.Background(), orderFor(t, 4), "")
	require.NoError(t, err)

	next := *created
	next.Status = domain.StatusCancelled
	_, err = repo.UpdateStatus(context.Background(), &next, domain.StatusPlaced, true)
	require.NoError(t, err)

	product, err := repo.GetProduct(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, int32(10), product.Quantity)
}

func TestReserveRestore_Ledger(t *testing.T) {
	repo := NewRepository()
	repo.SeedProduct(domain.Product{ID: 1, Quantity: 2, PriceCents: 250, FarmerID: ptr(100), RetailerID: ptr(20)})

	require.NoError(t, repo.Reserve(context.Background(), 1, 2))
	require.ErrorIs(t, repo.Reserve(context.Background(), 1, 1), ports.ErrInsufficientStock)
	require.ErrorIs(t, repo.Reserve(context.Background(), 2, 1), ports.ErrProductNotFound)
	require.NoError(t, repo.Restore(context.Background(), 1, 2))
	require.NoError(t, repo.Reserve(context.Background(), 1, 1))
}

func TestQueries_ReturnClones(t *testing.T) {
	repo := NewRepository()
	repo.SeedProduct(domain.Product{ID: 1, Quantity: 10, PriceCents: 250, FarmerID: ptr(100), RetailerID: ptr(20)})
	created, err := repo.CreateOrder(context.Background(), orderFor(t, 1), "")
	require.NoError(t, err)

	// Mutating a returned order must not leak into the store.
	created.Status = domain.StatusDelivered
	created.Lines[0].Quantity = 99

	fresh, err := repo.GetOrder(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPlaced, fresh.Status)
	require.Equal(t, int32(1), fresh.Lines[0].Quantity)
}
