package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	fulfillmentmemory "github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/adapters/memory"
	"github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/application/types"
	"github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/domain"
)

func TestPendingOrdersForRetailer_FiltersForeignLines(t *testing.T) {
	repo := fulfillmentmemory.NewRepository()
	repo.SeedProduct(domain.Product{ID: 1, Quantity: 10, PriceCents: 250, FarmerID: ptr(100), RetailerID: ptr(20)})
	repo.SeedProduct(domain.Product{ID: 2, Quantity: 10, PriceCents: 400, FarmerID: ptr(101), RetailerID: ptr(21)})
	repo.SeedProduct(domain.Product{ID: 3, Quantity: 10, PriceCents: 150, FarmerID: ptr(102), RetailerID: ptr(21)})
	svc := NewService(repo)

	// A mixed order: one line for retailer 20, two for retailer 21.
	mixed, err := svc.Checkout(context.Background(), types.CheckoutInput{
		CustomerID: 7,
		Lines: []types.CartLine{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 1},
			{ProductID: 3, Quantity: 4},
		},
	})
	require.NoError(t, err)

	views, err := svc.PendingOrdersForRetailer(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, views, 1)
	view := views[0]
	require.Equal(t, mixed.ID, view.OrderID)
	require.Len(t, view.Lines, 1)
	require.Equal(t, int64(1), view.Lines[0].ProductID)
	require.Equal(t, int64(250), view.Lines[0].UnitPriceCents)
	require.Equal(t, int64(500), view.Lines[0].LineTotalCents)
	require.Equal(t, int64(100), view.Lines[0].FarmerID)
	require.Equal(t, 2, view.OtherRetailerLineCount)

	views, err = svc.PendingOrdersForRetailer(context.Background(), 21)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Len(t, views[0].Lines, 2)
	require.Equal(t, 1, views[0].OtherRetailerLineCount)

	// Retailer 30 has no line in any order and sees nothing.
	views, err = svc.PendingOrdersForRetailer(context.Background(), 30)
	require.NoError(t, err)
	require.Empty(t, views)

	_, err = svc.PendingOrdersForRetailer(context.Background(), -1)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestPendingOrdersForRetailer_OnlyPendingStatuses(t *testing.T) {
	repo := fulfillmentmemory.NewRepository()
	repo.SeedProduct(domain.Product{ID: 1, Quantity: 10, PriceCents: 250, FarmerID: ptr(100), RetailerID: ptr(20)})
	svc := NewService(repo)

	order, err := svc.Checkout(context.Background(), types.CheckoutInput{
		CustomerID: 7,
		Lines:      []types.CartLine{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	views, err := svc.PendingOrdersForRetailer(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, domain.StatusPlaced, views[0].Status)

	_, err = svc.ConfirmOrder(context.Background(), order.ID)
	require.NoError(t, err)
	views, err = svc.PendingOrdersForRetailer(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, domain.StatusConfirmed, views[0].Status)

	// Once packed the order leaves the retailer's pending queue.
	_, err = svc.PackOrder(context.Background(), order.ID, 55)
	require.NoError(t, err)
	views, err = svc.PendingOrdersForRetailer(context.Background(), 20)
	require.NoError(t, err)
	require.Empty(t, views)
}

func TestShapeDistributorViews_SkipsUnassigned(t *testing.T) {
	assigned := int64(55)
	orders := []*domain.Order{
		{ID: 1, Status: domain.StatusPacked, DistributorID: &assigned, Lines: []domain.OrderLine{
			{ProductID: 1, Quantity: 2, RetailerID: 20},
		}},
		{ID: 2, Status: domain.StatusConfirmed},
	}
	views := shapeDistributorViews(orders)
	require.Len(t, views, 1)
	require.Equal(t, int64(1), views[0].OrderID)
	require.Equal(t, assigned, views[0].DistributorID)
	require.Len(t, views[0].Lines, 1)
	require.Equal(t, int64(20), views[0].Lines[0].RetailerID)
}
