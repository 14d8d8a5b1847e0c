package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLines() []OrderLine {
	return []OrderLine{
		{ProductID: 1, Quantity: 2, UnitPriceCents: 500, FarmerID: 10, RetailerID: 20},
		{ProductID: 2, Quantity: 1, UnitPriceCents: 300, FarmerID: 11, RetailerID: 21},
	}
}

func TestNewOrder_DerivesTotal(t *testing.T) {
	order, err := NewOrder(7, testLines())
	require.NoError(t, err)
	assert.Equal(t, int64(1300), order.TotalCents)
	assert.Equal(t, StatusPlaced, order.Status)
	assert.Nil(t, order.DistributorID)
}

func TestNewOrder_RejectsEmptyAndInvalid(t *testing.T) {
	_, err := NewOrder(7, nil)
	assert.ErrorIs(t, err, ErrOrderHasNoLines)

	_, err = NewOrder(0, testLines())
	assert.ErrorIs(t, err, ErrInvalidCustomer)

	_, err = NewOrder(7, []OrderLine{{ProductID: 1, Quantity: 0, UnitPriceCents: 100}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestOrder_HappyPathTransitions(t *testing.T) {
	order, err := NewOrder(7, testLines())
	require.NoError(t, err)

	require.NoError(t, order.Confirm())
	assert.Equal(t, StatusConfirmed, order.Status)

	require.NoError(t, order.Pack(5))
	assert.Equal(t, StatusPacked, order.Status)
	require.NotNil(t, order.DistributorID)
	assert.Equal(t, int64(5), *order.DistributorID)

	require.NoError(t, order.Ship())
	require.NoError(t, order.Deliver())
	assert.Equal(t, StatusDelivered, order.Status)
	assert.True(t, order.Terminal())
}

func TestOrder_IllegalEdgesLeaveStatusUnchanged(t *testing.T) {
	cases := []struct {
		name   string
		from   Status
		mutate func(*Order) error
	}{
		{"confirm from confirmed", StatusConfirmed, func(o *Order) error { return o.Confirm() }},
		{"confirm from cancelled", StatusCancelled, func(o *Order) error { return o.Confirm() }},
		{"pack from placed", StatusPlaced, func(o *Order) error { return o.Pack(5) }},
		{"pack from shipped", StatusShipped, func(o *Order) error { return o.Pack(5) }},
		{"ship from confirmed", StatusConfirmed, func(o *Order) error { return o.Ship() }},
		{"deliver from packed", StatusPacked, func(o *Order) error { return o.Deliver() }},
		{"cancel from delivered", StatusDelivered, func(o *Order) error { return o.Cancel() }},
		{"cancel from cancelled", StatusCancelled, func(o *Order) error { return o.Cancel() }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := &Order{Status: tc.from}
			err := tc.mutate(order)
			assert.ErrorIs(t, err, ErrIllegalTransition)
			assert.Equal(t, tc.from, order.Status)
		})
	}
}

func TestOrder_PackRejectsInvalidDistributor(t *testing.T) {
	order := &Order{Status: StatusConfirmed}
	err := order.Pack(0)
	assert.ErrorIs(t, err, ErrInvalidAssignment)
	assert.Equal(t, StatusConfirmed, order.Status)
	assert.Nil(t, order.DistributorID)
}

func TestOrder_CancelFromEveryNonTerminalState(t *testing.T) {
	for _, from := range []Status{StatusPlaced, StatusConfirmed, StatusPacked, StatusShipped} {
		order := &Order{Status: from}
		require.NoError(t, order.Cancel(), "cancel from %s", from)
		assert.Equal(t, StatusCancelled, order.Status)
	}
}

func TestOrder_DerivedAssociations(t *testing.T) {
	order := &Order{Lines: []OrderLine{
		{FarmerID: 11, RetailerID: 21},
		{FarmerID: 10, RetailerID: 20},
		{FarmerID: 10, RetailerID: 21},
	}}
	assert.Equal(t, []int64{10, 11}, order.FarmerIDs())
	assert.Equal(t, []int64{20, 21}, order.RetailerIDs())
}

func TestProduct_Sellable(t *testing.T) {
	farmer, retailer := int64(10), int64(20)

	ok := &Product{ID: 1, PriceCents: 100, FarmerID: &farmer, RetailerID: &retailer}
	assert.NoError(t, ok.Sellable())

	noFarmer := &Product{ID: 1, PriceCents: 100, RetailerID: &retailer}
	assert.ErrorIs(t, noFarmer.Sellable(), ErrProductNotSellable)

	freebie := &Product{ID: 1, PriceCents: 0, FarmerID: &farmer, RetailerID: &retailer}
	assert.ErrorIs(t, freebie.Sellable(), ErrInvalidPrice)
}
