package domain

import "errors"

var (
	ErrProductNotSellable = errors.New("product is missing a farmer or retailer association")
	ErrInvalidPrice       = errors.New("product price must be greater than zero")
)

// Product is the catalog collaborator's entity, referenced read-only at
// checkout. Only its available quantity is mutated here, through the
// inventory ledger.
type Product struct {
	ID         int64
	Quantity   int32
	PriceCents int64
	FarmerID   *int64
	RetailerID *int64
}

// Sellable verifies the product can back an order line: both ownership
// associations present and a positive price.
func (p *Product) Sellable() error {
	if p.FarmerID == nil || p.RetailerID == nil {
		return ErrProductNotSellable
	}
	if p.PriceCents <= 0 {
		return ErrInvalidPrice
	}
	return nil
}
