package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-fulfillment-server/internal/domains/fulfillment/domain"
)

var (
	// ErrInvalidInput signals the request violated an input-shape rule and
	// was rejected before any transaction started.
	ErrInvalidInput = errors.New("invalid fulfillment input")
	// ErrEmptyCart rejects a checkout with no lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrCartTooLarge bounds the number of cart lines per checkout. This is
	// a resource-protection limit, not a business rule.
	ErrCartTooLarge = errors.New("cart exceeds the maximum number of lines")
	// ErrCheckoutTimeout reports a checkout that could not acquire its
	// reservations in time. No side effects remain.
	ErrCheckoutTimeout = errors.New("checkout timed out")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, domain.ErrInvalidCustomer) ||
		errors.Is(err, domain.ErrOrderHasNoLines) ||
		errors.Is(err, domain.ErrInvalidStatus) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
