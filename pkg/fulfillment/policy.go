package fulfillment

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidQuantity indicates a non-positive requested quantity.
	ErrInvalidQuantity = errors.New("quantity must be a positive number")
	// ErrInsufficientStock indicates the requested reservation exceeds the
	// available stock.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Plan describes the stock movement a transition requires. A positive Delta
// reserves stock, a negative Delta releases it.
type Plan struct {
	Delta      int
	TotalPrice decimal.Decimal
}

// PlanCreate validates a new reservation against the observed stock and
// prices it at the current unit price.
func PlanCreate(requested, stock int, unitPrice decimal.Decimal) (Plan, error) {
	if requested <= 0 {
		return Plan{}, ErrInvalidQuantity
	}
	if stock < requested {
		return Plan{}, ErrInsufficientStock
	}
	return Plan{
		Delta:      requested,
		TotalPrice: unitPrice.Mul(decimal.NewFromInt(int64(requested))),
	}, nil
}

// PlanResize computes the stock movement for changing an existing
// reservation. Growing needs the difference to be in stock; shrinking always
// succeeds, including the zero-delta resize to the current quantity.
func PlanResize(existing, requested, stock int) (Plan, error) {
	if requested <= 0 {
		return Plan{}, ErrInvalidQuantity
	}
	delta := requested - existing
	if delta > 0 && stock < delta {
		return Plan{}, ErrInsufficientStock
	}
	return Plan{Delta: delta}, nil
}

// PlanCancel releases the full reservation. It cannot fail.
func PlanCancel(existing int) Plan {
	return Plan{Delta: -existing}
}
