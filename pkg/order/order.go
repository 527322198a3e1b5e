package order

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Order represents a committed stock reservation for a single product.
// TotalPrice is fixed at creation from the unit price observed then; later
// quantity changes do not recompute it.
type Order struct {
	ID         string          `json:"id"`
	ProductID  string          `json:"productId"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// Repository defines behavior for persisting orders.
type Repository interface {
	Create(ctx context.Context, o Order) error
	Get(ctx context.Context, id string) (Order, error)
	List(ctx context.Context) ([]Order, error)
	Update(ctx context.Context, o Order) error
	Delete(ctx context.Context, id string) error
}

// ErrNotFound indicates the requested order does not exist.
var ErrNotFound = errors.New("order not found")
