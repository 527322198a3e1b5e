// Package inventory defines the client contract for the remote inventory
// service that owns product stock and pricing.
package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the inventory service's view of a product.
type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// Adjustment is a signed change to a product's available stock. A positive
// Delta reserves stock, a negative Delta releases it. Token identifies the
// logical adjustment so the service can drop a duplicate delivery; retries of
// the same adjustment must carry the same Token.
type Adjustment struct {
	ProductID string `json:"productId"`
	Delta     int    `json:"delta"`
	Token     string `json:"token"`
}

// NewAdjustment mints an adjustment with a fresh idempotency token.
func NewAdjustment(productID string, delta int) Adjustment {
	return Adjustment{ProductID: productID, Delta: delta, Token: uuid.NewString()}
}

// Inverse returns the compensating adjustment, under a new token.
func (a Adjustment) Inverse() Adjustment {
	return NewAdjustment(a.ProductID, -a.Delta)
}

// Client queries and adjusts stock on the inventory service.
type Client interface {
	// GetProduct returns the product's current price and available quantity.
	GetProduct(ctx context.Context, productID string) (Product, error)
	// AdjustStock applies the adjustment. ErrConflict means the service
	// refused it, e.g. the delta would drive available stock negative.
	AdjustStock(ctx context.Context, adj Adjustment) error
}

var (
	// ErrNotFound indicates the product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrUnavailable indicates a transport-level failure talking to the
	// inventory service. Safe to retry.
	ErrUnavailable = errors.New("inventory service unavailable")
	// ErrConflict indicates the service rejected an adjustment. Decisive,
	// never retried.
	ErrConflict = errors.New("stock adjustment conflict")
)
