// Package fulfillment coordinates order lifecycle transitions against the
// remote inventory service. Stock is always adjusted before the order record
// is mutated; a failed mutation is undone with a compensating adjustment, so
// a partial failure under-sells rather than over-sells.
package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"stockflow/pkg/inventory"
	"stockflow/pkg/logger"
	"stockflow/pkg/order"
	"stockflow/pkg/otel"
)

// compensateTimeout bounds the compensating adjustment, which runs detached
// from the caller's context.
const compensateTimeout = 10 * time.Second

// RepositoryError wraps an order persistence failure that occurred after
// stock was adjusted. The adjustment was compensated; no order mutation took
// effect.
type RepositoryError struct {
	Transition string
	Err        error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("order %s failed after stock was compensated: %v", e.Transition, e.Err)
}

func (e *RepositoryError) Unwrap() error { return e.Err }

// CompensationFailedError reports that a commit failure could not be undone:
// stock was adjusted, the order mutation failed, and the compensating
// adjustment also failed. The inventory balance needs manual reconciliation.
type CompensationFailedError struct {
	Transition    string
	ProductID     string
	Delta         int
	Cause         error
	CompensateErr error
}

func (e *CompensationFailedError) Error() string {
	return fmt.Sprintf("compensation failed for %s of product %s (delta %+d): %v; original failure: %v",
		e.Transition, e.ProductID, e.Delta, e.CompensateErr, e.Cause)
}

func (e *CompensationFailedError) Unwrap() error { return e.CompensateErr }

// Coordinator drives each order transition through the two-step protocol:
// check stock, adjust stock, commit the order record, compensating the
// adjustment when the commit fails. It holds no cross-invocation state;
// concurrent transitions on the same product serialize at the inventory
// service, which rejects an adjustment that would drive stock negative.
type Coordinator struct {
	log  *logger.Logger
	repo order.Repository
	inv  inventory.Client
}

// New creates a coordinator. The inventory client should already wrap retry
// behavior for transient failures.
func New(log *logger.Logger, repo order.Repository, inv inventory.Client) *Coordinator {
	return &Coordinator{log: log, repo: repo, inv: inv}
}

// CreateOrder reserves stock for a new order and persists it. The total
// price is fixed from the unit price observed now.
func (c *Coordinator) CreateOrder(ctx context.Context, productID string, quantity int) (order.Order, error) {
	ctx, span := otel.AddSpan(ctx, "fulfillment.create",
		attribute.String("product_id", productID), attribute.Int("quantity", quantity))
	defer span.End()

	p, err := c.inv.GetProduct(ctx, productID)
	if err != nil {
		return order.Order{}, err
	}
	plan, err := PlanCreate(quantity, p.Quantity, p.Price)
	if err != nil {
		return order.Order{}, err
	}

	o := order.Order{
		ID:         uuid.NewString(),
		ProductID:  productID,
		Quantity:   quantity,
		TotalPrice: plan.TotalPrice,
	}
	if err := c.run(ctx, "create", productID, plan.Delta, func(ctx context.Context) error {
		return c.repo.Create(ctx, o)
	}); err != nil {
		return order.Order{}, err
	}
	return o, nil
}

// ResizeOrder changes an existing order's quantity, reserving or releasing
// the difference. The order's total price is not recomputed.
func (c *Coordinator) ResizeOrder(ctx context.Context, orderID string, quantity int) (order.Order, error) {
	ctx, span := otel.AddSpan(ctx, "fulfillment.resize",
		attribute.String("order_id", orderID), attribute.Int("quantity", quantity))
	defer span.End()

	o, err := c.repo.Get(ctx, orderID)
	if err != nil {
		return order.Order{}, err
	}
	p, err := c.inv.GetProduct(ctx, o.ProductID)
	if err != nil {
		return order.Order{}, err
	}
	plan, err := PlanResize(o.Quantity, quantity, p.Quantity)
	if err != nil {
		return order.Order{}, err
	}

	o.Quantity = quantity
	if err := c.run(ctx, "resize", o.ProductID, plan.Delta, func(ctx context.Context) error {
		return c.repo.Update(ctx, o)
	}); err != nil {
		return order.Order{}, err
	}
	return o, nil
}

// CancelOrder releases the order's full reservation and deletes the record.
// Cancelling an order that does not exist is not an error; it reports that
// nothing was deleted.
func (c *Coordinator) CancelOrder(ctx context.Context, orderID string) (bool, error) {
	ctx, span := otel.AddSpan(ctx, "fulfillment.cancel", attribute.String("order_id", orderID))
	defer span.End()

	o, err := c.repo.Get(ctx, orderID)
	if errors.Is(err, order.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if _, err := c.inv.GetProduct(ctx, o.ProductID); err != nil {
		return false, err
	}
	plan := PlanCancel(o.Quantity)

	if err := c.run(ctx, "cancel", o.ProductID, plan.Delta, func(ctx context.Context) error {
		return c.repo.Delete(ctx, o.ID)
	}); err != nil {
		return false, err
	}
	return true, nil
}

// GetOrder returns a single order.
func (c *Coordinator) GetOrder(ctx context.Context, orderID string) (order.Order, error) {
	return c.repo.Get(ctx, orderID)
}

// ListOrders returns all orders.
func (c *Coordinator) ListOrders(ctx context.Context) ([]order.Order, error) {
	return c.repo.List(ctx)
}

// run executes the adjust-then-commit protocol for one transition. The
// commit runs detached from caller cancellation: once stock has been
// adjusted the protocol must finish or explicitly compensate, never be
// abandoned mid-way. A caller deadline that expired after the adjustment
// takes the compensation path.
func (c *Coordinator) run(ctx context.Context, transition, productID string, delta int, commit func(context.Context) error) error {
	if delta == 0 {
		return commit(ctx)
	}

	adj := inventory.NewAdjustment(productID, delta)
	if err := c.inv.AdjustStock(ctx, adj); err != nil {
		if errors.Is(err, inventory.ErrConflict) {
			// Another transition depleted the stock between check and
			// adjust.
			return ErrInsufficientStock
		}
		return err
	}

	detached := context.WithoutCancel(ctx)
	commitErr := ctx.Err()
	fromRepo := false
	if commitErr == nil {
		commitErr = commit(detached)
		fromRepo = commitErr != nil
	}
	if commitErr == nil {
		return nil
	}

	compCtx, cancel := context.WithTimeout(detached, compensateTimeout)
	defer cancel()
	if err := c.inv.AdjustStock(compCtx, adj.Inverse()); err != nil {
		cf := &CompensationFailedError{
			Transition:    transition,
			ProductID:     productID,
			Delta:         delta,
			Cause:         commitErr,
			CompensateErr: err,
		}
		c.log.Error(ctx, "COMPENSATION FAILED, inventory needs manual reconciliation",
			"transition", transition, "product_id", productID, "delta", delta,
			"commit_error", commitErr, "compensate_error", err)
		return cf
	}

	c.log.Warn(ctx, "order commit failed, stock adjustment compensated",
		"transition", transition, "product_id", productID, "delta", delta, "error", commitErr)
	if fromRepo {
		return &RepositoryError{Transition: transition, Err: commitErr}
	}
	return commitErr
}
