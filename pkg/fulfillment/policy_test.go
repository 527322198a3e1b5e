package fulfillment

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPlanCreate(t *testing.T) {
	price := decimal.RequireFromString("9.99")

	plan, err := PlanCreate(4, 10, price)
	if err != nil {
		t.Fatalf("plan create: %v", err)
	}
	if plan.Delta != 4 {
		t.Fatalf("expected delta 4, got %d", plan.Delta)
	}
	if want := decimal.RequireFromString("39.96"); !plan.TotalPrice.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, plan.TotalPrice)
	}

	if _, err := PlanCreate(6, 5, price); err != ErrInsufficientStock {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if _, err := PlanCreate(0, 5, price); err != ErrInvalidQuantity {
		t.Fatalf("expected ErrInvalidQuantity for zero, got %v", err)
	}
	if _, err := PlanCreate(-1, 5, price); err != ErrInvalidQuantity {
		t.Fatalf("expected ErrInvalidQuantity for negative, got %v", err)
	}

	// Exact depletion is allowed.
	if _, err := PlanCreate(5, 5, price); err != nil {
		t.Fatalf("expected full-stock create to succeed, got %v", err)
	}
}

func TestPlanResize(t *testing.T) {
	grow, err := PlanResize(4, 7, 6)
	if err != nil {
		t.Fatalf("grow: %v", err)
	}
	if grow.Delta != 3 {
		t.Fatalf("expected delta 3, got %d", grow.Delta)
	}

	if _, err := PlanResize(4, 7, 2); err != ErrInsufficientStock {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	// Shrinking never needs stock, even at zero availability.
	shrink, err := PlanResize(7, 2, 0)
	if err != nil {
		t.Fatalf("shrink: %v", err)
	}
	if shrink.Delta != -5 {
		t.Fatalf("expected delta -5, got %d", shrink.Delta)
	}

	same, err := PlanResize(4, 4, 0)
	if err != nil {
		t.Fatalf("no-op resize must succeed: %v", err)
	}
	if same.Delta != 0 {
		t.Fatalf("expected delta 0, got %d", same.Delta)
	}

	if _, err := PlanResize(4, 0, 10); err != ErrInvalidQuantity {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestPlanCancel(t *testing.T) {
	if plan := PlanCancel(7); plan.Delta != -7 {
		t.Fatalf("expected delta -7, got %d", plan.Delta)
	}
}
