package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"stockflow/pkg/order"
)

func TestRepository(t *testing.T) {
	ctx := context.Background()
	repo := New()
	o := order.Order{ID: "1", ProductID: "p1", Quantity: 2, TotalPrice: decimal.NewFromInt(20)}
	if err := repo.Create(ctx, o); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := repo.Get(ctx, "1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ProductID != "p1" || got.Quantity != 2 {
		t.Fatalf("unexpected order: %+v", got)
	}
	o.Quantity = 5
	if err := repo.Update(ctx, o); err != nil {
		t.Fatalf("update: %v", err)
	}
	list, err := repo.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v len=%d", err, len(list))
	}
	if list[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", list[0].Quantity)
	}
	if err := repo.Delete(ctx, "1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, "1"); err != order.ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Update(ctx, o); err != order.ErrNotFound {
		t.Fatalf("expected ErrNotFound on update of missing order, got %v", err)
	}
	if err := repo.Delete(ctx, "1"); err != order.ErrNotFound {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}
