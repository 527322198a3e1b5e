package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"stockflow/pkg/inventory"
)

func TestGetProduct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products/p1" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"id": "p1", "name": "Widget", "price": "9.99", "quantity": 10})
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	p, err := c.GetProduct(context.Background(), "p1")
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if p.Quantity != 10 || p.Price.String() != "9.99" {
		t.Fatalf("unexpected product: %+v", p)
	}

	if _, err := c.GetProduct(context.Background(), "missing"); !errors.Is(err, inventory.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAdjustStockStatusMapping(t *testing.T) {
	var got inventory.Adjustment
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(status)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	adj := inventory.NewAdjustment("p1", -2)
	if err := c.AdjustStock(context.Background(), adj); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if got.Delta != -2 || got.Token != adj.Token {
		t.Fatalf("server saw %+v, want delta -2 token %s", got, adj.Token)
	}

	status = http.StatusConflict
	if err := c.AdjustStock(context.Background(), adj); !errors.Is(err, inventory.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	status = http.StatusNotFound
	if err := c.AdjustStock(context.Background(), adj); !errors.Is(err, inventory.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	status = http.StatusInternalServerError
	if err := c.AdjustStock(context.Background(), adj); !errors.Is(err, inventory.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := New(Config{BaseURL: srv.URL})
	if _, err := c.GetProduct(context.Background(), "p1"); !errors.Is(err, inventory.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if err := c.AdjustStock(context.Background(), inventory.NewAdjustment("p1", 1)); !errors.Is(err, inventory.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
