// Package httpclient implements inventory.Client against the product
// service's HTTP API.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"stockflow/pkg/inventory"
)

// Config holds the settings for reaching the product service.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the product service over HTTP.
type Client struct {
	base string
	http *http.Client
}

// New creates a product service client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		base: cfg.BaseURL,
		http: &http.Client{Timeout: timeout},
	}
}

// GetProduct fetches the product's current state.
func (c *Client) GetProduct(ctx context.Context, productID string) (inventory.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/products/"+productID, nil)
	if err != nil {
		return inventory.Product{}, err
	}
	c.inject(ctx, req)

	resp, err := c.http.Do(req)
	if err != nil {
		return inventory.Product{}, fmt.Errorf("get product %s: %w", productID, inventory.ErrUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return inventory.Product{}, inventory.ErrNotFound
	default:
		return inventory.Product{}, fmt.Errorf("get product %s: status %d: %w", productID, resp.StatusCode, inventory.ErrUnavailable)
	}

	var p inventory.Product
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return inventory.Product{}, fmt.Errorf("decode product %s: %w", productID, err)
	}
	return p, nil
}

// AdjustStock posts the signed delta to the product service. The service
// treats the token as an idempotency key and rejects with 409 any delta that
// would drive available stock negative.
func (c *Client) AdjustStock(ctx context.Context, adj inventory.Adjustment) error {
	body, err := json.Marshal(adj)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.base+"/products/"+adj.ProductID+"/adjust", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.inject(ctx, req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("adjust stock %s by %d: %w", adj.ProductID, adj.Delta, inventory.ErrUnavailable)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return inventory.ErrNotFound
	case http.StatusConflict:
		return inventory.ErrConflict
	default:
		return fmt.Errorf("adjust stock %s by %d: status %d: %w", adj.ProductID, adj.Delta, resp.StatusCode, inventory.ErrUnavailable)
	}
}

func (c *Client) inject(ctx context.Context, req *http.Request) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
}
