// Package catalog fetches product snapshots from the catalog service. The
// cart stores carry denormalized snapshots, so the storefront looks a
// product up right before every add so prices and stock are current at
// mutation time.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/hanaflu/techzone/internal/domain"
)

var ErrProductNotFound = errors.New("product not found")

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   5 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *Client) GetProduct(ctx context.Context, productID string) (domain.ProductSnapshot, error) {
	var product domain.ProductSnapshot

	url := fmt.Sprintf("%s/api/v1/products/%s", c.baseURL, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return product, fmt.Errorf("failed to build product request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return product, fmt.Errorf("failed to fetch product %s: %w", productID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return product, ErrProductNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return product, fmt.Errorf("catalog returned status %d for product %s", resp.StatusCode, productID)
	}

	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return product, fmt.Errorf("failed to decode product %s: %w", productID, err)
	}
	return product, nil
}
