package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client reads a remote catalog service over REST. Lookups fail fast: the
// register would rather report the catalog as unavailable than hang a
// checkout behind a dead upstream.
type Client struct {
	base string
	http *http.Client
	log  *slog.Logger
}

func NewClient(base string, timeout time.Duration, log *slog.Logger) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: timeout},
		log:  log,
	}
}

func (c *Client) GetProduct(ctx context.Context, id string) (Product, error) {
	var p Product
	err := c.getJSON(ctx, fmt.Sprintf("%s/v1/catalog/products/%s", c.base, url.PathEscape(id)), &p)
	return p, err
}

func (c *Client) LookupByBarcode(ctx context.Context, code string) (Product, error) {
	var p Product
	err := c.getJSON(ctx, fmt.Sprintf("%s/v1/catalog/products?barcode=%s", c.base, url.QueryEscape(code)), &p)
	return p, err
}

func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var ps []Product
	err := c.getJSON(ctx, c.base+"/v1/catalog/products", &ps)
	return ps, err
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("catalog request failed", "url", u, "err", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		c.log.Warn("catalog responded with error", "url", u, "status", resp.StatusCode)
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return nil
}
