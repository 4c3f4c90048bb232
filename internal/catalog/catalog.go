package catalog

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry as the register sees it. TaxRate is nil when
// the product carries no rate of its own and the store default applies.
type Product struct {
	ID             string           `json:"id"`
	SKU            string           `json:"sku"`
	Name           string           `json:"name"`
	Barcode        string           `json:"barcode,omitempty"`
	UnitPrice      decimal.Decimal  `json:"unit_price"`
	TaxRate        *decimal.Decimal `json:"tax_rate,omitempty"`
	Active         bool             `json:"active"`
	TrackInventory bool             `json:"track_inventory"`
	Stock          int              `json:"stock"`
}

var (
	ErrNotFound    = errors.New("product not found")
	ErrUnavailable = errors.New("catalog unavailable")
)

// Service is the narrow lookup surface the register depends on. It is
// implemented by the in-memory store, the HTTP client and the caching
// wrapper, so deployments can mix them freely.
type Service interface {
	GetProduct(ctx context.Context, id string) (Product, error)
	LookupByBarcode(ctx context.Context, code string) (Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
}
