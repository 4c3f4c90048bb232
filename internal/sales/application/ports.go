package application

import (
	"context"

	"github.com/tillworks/register-engine/internal/catalog"
	"github.com/tillworks/register-engine/internal/sales/domain"
	"github.com/tillworks/register-engine/internal/settings"
)

// Catalog is the slice of the product catalog the register needs: direct
// lookup for the product grid and barcode resolution for the scanner.
type Catalog interface {
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
	LookupByBarcode(ctx context.Context, code string) (catalog.Product, error)
}

// TaxConfigSource supplies the active tax defaults and currency precision.
// It is read once per calculation, so admin changes apply to the next
// total, never mid-computation.
type TaxConfigSource interface {
	Active() settings.TaxConfig
}

// SalesLedger persists finished transactions. The engine never reads it
// back; a failed write aborts the checkout or void that triggered it.
type SalesLedger interface {
	RecordSale(ctx context.Context, sale domain.SaleCompleted) error
	RecordVoid(ctx context.Context, v domain.SaleVoided) error
}
