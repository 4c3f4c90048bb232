package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleCompleted is the journal record produced by a successful checkout.
// Monetary fields keep full precision except Total, which is already
// rounded to the currency precision.
type SaleCompleted struct {
	TransactionID string          `json:"transaction_id"`
	Name          string          `json:"name"`
	Lines         []SaleLine      `json:"lines"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	Currency      string          `json:"currency"`
	CompletedAt   time.Time       `json:"completed_at"`
}

// SaleLine carries the Discount a line ended up with, including its
// prorated share of any order discount.
type SaleLine struct {
	ProductID string          `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Discount  decimal.Decimal `json:"discount"`
	Tax       decimal.Decimal `json:"tax"`
}

// SaleVoided records a discarded tab for the audit trail.
type SaleVoided struct {
	TransactionID string    `json:"transaction_id"`
	Name          string    `json:"name"`
	Reason        string    `json:"reason"`
	ItemCount     int       `json:"item_count"`
	VoidedAt      time.Time `json:"voided_at"`
}
