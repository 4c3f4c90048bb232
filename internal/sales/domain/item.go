package domain

import "github.com/shopspring/decimal"

// Item is one product line in a transaction. Name, price and tax rate are
// snapshots taken from the catalog when the line is added, so later catalog
// edits never change an open cart.
type Item struct {
	ID           string
	ProductID    string
	SKU          string
	Name         string
	UnitPrice    decimal.Decimal
	TaxRate      decimal.Decimal
	Quantity     int
	LineDiscount *Discount
}

// Subtotal is unit price times quantity, before any discount or tax.
func (i Item) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i Item) clone() Item {
	c := i
	if i.LineDiscount != nil {
		d := *i.LineDiscount
		c.LineDiscount = &d
	}
	return c
}
