package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/tillworks/register-engine/internal/sales/domain"
)

// Options is the slice of the tax configuration the calculator needs.
type Options struct {
	// Precision is the currency's decimal places (2 or 3). Only the grand
	// total is rounded; every intermediate keeps full precision.
	Precision int32
}

// Totals is the derived money for one transaction. Subtotal, Discount and
// Tax are full precision; GrandTotal is rounded half-up at Precision.
// Totals are always recomputed from the transaction, never stored on it.
type Totals struct {
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	Tax        decimal.Decimal
	GrandTotal decimal.Decimal
	ItemCount  int
	Precision  int32
	Lines      []LineTotals
}

// LineTotals breaks one line down for receipts and tax audits. Discount
// includes the line's prorated share of any order discount.
type LineTotals struct {
	LineID   string
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
}

// DisplayTotals are the four figures rounded for presentation.
type DisplayTotals struct {
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	Tax        decimal.Decimal
	GrandTotal decimal.Decimal
	ItemCount  int
}

// Display rounds the components at Precision. GrandTotal stays as computed:
// rounding it once at the final step is what keeps carts from drifting a
// cent against per-line rounding.
func (t Totals) Display() DisplayTotals {
	return DisplayTotals{
		Subtotal:   t.Subtotal.Round(t.Precision),
		Discount:   t.Discount.Round(t.Precision),
		Tax:        t.Tax.Round(t.Precision),
		GrandTotal: t.GrandTotal,
		ItemCount:  t.ItemCount,
	}
}

// Calculate derives all monetary figures for tx in one pass.
//
// The order discount resolves against the full subtotal, is clamped so the
// combined discount never exceeds the subtotal, and is prorated across
// lines by their share of the subtotal. Tax applies per line to the net
// base after all discounts, floored at zero.
func Calculate(tx *domain.Transaction, opts Options) Totals {
	t := Totals{
		Subtotal:  decimal.Zero,
		Discount:  decimal.Zero,
		Tax:       decimal.Zero,
		Precision: opts.Precision,
	}
	lines := make([]LineTotals, len(tx.Items))

	lineDiscTotal := decimal.Zero
	for i, it := range tx.Items {
		sub := it.Subtotal()
		disc := decimal.Zero
		if it.LineDiscount != nil {
			disc = it.LineDiscount.Resolve(sub)
		}
		lines[i] = LineTotals{LineID: it.ID, Subtotal: sub, Discount: disc}
		t.Subtotal = t.Subtotal.Add(sub)
		lineDiscTotal = lineDiscTotal.Add(disc)
		t.ItemCount += it.Quantity
	}

	orderDisc := decimal.Zero
	if tx.OrderDiscount != nil {
		orderDisc = tx.OrderDiscount.Resolve(t.Subtotal)
		if remaining := t.Subtotal.Sub(lineDiscTotal); orderDisc.GreaterThan(remaining) {
			orderDisc = remaining
		}
	}

	// The last line takes the remainder so the prorated shares sum to the
	// order discount exactly.
	if orderDisc.IsPositive() && t.Subtotal.IsPositive() {
		distributed := decimal.Zero
		for i := range lines {
			var share decimal.Decimal
			if i == len(lines)-1 {
				share = orderDisc.Sub(distributed)
			} else {
				share = orderDisc.Mul(lines[i].Subtotal).Div(t.Subtotal)
				distributed = distributed.Add(share)
			}
			lines[i].Discount = lines[i].Discount.Add(share)
		}
	}

	for i, it := range tx.Items {
		base := lines[i].Subtotal.Sub(lines[i].Discount)
		if base.IsNegative() {
			base = decimal.Zero
		}
		lines[i].Tax = base.Mul(it.TaxRate)
		t.Tax = t.Tax.Add(lines[i].Tax)
	}

	t.Discount = lineDiscTotal.Add(orderDisc)
	t.GrandTotal = t.Subtotal.Sub(t.Discount).Add(t.Tax).Round(opts.Precision)
	t.Lines = lines
	return t
}
