package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type DiscountKind string

const (
	DiscountPercent DiscountKind = "percent"
	DiscountAmount  DiscountKind = "amount"
)

// Discount is a price reduction scoped to a single line or to the whole
// order, depending on where it is stored.
type Discount struct {
	Kind  DiscountKind
	Value decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// Validate checks the discount shape against the subtotal it applies to:
// percentages must sit in [0,100], fixed amounts must be non-negative and
// no larger than the subtotal.
func (d Discount) Validate(base decimal.Decimal) error {
	switch d.Kind {
	case DiscountPercent:
		if d.Value.IsNegative() || d.Value.GreaterThan(hundred) {
			return fmt.Errorf("%w: percentage %s outside [0,100]", ErrInvalidDiscount, d.Value)
		}
	case DiscountAmount:
		if d.Value.IsNegative() {
			return fmt.Errorf("%w: amount %s is negative", ErrInvalidDiscount, d.Value)
		}
		if d.Value.GreaterThan(base) {
			return fmt.Errorf("%w: amount %s exceeds subtotal %s", ErrInvalidDiscount, d.Value, base)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidDiscount, d.Kind)
	}
	return nil
}

// Resolve returns the monetary value of the discount against base, clamped
// to [0, base] so it can never push a subtotal negative.
func (d Discount) Resolve(base decimal.Decimal) decimal.Decimal {
	var v decimal.Decimal
	switch d.Kind {
	case DiscountPercent:
		v = base.Mul(d.Value).Div(hundred)
	case DiscountAmount:
		v = d.Value
	default:
		return decimal.Zero
	}
	if v.IsNegative() {
		return decimal.Zero
	}
	if v.GreaterThan(base) {
		return base
	}
	return v
}
