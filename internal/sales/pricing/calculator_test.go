package pricing

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tillworks/register-engine/internal/sales/domain"
)

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func line(id, price string, qty int, rate string) domain.Item {
	return domain.Item{
		ID:        id,
		ProductID: "p-" + id,
		UnitPrice: money(price),
		TaxRate:   money(rate),
		Quantity:  qty,
	}
}

func cart(items ...domain.Item) *domain.Transaction {
	tx := domain.NewTransaction("Tab 1")
	tx.Items = items
	return tx
}

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(money(want)), "want %s got %s", want, got)
}

func TestCalculateRoundsOnlyTheGrandTotal(t *testing.T) {
	tx := cart(line("l1", "19.99", 3, "0.08"))

	got := Calculate(tx, Options{Precision: 2})

	assertMoney(t, "59.97", got.Subtotal)
	assertMoney(t, "4.7976", got.Tax)
	assertMoney(t, "64.77", got.GrandTotal)
	require.Len(t, got.Lines, 1)
	assertMoney(t, "4.7976", got.Lines[0].Tax)
}

func TestCalculateProratesOrderDiscount(t *testing.T) {
	tx := cart(
		line("l1", "10.00", 1, "0"),
		line("l2", "30.00", 1, "0"),
	)
	tx.OrderDiscount = &domain.Discount{Kind: domain.DiscountPercent, Value: money("10")}

	got := Calculate(tx, Options{Precision: 2})

	assertMoney(t, "4.00", got.Discount)
	assertMoney(t, "1.00", got.Lines[0].Discount)
	assertMoney(t, "3.00", got.Lines[1].Discount)
	assertMoney(t, "36.00", got.GrandTotal)
}

func TestCalculateProrationSumsExactly(t *testing.T) {
	tx := cart(
		line("l1", "10.00", 1, "0"),
		line("l2", "10.00", 1, "0"),
		line("l3", "10.00", 1, "0"),
	)
	tx.OrderDiscount = &domain.Discount{Kind: domain.DiscountAmount, Value: money("10.00")}

	got := Calculate(tx, Options{Precision: 2})

	sum := decimal.Zero
	for _, l := range got.Lines {
		sum = sum.Add(l.Discount)
	}
	assertMoney(t, "10.00", sum)
	assertMoney(t, "10.00", got.Discount)
}

func TestCalculateCapsOrderDiscountAtSubtotal(t *testing.T) {
	tx := cart(line("l1", "5.00", 1, "0.08"))
	tx.OrderDiscount = &domain.Discount{Kind: domain.DiscountAmount, Value: money("10.00")}

	got := Calculate(tx, Options{Precision: 2})

	assertMoney(t, "5.00", got.Discount)
	assertMoney(t, "0", got.Tax)
	assertMoney(t, "0.00", got.GrandTotal)
	assert.False(t, got.GrandTotal.IsNegative())
}

func TestCalculateCapsStackedDiscounts(t *testing.T) {
	it := line("l1", "10.00", 1, "0.08")
	it.LineDiscount = &domain.Discount{Kind: domain.DiscountPercent, Value: money("100")}
	tx := cart(it)
	tx.OrderDiscount = &domain.Discount{Kind: domain.DiscountAmount, Value: money("5.00")}

	got := Calculate(tx, Options{Precision: 2})

	assertMoney(t, "10.00", got.Discount)
	assertMoney(t, "0", got.Tax)
	assertMoney(t, "0.00", got.GrandTotal)
}

func TestCalculateFloorsLineTaxBaseAtZero(t *testing.T) {
	over := line("l1", "10.00", 1, "0.10")
	over.LineDiscount = &domain.Discount{Kind: domain.DiscountAmount, Value: money("10.00")}
	tx := cart(over, line("l2", "30.00", 1, "0.10"))
	tx.OrderDiscount = &domain.Discount{Kind: domain.DiscountAmount, Value: money("4.00")}

	got := Calculate(tx, Options{Precision: 2})

	// l1 absorbs 1.00 of the proration on top of its full line discount;
	// its tax base floors at zero instead of going negative.
	assertMoney(t, "0", got.Lines[0].Tax)
	assertMoney(t, "2.70", got.Lines[1].Tax)
	assertMoney(t, "14.00", got.Discount)
	assertMoney(t, "28.70", got.GrandTotal)
}

func TestCalculateEmptyCart(t *testing.T) {
	got := Calculate(cart(), Options{Precision: 2})

	assertMoney(t, "0", got.Subtotal)
	assertMoney(t, "0", got.Discount)
	assertMoney(t, "0", got.Tax)
	assertMoney(t, "0", got.GrandTotal)
	assert.Zero(t, got.ItemCount)
	assert.Empty(t, got.Lines)
}

func TestCalculateItemCountSumsQuantities(t *testing.T) {
	tx := cart(
		line("l1", "2.50", 3, "0"),
		line("l2", "4.25", 4, "0"),
	)
	got := Calculate(tx, Options{Precision: 2})
	assert.Equal(t, 7, got.ItemCount)
}

func TestCalculateThreeDecimalCurrency(t *testing.T) {
	tx := cart(line("l1", "1.0005", 1, "0"))

	got := Calculate(tx, Options{Precision: 3})

	assertMoney(t, "1.001", got.GrandTotal)
	assertMoney(t, "1.001", got.Display().Subtotal)
}

func TestCalculateIdentityWithinOneRoundingUnit(t *testing.T) {
	carts := []*domain.Transaction{
		cart(line("l1", "0.10", 3, "0.07"), line("l2", "0.20", 1, "0.19")),
		cart(line("l1", "33.33", 1, "0.0825"), line("l2", "66.67", 2, "0.0825")),
		cart(line("l1", "1.99", 7, "0.21")),
	}
	carts[0].OrderDiscount = &domain.Discount{Kind: domain.DiscountPercent, Value: money("33.333")}
	carts[1].OrderDiscount = &domain.Discount{Kind: domain.DiscountAmount, Value: money("17.53")}

	unit := money("0.01")
	for i, tx := range carts {
		t.Run(fmt.Sprintf("cart_%d", i), func(t *testing.T) {
			got := Calculate(tx, Options{Precision: 2})
			raw := got.Subtotal.Sub(got.Discount).Add(got.Tax)
			diff := raw.Sub(got.GrandTotal).Abs()
			assert.True(t, diff.LessThanOrEqual(unit),
				"grand total %s drifts %s from identity", got.GrandTotal, diff)
		})
	}
}

func TestDisplayRoundsComponents(t *testing.T) {
	tx := cart(line("l1", "19.99", 3, "0.08"))

	disp := Calculate(tx, Options{Precision: 2}).Display()

	assertMoney(t, "59.97", disp.Subtotal)
	assertMoney(t, "4.80", disp.Tax)
	assertMoney(t, "64.77", disp.GrandTotal)
	assert.Equal(t, 3, disp.ItemCount)
}
