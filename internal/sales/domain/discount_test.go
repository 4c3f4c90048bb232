package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscountValidate(t *testing.T) {
	base := money("10.00")
	cases := []struct {
		name    string
		d       Discount
		wantErr bool
	}{
		{"percent zero", Discount{Kind: DiscountPercent, Value: money("0")}, false},
		{"percent mid", Discount{Kind: DiscountPercent, Value: money("37.5")}, false},
		{"percent full", Discount{Kind: DiscountPercent, Value: money("100")}, false},
		{"percent negative", Discount{Kind: DiscountPercent, Value: money("-1")}, true},
		{"percent over full", Discount{Kind: DiscountPercent, Value: money("100.01")}, true},
		{"amount zero", Discount{Kind: DiscountAmount, Value: money("0")}, false},
		{"amount at base", Discount{Kind: DiscountAmount, Value: money("10.00")}, false},
		{"amount negative", Discount{Kind: DiscountAmount, Value: money("-0.01")}, true},
		{"amount over base", Discount{Kind: DiscountAmount, Value: money("10.01")}, true},
		{"unknown kind", Discount{Kind: "bogus", Value: money("1")}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.d.Validate(base)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidDiscount)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestDiscountResolve(t *testing.T) {
	base := money("40.00")

	percent := Discount{Kind: DiscountPercent, Value: money("10")}
	assert.True(t, percent.Resolve(base).Equal(money("4.00")))

	amount := Discount{Kind: DiscountAmount, Value: money("12.34")}
	assert.True(t, amount.Resolve(base).Equal(money("12.34")))
}

func TestDiscountResolveClamps(t *testing.T) {
	base := money("5.00")

	over := Discount{Kind: DiscountAmount, Value: money("9.99")}
	assert.True(t, over.Resolve(base).Equal(base), "amount clamps to base")

	neg := Discount{Kind: DiscountAmount, Value: money("-3")}
	assert.True(t, neg.Resolve(base).IsZero(), "negative resolves to zero")
}

func TestItemSubtotal(t *testing.T) {
	it := testItem("espresso", "2.50")
	it.Quantity = 4
	assert.True(t, it.Subtotal().Equal(money("10.00")))
}
