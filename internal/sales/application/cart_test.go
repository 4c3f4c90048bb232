package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tillworks/register-engine/internal/sales/domain"
)

func TestAddProductSnapshotsPriceAndTax(t *testing.T) {
	m, _, _ := newTestManager(t)

	item, err := m.AddProduct(context.Background(), "", "latte", 1)
	require.NoError(t, err)

	assert.True(t, item.UnitPrice.Equal(money("4.25")))
	assert.True(t, item.TaxRate.Equal(money("0.05")), "product rate wins over the default")

	other, err := m.AddProduct(context.Background(), "", "espresso", 1)
	require.NoError(t, err)
	assert.True(t, other.TaxRate.Equal(money("0.08")), "no product rate falls back to the default")
}

func TestAddProductMergesIntoExistingLine(t *testing.T) {
	m, _, _ := newTestManager(t)

	first, err := m.AddProduct(context.Background(), "", "espresso", 2)
	require.NoError(t, err)
	second, err := m.AddProduct(context.Background(), "", "espresso", 3)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Quantity)
	require.Len(t, m.Snapshot().Active.Items, 1)
}

func TestAddProductKeepsOldSnapshotAfterReprice(t *testing.T) {
	m, cat, _ := newTestManager(t)

	_, err := m.AddProduct(context.Background(), "", "espresso", 1)
	require.NoError(t, err)

	p := cat.products["espresso"]
	p.UnitPrice = money("2.75")
	cat.products["espresso"] = p

	_, err = m.AddProduct(context.Background(), "", "espresso", 1)
	require.NoError(t, err)

	items := m.Snapshot().Active.Items
	require.Len(t, items, 2, "a changed price opens a new line instead of merging")
	assert.True(t, items[0].UnitPrice.Equal(money("2.50")), "the old line keeps its captured price")
	assert.True(t, items[1].UnitPrice.Equal(money("2.75")))
}

func TestAddProductUnknown(t *testing.T) {
	m, _, _ := newTestManager(t)
	_, err := m.AddProduct(context.Background(), "", "missing", 1)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddProductInactive(t *testing.T) {
	m, _, _ := newTestManager(t)
	_, err := m.AddProduct(context.Background(), "", "mug", 1)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddProductCatalogDown(t *testing.T) {
	m, cat, _ := newTestManager(t)
	cat.err = errors.New("connection refused")

	_, err := m.AddProduct(context.Background(), "", "espresso", 1)
	require.ErrorIs(t, err, domain.ErrCatalogUnavailable)
	assert.Empty(t, m.Snapshot().Active.Items)
}

func TestAddProductInvalidQuantity(t *testing.T) {
	m, _, _ := newTestManager(t)
	_, err := m.AddProduct(context.Background(), "", "espresso", 0)
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestAddProductToVoidedTabRejected(t *testing.T) {
	m, _, _ := newTestManager(t)
	id := m.Snapshot().ActiveID
	require.NoError(t, m.Void(context.Background(), id, ""))

	_, err := m.AddProduct(context.Background(), id, "espresso", 1)
	require.ErrorIs(t, err, domain.ErrNotMutable)
}

func TestCartCommandsAddressExplicitTab(t *testing.T) {
	m, _, _ := newTestManager(t)
	first := m.Snapshot().ActiveID
	second := m.Create()
	require.NoError(t, m.SetActive(second.ID))

	_, err := m.AddProduct(context.Background(), first, "espresso", 1)
	require.NoError(t, err)

	firstDetail, err := m.Transaction(first)
	require.NoError(t, err)
	assert.Len(t, firstDetail.Items, 1)
	assert.Empty(t, m.Snapshot().Active.Items, "the focused tab stays untouched")
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	m, _, _ := newTestManager(t)
	item, err := m.AddProduct(context.Background(), "", "espresso", 2)
	require.NoError(t, err)

	require.NoError(t, m.UpdateQuantity("", item.ID, 0))

	v := m.Snapshot()
	assert.Empty(t, v.Active.Items)
	assert.True(t, v.Active.Totals.GrandTotal.IsZero())
	assert.Zero(t, v.Active.Totals.ItemCount)
}

func TestUpdateQuantityUnknownLine(t *testing.T) {
	m, _, _ := newTestManager(t)
	require.ErrorIs(t, m.UpdateQuantity("", "missing", 2), domain.ErrNotFound)
}

func TestRemoveItem(t *testing.T) {
	m, _, _ := newTestManager(t)
	item, err := m.AddProduct(context.Background(), "", "espresso", 2)
	require.NoError(t, err)

	require.NoError(t, m.RemoveItem("", item.ID))
	assert.Empty(t, m.Snapshot().Active.Items)
}

func TestClearCartDropsDiscountToo(t *testing.T) {
	m, _, _ := newTestManager(t)
	_, err := m.AddProduct(context.Background(), "", "espresso", 4)
	require.NoError(t, err)
	require.NoError(t, m.ApplyOrderDiscount("", &domain.Discount{Kind: domain.DiscountAmount, Value: money("1.00")}))

	require.NoError(t, m.ClearCart(""))

	v := m.Snapshot()
	assert.Empty(t, v.Active.Items)
	assert.True(t, v.Active.Totals.Discount.IsZero())
	assert.True(t, v.Active.Totals.GrandTotal.IsZero())
}

func TestApplyOrderDiscountValidation(t *testing.T) {
	m, _, _ := newTestManager(t)
	_, err := m.AddProduct(context.Background(), "", "espresso", 4) // subtotal 10.00
	require.NoError(t, err)

	err = m.ApplyOrderDiscount("", &domain.Discount{Kind: domain.DiscountPercent, Value: money("101")})
	require.ErrorIs(t, err, domain.ErrInvalidDiscount)

	err = m.ApplyOrderDiscount("", &domain.Discount{Kind: domain.DiscountAmount, Value: money("10.01")})
	require.ErrorIs(t, err, domain.ErrInvalidDiscount)

	require.NoError(t, m.ApplyOrderDiscount("", &domain.Discount{Kind: domain.DiscountPercent, Value: money("10")}))
	assert.True(t, m.Snapshot().Active.Totals.Discount.Equal(money("1.00")))
}

func TestApplyItemDiscountAndRemove(t *testing.T) {
	m, _, _ := newTestManager(t)
	item, err := m.AddProduct(context.Background(), "", "espresso", 2) // line 5.00
	require.NoError(t, err)

	require.NoError(t, m.ApplyItemDiscount("", item.ID, &domain.Discount{Kind: domain.DiscountAmount, Value: money("0.50")}))
	v := m.Snapshot()
	require.NotNil(t, v.Active.Items[0].LineDiscount)
	assert.True(t, v.Active.Totals.Discount.Equal(money("0.50")))

	require.NoError(t, m.ApplyItemDiscount("", item.ID, nil))
	assert.Nil(t, m.Snapshot().Active.Items[0].LineDiscount)
}

func TestApplyItemDiscountUnknownLine(t *testing.T) {
	m, _, _ := newTestManager(t)
	err := m.ApplyItemDiscount("", "missing", &domain.Discount{Kind: domain.DiscountPercent, Value: money("5")})
	require.ErrorIs(t, err, domain.ErrNotFound)
}
