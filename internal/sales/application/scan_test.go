package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tillworks/register-engine/internal/sales/domain"
)

func TestScanBarcodeApplies(t *testing.T) {
	m, _, _ := newTestManager(t)

	res, err := m.ScanBarcode(context.Background(), "1001", 1)
	require.NoError(t, err)

	assert.True(t, res.Applied)
	assert.False(t, res.Stale)
	assert.Equal(t, "espresso", res.Item.ProductID)
	require.Len(t, m.Snapshot().Active.Items, 1)
}

func TestScanBarcodeDefaultsMergeLikeAdd(t *testing.T) {
	m, _, _ := newTestManager(t)

	_, err := m.AddProduct(context.Background(), "", "espresso", 2)
	require.NoError(t, err)
	res, err := m.ScanBarcode(context.Background(), "1001", 3)
	require.NoError(t, err)

	assert.Equal(t, 5, res.Item.Quantity)
	require.Len(t, m.Snapshot().Active.Items, 1)
}

func TestScanBarcodeUnknown(t *testing.T) {
	m, _, _ := newTestManager(t)

	_, err := m.ScanBarcode(context.Background(), "9999", 1)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, m.Snapshot().Active.Items, "a failed scan leaves the cart alone")
}

func TestScanBarcodeCatalogDown(t *testing.T) {
	m, cat, _ := newTestManager(t)
	cat.err = errors.New("connection refused")

	_, err := m.ScanBarcode(context.Background(), "1001", 1)
	require.ErrorIs(t, err, domain.ErrCatalogUnavailable)
	assert.Empty(t, m.Snapshot().Active.Items)
}

func TestScanBarcodeInactiveProduct(t *testing.T) {
	m, _, _ := newTestManager(t)

	_, err := m.ScanBarcode(context.Background(), "1004", 1)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestScanBarcodeInvalidQuantity(t *testing.T) {
	m, _, _ := newTestManager(t)
	_, err := m.ScanBarcode(context.Background(), "1001", 0)
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

type scanReply struct {
	res ScanResult
	err error
}

// slowScan starts a scan that blocks inside the catalog lookup, hands
// control back once the lookup has been entered, and returns a release
// func plus a channel carrying the final result.
func slowScan(t *testing.T, m *Manager, cat *stubCatalog, code string) (release func(), done <-chan scanReply) {
	t.Helper()
	entered := make(chan struct{})
	gate := make(chan struct{})
	cat.entered = entered
	cat.gate = gate

	results := make(chan scanReply, 1)
	go func() {
		res, err := m.ScanBarcode(context.Background(), code, 1)
		results <- scanReply{res: res, err: err}
	}()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("scan never reached the catalog lookup")
	}
	return func() { close(gate) }, results
}

func TestScanDroppedAfterFocusSwitch(t *testing.T) {
	m, cat, _ := newTestManager(t)
	release, done := slowScan(t, m, cat, "1001")

	second := m.Create()
	require.NoError(t, m.SetActive(second.ID))
	release()

	rep := <-done
	require.NoError(t, rep.err)
	assert.True(t, rep.res.Stale)
	assert.False(t, rep.res.Applied)

	for _, tab := range m.Snapshot().Transactions {
		detail, err := m.Transaction(tab.ID)
		require.NoError(t, err)
		assert.Empty(t, detail.Items, "no cart picks up the dropped scan")
	}
}

func TestScanDroppedAfterClear(t *testing.T) {
	m, cat, _ := newTestManager(t)
	release, done := slowScan(t, m, cat, "1001")

	require.NoError(t, m.ClearCart(""))
	release()

	rep := <-done
	require.NoError(t, rep.err)
	assert.True(t, rep.res.Stale)
	assert.Empty(t, m.Snapshot().Active.Items)
}

func TestScanDroppedAfterVoid(t *testing.T) {
	m, cat, _ := newTestManager(t)
	id := m.Snapshot().ActiveID
	release, done := slowScan(t, m, cat, "1001")

	require.NoError(t, m.Void(context.Background(), id, ""))
	release()

	rep := <-done
	require.NoError(t, rep.err)
	assert.True(t, rep.res.Stale)

	voided, err := m.Transaction(id)
	require.NoError(t, err)
	assert.Empty(t, voided.Items)
}

func TestScanLandsWhenNothingChanged(t *testing.T) {
	m, cat, _ := newTestManager(t)
	release, done := slowScan(t, m, cat, "1002")

	release()

	rep := <-done
	require.NoError(t, rep.err)
	assert.True(t, rep.res.Applied)
	assert.Equal(t, "latte", rep.res.Item.ProductID)
}
