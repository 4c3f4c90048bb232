package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreGetProduct(t *testing.T) {
	s := NewSeeded()

	p, err := s.GetProduct(context.Background(), "espresso")
	require.NoError(t, err)
	assert.Equal(t, "Espresso", p.Name)
	assert.True(t, p.UnitPrice.Equal(decimal.RequireFromString("2.50")))

	_, err = s.GetProduct(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreLookupByBarcode(t *testing.T) {
	s := NewSeeded()

	p, err := s.LookupByBarcode(context.Background(), "0004")
	require.NoError(t, err)
	assert.Equal(t, "beans-1kg", p.ID)

	_, err = s.LookupByBarcode(context.Background(), "no-such-code")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreListKeepsInsertionOrder(t *testing.T) {
	s := NewSeeded()

	ps, err := s.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, ps, 5)
	assert.Equal(t, "espresso", ps[0].ID)
	assert.Equal(t, "mug", ps[4].ID)
}

func TestDeductStock(t *testing.T) {
	s := NewSeeded()

	s.DeductStock("croissant", 3)
	p, err := s.GetProduct(context.Background(), "croissant")
	require.NoError(t, err)
	assert.Equal(t, 21, p.Stock)

	s.DeductStock("croissant", 100)
	p, err = s.GetProduct(context.Background(), "croissant")
	require.NoError(t, err)
	assert.Equal(t, 0, p.Stock, "stock floors at zero")

	s.DeductStock("espresso", 5)
	p, err = s.GetProduct(context.Background(), "espresso")
	require.NoError(t, err)
	assert.Equal(t, 0, p.Stock, "untracked products are ignored")

	s.DeductStock("missing", 1)
}

func TestUpsertRemapsBarcode(t *testing.T) {
	s := NewSeeded()

	p, err := s.GetProduct(context.Background(), "espresso")
	require.NoError(t, err)
	p.Barcode = "0099"
	s.Upsert(p)

	_, err = s.LookupByBarcode(context.Background(), "0001")
	require.ErrorIs(t, err, ErrNotFound, "the old barcode no longer resolves")

	got, err := s.LookupByBarcode(context.Background(), "0099")
	require.NoError(t, err)
	assert.Equal(t, "espresso", got.ID)

	ps, err := s.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, ps, 5, "an upsert of an existing product does not grow the list")
	assert.Equal(t, "espresso", ps[0].ID, "ordering is stable across upserts")
}
