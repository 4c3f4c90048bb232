package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// Store is a process-local catalog used in development and tests.
type Store struct {
	mu        sync.RWMutex
	byID      map[string]Product
	byBarcode map[string]string
	order     []string
}

func NewStore(products ...Product) *Store {
	s := &Store{
		byID:      make(map[string]Product),
		byBarcode: make(map[string]string),
	}
	for _, p := range products {
		s.Upsert(p)
	}
	return s
}

// NewSeeded returns a store pre-loaded with a small demo menu.
func NewSeeded() *Store {
	rate := func(v string) *decimal.Decimal {
		d := decimal.RequireFromString(v)
		return &d
	}
	return NewStore(
		Product{ID: "espresso", SKU: "BEV-001", Name: "Espresso", Barcode: "0001", UnitPrice: decimal.RequireFromString("2.50"), TaxRate: rate("0.08"), Active: true},
		Product{ID: "latte", SKU: "BEV-002", Name: "Latte", Barcode: "0002", UnitPrice: decimal.RequireFromString("4.25"), TaxRate: rate("0.08"), Active: true},
		Product{ID: "croissant", SKU: "BAK-001", Name: "Butter Croissant", Barcode: "0003", UnitPrice: decimal.RequireFromString("3.10"), TaxRate: rate("0.08"), Active: true, TrackInventory: true, Stock: 24},
		Product{ID: "beans-1kg", SKU: "RTL-001", Name: "House Blend Beans 1kg", Barcode: "0004", UnitPrice: decimal.RequireFromString("19.99"), Active: true, TrackInventory: true, Stock: 12},
		Product{ID: "mug", SKU: "RTL-002", Name: "Branded Mug", Barcode: "0005", UnitPrice: decimal.RequireFromString("12.00"), Active: false},
	)
}

// Upsert inserts or replaces a product, keeping first-insert ordering for
// listings.
func (s *Store) Upsert(p Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.byID[p.ID]; ok {
		if old.Barcode != "" {
			delete(s.byBarcode, old.Barcode)
		}
	} else {
		s.order = append(s.order, p.ID)
	}
	s.byID[p.ID] = p
	if p.Barcode != "" {
		s.byBarcode[p.Barcode] = p.ID
	}
}

// DeductStock lowers stock for a tracked product after a sale. Untracked
// products and unknown ids are ignored; stock floors at zero.
func (s *Store) DeductStock(productID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[productID]
	if !ok || !p.TrackInventory {
		return
	}
	p.Stock -= quantity
	if p.Stock < 0 {
		p.Stock = 0
	}
	s.byID[productID] = p
}

func (s *Store) GetProduct(_ context.Context, id string) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return Product{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, nil
}

func (s *Store) LookupByBarcode(_ context.Context, code string) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byBarcode[code]
	if !ok {
		return Product{}, fmt.Errorf("%w: barcode %s", ErrNotFound, code)
	}
	return s.byID[id], nil
}

func (s *Store) ListProducts(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Product, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out, nil
}
