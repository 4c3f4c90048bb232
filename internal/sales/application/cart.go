package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/tillworks/register-engine/internal/catalog"
	"github.com/tillworks/register-engine/internal/sales/domain"
)

// targetLocked resolves the transaction a cart command applies to: the
// explicit id when one is given (a stale UI panel may still address a
// parked or voided tab, which then fails the mutability guard), otherwise
// the current edit target.
func (m *Manager) targetLocked(txID string) (*domain.Transaction, error) {
	if txID == "" {
		txID = m.activeID
	}
	tx, ok := m.txs[txID]
	if !ok {
		return nil, fmt.Errorf("%w: transaction %s", domain.ErrNotFound, txID)
	}
	return tx, nil
}

func (m *Manager) snapshot(p catalog.Product) domain.Item {
	rate := m.taxcfg.Active().DefaultTaxRate
	if p.TaxRate != nil {
		rate = *p.TaxRate
	}
	return domain.Item{
		ProductID: p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		UnitPrice: p.UnitPrice,
		TaxRate:   rate,
	}
}

func sellable(p catalog.Product) error {
	if !p.Active {
		return fmt.Errorf("%w: product %s is not for sale", domain.ErrNotFound, p.ID)
	}
	return nil
}

func mapCatalogErr(err error) error {
	if errors.Is(err, catalog.ErrNotFound) {
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
}

// AddProduct snapshots the product's current name, price and tax rate into
// the target cart, merging into an existing line when the snapshots match.
func (m *Manager) AddProduct(ctx context.Context, txID, productID string, quantity int) (ItemView, error) {
	if quantity < 1 {
		return ItemView{}, fmt.Errorf("%w: %d", domain.ErrInvalidQuantity, quantity)
	}
	p, err := m.catalog.GetProduct(ctx, productID)
	if err != nil {
		return ItemView{}, mapCatalogErr(err)
	}
	if err := sellable(p); err != nil {
		return ItemView{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	tx, err := m.targetLocked(txID)
	if err != nil {
		return ItemView{}, err
	}
	item, err := tx.AddLine(m.snapshot(p), quantity)
	if err != nil {
		return ItemView{}, err
	}
	m.log.Info("item added", "transaction_id", tx.ID, "product_id", productID, "quantity", quantity)
	return itemView(item), nil
}

// UpdateQuantity sets an absolute quantity on a line; zero or less removes
// the line.
func (m *Manager) UpdateQuantity(txID, itemID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, err := m.targetLocked(txID)
	if err != nil {
		return err
	}
	if err := tx.SetLineQuantity(itemID, quantity); err != nil {
		return err
	}
	m.log.Info("quantity updated", "transaction_id", tx.ID, "item_id", itemID, "quantity", quantity)
	return nil
}

// RemoveItem deletes a line regardless of its quantity.
func (m *Manager) RemoveItem(txID, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, err := m.targetLocked(txID)
	if err != nil {
		return err
	}
	if err := tx.RemoveLine(itemID); err != nil {
		return err
	}
	m.log.Info("item removed", "transaction_id", tx.ID, "item_id", itemID)
	return nil
}

// ClearCart empties the target cart and drops its order discount.
func (m *Manager) ClearCart(txID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, err := m.targetLocked(txID)
	if err != nil {
		return err
	}
	if err := tx.Clear(); err != nil {
		return err
	}
	m.log.Info("cart cleared", "transaction_id", tx.ID)
	return nil
}

// ApplyOrderDiscount stores a whole-order discount after validating it
// against the current subtotal. Nil removes the discount.
func (m *Manager) ApplyOrderDiscount(txID string, d *domain.Discount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, err := m.targetLocked(txID)
	if err != nil {
		return err
	}
	if err := tx.SetOrderDiscount(d); err != nil {
		return err
	}
	m.log.Info("order discount applied", "transaction_id", tx.ID)
	return nil
}

// ApplyItemDiscount stores a line discount after validating it against the
// line subtotal. Nil removes the discount.
func (m *Manager) ApplyItemDiscount(txID, itemID string, d *domain.Discount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, err := m.targetLocked(txID)
	if err != nil {
		return err
	}
	if err := tx.SetLineDiscount(itemID, d); err != nil {
		return err
	}
	m.log.Info("item discount applied", "transaction_id", tx.ID, "item_id", itemID)
	return nil
}
