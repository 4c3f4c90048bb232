package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/tillworks/register-engine/internal/sales/domain"
)

// ScanResult reports what a barcode resolution did once it landed.
type ScanResult struct {
	Applied bool
	Stale   bool
	Item    ItemView
}

// ScanBarcode resolves a barcode against the catalog and adds the product
// to the tab that was in focus when the scan started. Focus and the tab's
// epoch are captured before the lookup; if either has moved by the time
// the product arrives, the result is dropped without touching any cart.
// That keeps a slow resolution from landing in a tab the cashier has
// switched away from, cleared or voided in the meantime.
func (m *Manager) ScanBarcode(ctx context.Context, code string, quantity int) (ScanResult, error) {
	if quantity < 1 {
		return ScanResult{}, fmt.Errorf("%w: %d", domain.ErrInvalidQuantity, quantity)
	}

	m.mu.Lock()
	txID := m.activeID
	var epoch uint64
	if tx, ok := m.txs[txID]; ok {
		epoch = tx.Epoch
	}
	m.mu.Unlock()

	p, err := m.catalog.LookupByBarcode(ctx, code)
	if err != nil {
		err = mapCatalogErr(err)
		metricScans.WithLabelValues(scanOutcome(err)).Inc()
		m.log.Warn("barcode lookup failed", "barcode", code, "err", err)
		return ScanResult{}, err
	}
	if err := sellable(p); err != nil {
		metricScans.WithLabelValues(scanOutcome(err)).Inc()
		return ScanResult{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[txID]
	if !ok || m.activeID != txID || tx.Epoch != epoch {
		metricScans.WithLabelValues("stale").Inc()
		m.log.Info("stale barcode resolution dropped", "transaction_id", txID, "barcode", code)
		return ScanResult{Stale: true}, nil
	}
	item, err := tx.AddLine(m.snapshot(p), quantity)
	if err != nil {
		return ScanResult{}, err
	}
	metricScans.WithLabelValues("applied").Inc()
	m.log.Info("barcode applied", "transaction_id", tx.ID, "product_id", p.ID, "quantity", quantity)
	return ScanResult{Applied: true, Item: itemView(item)}, nil
}

func scanOutcome(err error) string {
	if errors.Is(err, domain.ErrNotFound) {
		return "not_found"
	}
	return "unavailable"
}
