package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tillworks/register-engine/internal/sales/domain"
	"github.com/tillworks/register-engine/internal/sales/pricing"
)

// Manager owns every open transaction and the pointer to the one being
// edited. All mutation funnels through its methods; the mutex stands in
// for the register's single event loop, so each operation is one atomic
// state transition.
//
// Invariant: at least one active-status transaction exists at all times,
// and the edit target always points at one of them. Deleting, parking or
// voiding the last active tab replaces it within the same operation.
type Manager struct {
	log     *slog.Logger
	catalog Catalog
	taxcfg  TaxConfigSource
	ledger  SalesLedger

	mu       sync.Mutex
	txs      map[string]*domain.Transaction
	creation []string
	activeID string
	seq      int
}

func NewManager(log *slog.Logger, cat Catalog, cfg TaxConfigSource, ledger SalesLedger) *Manager {
	m := &Manager{
		log:     log,
		catalog: cat,
		taxcfg:  cfg,
		ledger:  ledger,
		txs:     make(map[string]*domain.Transaction),
	}
	m.createLocked()
	return m
}

// createLocked opens a fresh active tab. Callers hold mu (or, in the
// constructor, the only reference).
func (m *Manager) createLocked() *domain.Transaction {
	m.seq++
	tx := domain.NewTransaction(fmt.Sprintf("Tab %d", m.seq))
	m.txs[tx.ID] = tx
	m.creation = append(m.creation, tx.ID)
	if m.activeID == "" {
		m.activeID = tx.ID
	}
	metricTransactionsCreated.Inc()
	return tx
}

// ensureActiveLocked repoints the edit target at the most recently created
// active tab, opening a new one when none is left.
func (m *Manager) ensureActiveLocked() {
	if tx, ok := m.txs[m.activeID]; ok && tx.Status == domain.StatusActive {
		return
	}
	m.activeID = ""
	for i := len(m.creation) - 1; i >= 0; i-- {
		if tx, ok := m.txs[m.creation[i]]; ok && tx.Status == domain.StatusActive {
			m.activeID = tx.ID
			return
		}
	}
	m.activeID = m.createLocked().ID
}

// Create opens a new tab. The edit target does not move; switching is the
// caller's decision.
func (m *Manager) Create() TabView {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := m.createLocked()
	m.log.Info("transaction created", "transaction_id", tx.ID, "name", tx.Name)
	return tabView(tx)
}

// SetActive moves the edit target. The target must exist and still be
// active; parked tabs come back through Recall instead.
func (m *Manager) SetActive(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[id]
	if !ok {
		return fmt.Errorf("%w: transaction %s", domain.ErrNotFound, id)
	}
	if tx.Status != domain.StatusActive {
		return fmt.Errorf("%w: cannot focus %s transaction %s", domain.ErrInvalidTransition, tx.Status, id)
	}
	m.activeID = id
	return nil
}

// Delete removes a tab of any status. Removing the last tab, or the last
// active one, opens a replacement within the same operation so no caller
// ever observes an empty register.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.txs[id]; !ok {
		return fmt.Errorf("%w: transaction %s", domain.ErrNotFound, id)
	}
	delete(m.txs, id)
	for i, tid := range m.creation {
		if tid == id {
			m.creation = append(m.creation[:i], m.creation[i+1:]...)
			break
		}
	}
	m.ensureActiveLocked()
	m.log.Info("transaction deleted", "transaction_id", id)
	return nil
}

// Park suspends a tab. Its lines survive untouched until a recall.
func (m *Manager) Park(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[id]
	if !ok {
		return fmt.Errorf("%w: transaction %s", domain.ErrNotFound, id)
	}
	if err := tx.Park(); err != nil {
		return err
	}
	m.ensureActiveLocked()
	m.log.Info("transaction parked", "transaction_id", id)
	return nil
}

// Recall reactivates a parked tab and makes it the edit target.
func (m *Manager) Recall(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[id]
	if !ok {
		return fmt.Errorf("%w: transaction %s", domain.ErrNotFound, id)
	}
	if err := tx.Recall(); err != nil {
		return err
	}
	m.activeID = id
	m.log.Info("transaction recalled", "transaction_id", id)
	return nil
}

// Void discards a tab's contents permanently. The audit record is written
// before the state flips; a ledger failure leaves the tab as it was.
func (m *Manager) Void(ctx context.Context, id, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[id]
	if !ok {
		return fmt.Errorf("%w: transaction %s", domain.ErrNotFound, id)
	}
	if tx.Status.Terminal() {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, tx.Status, domain.StatusVoided)
	}
	count := 0
	for _, it := range tx.Items {
		count += it.Quantity
	}
	rec := domain.SaleVoided{
		TransactionID: tx.ID,
		Name:          tx.Name,
		Reason:        reason,
		ItemCount:     count,
		VoidedAt:      time.Now().UTC(),
	}
	if err := m.ledger.RecordVoid(ctx, rec); err != nil {
		return fmt.Errorf("record void: %w", err)
	}
	if err := tx.Void(); err != nil {
		return err
	}
	m.ensureActiveLocked()
	metricTransactionsVoided.Inc()
	m.log.Info("transaction voided", "transaction_id", id, "reason", reason)
	return nil
}

// Complete checks out a tab: totals are derived, the sale is journaled,
// then the cart clears and the tab turns terminal. A ledger failure aborts
// the whole step with the tab still active and editable.
func (m *Manager) Complete(ctx context.Context, id string) (domain.SaleCompleted, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[id]
	if !ok {
		return domain.SaleCompleted{}, fmt.Errorf("%w: transaction %s", domain.ErrNotFound, id)
	}
	if tx.Status != domain.StatusActive {
		return domain.SaleCompleted{}, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, tx.Status, domain.StatusCompleted)
	}
	cfg := m.taxcfg.Active()
	totals := pricing.Calculate(tx, pricing.Options{Precision: cfg.CurrencyPrecision})
	sale := saleRecord(tx, totals, cfg.Currency)

	start := time.Now()
	if err := m.ledger.RecordSale(ctx, sale); err != nil {
		metricCheckoutFailures.Inc()
		return domain.SaleCompleted{}, fmt.Errorf("record sale: %w", err)
	}
	metricCheckoutDuration.Observe(time.Since(start).Seconds())

	if err := tx.Complete(); err != nil {
		return domain.SaleCompleted{}, err
	}
	m.ensureActiveLocked()
	metricTransactionsCompleted.Inc()
	m.log.Info("transaction completed", "transaction_id", id, "total", sale.Total, "lines", len(sale.Lines))
	return sale, nil
}

func saleRecord(tx *domain.Transaction, t pricing.Totals, currency string) domain.SaleCompleted {
	lines := make([]domain.SaleLine, len(tx.Items))
	for i, it := range tx.Items {
		lines[i] = domain.SaleLine{
			ProductID: it.ProductID,
			SKU:       it.SKU,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Discount:  t.Lines[i].Discount,
			Tax:       t.Lines[i].Tax,
		}
	}
	return domain.SaleCompleted{
		TransactionID: tx.ID,
		Name:          tx.Name,
		Lines:         lines,
		Subtotal:      t.Subtotal,
		Discount:      t.Discount,
		Tax:           t.Tax,
		Total:         t.GrandTotal,
		Currency:      currency,
		CompletedAt:   time.Now().UTC(),
	}
}
