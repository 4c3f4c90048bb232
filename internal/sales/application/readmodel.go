package application

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tillworks/register-engine/internal/sales/domain"
	"github.com/tillworks/register-engine/internal/sales/pricing"
)

// View is the read model the UI renders from: every tab in creation order,
// the edit target, and the focused tab's derived totals. Totals are never
// cached; each snapshot recomputes them from the transaction map.
type View struct {
	Transactions []TabView  `json:"transactions"`
	ActiveID     string     `json:"active_transaction_id"`
	Active       DetailView `json:"active"`
}

type TabView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	ItemCount int       `json:"item_count"`
	CreatedAt time.Time `json:"created_at"`
}

type DetailView struct {
	TabView
	Items  []ItemView `json:"items"`
	Totals TotalsView `json:"totals"`
}

type ItemView struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"product_id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	Quantity     int             `json:"quantity"`
	LineDiscount *DiscountView   `json:"line_discount,omitempty"`
	LineSubtotal decimal.Decimal `json:"line_subtotal"`
}

type DiscountView struct {
	Kind  string          `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

type TotalsView struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Discount   decimal.Decimal `json:"discount"`
	Tax        decimal.Decimal `json:"tax"`
	GrandTotal decimal.Decimal `json:"grand_total"`
	ItemCount  int             `json:"item_count"`
	Currency   string          `json:"currency"`
}

// Snapshot returns the full read model in one consistent picture.
func (m *Manager) Snapshot() View {
	cfg := m.taxcfg.Active()
	m.mu.Lock()
	defer m.mu.Unlock()

	v := View{
		Transactions: make([]TabView, 0, len(m.creation)),
		ActiveID:     m.activeID,
	}
	for _, id := range m.creation {
		v.Transactions = append(v.Transactions, tabView(m.txs[id]))
	}
	if tx, ok := m.txs[m.activeID]; ok {
		v.Active = detailView(tx, cfg.CurrencyPrecision, cfg.Currency)
	}
	return v
}

// Transaction returns the detail view for any tab, parked and terminal
// ones included.
func (m *Manager) Transaction(id string) (DetailView, error) {
	cfg := m.taxcfg.Active()
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[id]
	if !ok {
		return DetailView{}, fmt.Errorf("%w: transaction %s", domain.ErrNotFound, id)
	}
	return detailView(tx, cfg.CurrencyPrecision, cfg.Currency), nil
}

func tabView(tx *domain.Transaction) TabView {
	count := 0
	for _, it := range tx.Items {
		count += it.Quantity
	}
	return TabView{
		ID:        tx.ID,
		Name:      tx.Name,
		Status:    string(tx.Status),
		ItemCount: count,
		CreatedAt: tx.CreatedAt,
	}
}

func detailView(tx *domain.Transaction, precision int32, currency string) DetailView {
	totals := pricing.Calculate(tx, pricing.Options{Precision: precision})
	d := totals.Display()

	items := make([]ItemView, len(tx.Items))
	for i, it := range tx.Items {
		items[i] = itemView(it)
	}
	return DetailView{
		TabView: tabView(tx),
		Items:   items,
		Totals: TotalsView{
			Subtotal:   d.Subtotal,
			Discount:   d.Discount,
			Tax:        d.Tax,
			GrandTotal: d.GrandTotal,
			ItemCount:  d.ItemCount,
			Currency:   currency,
		},
	}
}

func itemView(it domain.Item) ItemView {
	v := ItemView{
		ID:           it.ID,
		ProductID:    it.ProductID,
		SKU:          it.SKU,
		Name:         it.Name,
		UnitPrice:    it.UnitPrice,
		TaxRate:      it.TaxRate,
		Quantity:     it.Quantity,
		LineSubtotal: it.Subtotal(),
	}
	if it.LineDiscount != nil {
		v.LineDiscount = &DiscountView{
			Kind:  string(it.LineDiscount.Kind),
			Value: it.LineDiscount.Value,
		}
	}
	return v
}
