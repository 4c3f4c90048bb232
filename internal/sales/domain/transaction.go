package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusParked    Status = "parked"
	StatusVoided    Status = "voided"
	StatusCompleted Status = "completed"
)

// transitions is the whole lifecycle: anything absent from the table is
// illegal. Voided and completed have no outgoing edges.
var transitions = map[Status]map[Status]bool{
	StatusActive: {StatusParked: true, StatusVoided: true, StatusCompleted: true},
	StatusParked: {StatusActive: true, StatusVoided: true},
}

func (s Status) Terminal() bool {
	return s == StatusVoided || s == StatusCompleted
}

// Transaction is one sales tab: an ordered list of item lines plus
// lifecycle status. The manager owns every instance; nothing else holds a
// mutable reference.
type Transaction struct {
	ID            string
	Name          string
	Status        Status
	Items         []Item
	OrderDiscount *Discount
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Epoch increments on every lifecycle transition and cart clear.
	// In-flight barcode resolutions capture it and are dropped when it
	// has moved on by the time they land.
	Epoch uint64
}

func NewTransaction(name string) *Transaction {
	now := time.Now().UTC()
	return &Transaction{
		ID:        uuid.NewString(),
		Name:      name,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (t *Transaction) transitionTo(next Status) error {
	if !transitions[t.Status][next] {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, next)
	}
	t.Status = next
	t.Epoch++
	t.touch()
	return nil
}

// Park suspends the tab, retaining its lines for a later recall.
func (t *Transaction) Park() error { return t.transitionTo(StatusParked) }

// Recall brings a parked tab back to active.
func (t *Transaction) Recall() error { return t.transitionTo(StatusActive) }

// Void discards the tab's contents permanently. The tab itself stays
// around as history.
func (t *Transaction) Void() error {
	if err := t.transitionTo(StatusVoided); err != nil {
		return err
	}
	t.Items = nil
	t.OrderDiscount = nil
	return nil
}

// Complete marks a successful checkout and empties the cart.
func (t *Transaction) Complete() error {
	if err := t.transitionTo(StatusCompleted); err != nil {
		return err
	}
	t.Items = nil
	t.OrderDiscount = nil
	return nil
}

// Mutable reports whether cart mutations are allowed.
func (t *Transaction) Mutable() bool { return t.Status == StatusActive }

func (t *Transaction) guardMutable() error {
	if !t.Mutable() {
		return fmt.Errorf("%w: transaction %s is %s", ErrNotMutable, t.ID, t.Status)
	}
	return nil
}

// AddLine merges quantity into an existing line when the product and its
// price/tax snapshots match, otherwise appends a new line. The affected
// line is returned by value.
func (t *Transaction) AddLine(item Item, quantity int) (Item, error) {
	if err := t.guardMutable(); err != nil {
		return Item{}, err
	}
	if quantity < 1 {
		return Item{}, fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}
	for idx := range t.Items {
		line := &t.Items[idx]
		if line.ProductID == item.ProductID &&
			line.UnitPrice.Equal(item.UnitPrice) &&
			line.TaxRate.Equal(item.TaxRate) {
			line.Quantity += quantity
			t.touch()
			return line.clone(), nil
		}
	}
	item.Quantity = quantity
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	t.Items = append(t.Items, item)
	t.touch()
	return item.clone(), nil
}

// SetLineQuantity sets an absolute quantity; zero or less removes the line.
func (t *Transaction) SetLineQuantity(lineID string, quantity int) error {
	if err := t.guardMutable(); err != nil {
		return err
	}
	for idx := range t.Items {
		if t.Items[idx].ID != lineID {
			continue
		}
		if quantity <= 0 {
			t.Items = append(t.Items[:idx], t.Items[idx+1:]...)
		} else {
			t.Items[idx].Quantity = quantity
		}
		t.touch()
		return nil
	}
	return fmt.Errorf("%w: line %s", ErrNotFound, lineID)
}

// RemoveLine deletes the line regardless of quantity.
func (t *Transaction) RemoveLine(lineID string) error {
	if err := t.guardMutable(); err != nil {
		return err
	}
	for idx := range t.Items {
		if t.Items[idx].ID == lineID {
			t.Items = append(t.Items[:idx], t.Items[idx+1:]...)
			t.touch()
			return nil
		}
	}
	return fmt.Errorf("%w: line %s", ErrNotFound, lineID)
}

// Clear empties the cart and drops the order discount.
func (t *Transaction) Clear() error {
	if err := t.guardMutable(); err != nil {
		return err
	}
	t.Items = nil
	t.OrderDiscount = nil
	t.Epoch++
	t.touch()
	return nil
}

// SetOrderDiscount validates against the current order subtotal and stores
// the discount. Nil removes the current one.
func (t *Transaction) SetOrderDiscount(d *Discount) error {
	if err := t.guardMutable(); err != nil {
		return err
	}
	if d != nil {
		if err := d.Validate(t.Subtotal()); err != nil {
			return err
		}
	}
	t.OrderDiscount = d
	t.touch()
	return nil
}

// SetLineDiscount validates against the line subtotal and stores the
// discount on that line. Nil removes it.
func (t *Transaction) SetLineDiscount(lineID string, d *Discount) error {
	if err := t.guardMutable(); err != nil {
		return err
	}
	for idx := range t.Items {
		if t.Items[idx].ID != lineID {
			continue
		}
		if d != nil {
			if err := d.Validate(t.Items[idx].Subtotal()); err != nil {
				return err
			}
		}
		t.Items[idx].LineDiscount = d
		t.touch()
		return nil
	}
	return fmt.Errorf("%w: line %s", ErrNotFound, lineID)
}

// Subtotal is the sum of line subtotals before discounts and tax.
func (t *Transaction) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range t.Items {
		sum = sum.Add(it.Subtotal())
	}
	return sum
}

func (t *Transaction) touch() { t.UpdatedAt = time.Now().UTC() }

// Clone returns a deep copy safe to hand out past the manager's lock.
func (t *Transaction) Clone() *Transaction {
	c := *t
	if t.OrderDiscount != nil {
		d := *t.OrderDiscount
		c.OrderDiscount = &d
	}
	if t.Items != nil {
		c.Items = make([]Item, len(t.Items))
		for i, it := range t.Items {
			c.Items[i] = it.clone()
		}
	}
	return &c
}
