package settings

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

var ErrInvalid = errors.New("invalid tax config")

// TaxConfig is the active tax and currency policy at the register.
// DefaultTaxRate is a fraction (0.08 for 8%) applied to products that
// carry no rate of their own.
type TaxConfig struct {
	DefaultTaxRate    decimal.Decimal `json:"default_tax_rate"`
	CurrencyPrecision int32           `json:"currency_precision"`
	Currency          string          `json:"currency"`
}

var one = decimal.NewFromInt(1)

func (c TaxConfig) Validate() error {
	if c.DefaultTaxRate.IsNegative() || c.DefaultTaxRate.GreaterThanOrEqual(one) {
		return fmt.Errorf("%w: default tax rate %s outside [0,1)", ErrInvalid, c.DefaultTaxRate)
	}
	if c.CurrencyPrecision < 0 || c.CurrencyPrecision > 3 {
		return fmt.Errorf("%w: currency precision %d outside [0,3]", ErrInvalid, c.CurrencyPrecision)
	}
	if c.Currency == "" {
		return fmt.Errorf("%w: currency is required", ErrInvalid)
	}
	return nil
}

// Provider holds the live config behind a lock. Active returns a copy, so
// one calculation always sees a single consistent snapshot while admin
// updates take effect on the next one.
type Provider struct {
	mu  sync.RWMutex
	cfg TaxConfig
}

func NewProvider(cfg TaxConfig) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Provider{cfg: cfg}, nil
}

func (p *Provider) Active() TaxConfig {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg
}

func (p *Provider) Update(cfg TaxConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	p.cfg = cfg
	p.mu.Unlock()
	return nil
}
