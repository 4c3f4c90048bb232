package application

import (
	"context"

	"github.com/tillworks/register-engine/internal/sales/domain"
)

// NopLedger drops every record. It backs the register when no journal
// database is configured, typically in development.
type NopLedger struct{}

func (NopLedger) RecordSale(context.Context, domain.SaleCompleted) error { return nil }

func (NopLedger) RecordVoid(context.Context, domain.SaleVoided) error { return nil }
