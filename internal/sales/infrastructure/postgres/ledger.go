package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tillworks/register-engine/internal/sales/domain"
	"github.com/tillworks/register-engine/pkg/tracing"
)

// Ledger journals completed and voided sales. Each record and its outbox
// event are written in one database transaction, so the downstream feed
// never sees a sale the journal does not have.
type Ledger struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewLedger(log *slog.Logger, pool *pgxpool.Pool) *Ledger {
	return &Ledger{log: log, pool: pool}
}

// EnsureSchema creates the journal and outbox tables when missing. Run it
// once at startup.
func (l *Ledger) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sales (
			transaction_id TEXT PRIMARY KEY,
			name           TEXT NOT NULL,
			subtotal       NUMERIC NOT NULL,
			discount       NUMERIC NOT NULL,
			tax            NUMERIC NOT NULL,
			total          NUMERIC NOT NULL,
			currency       TEXT NOT NULL,
			completed_at   TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sale_lines (
			id             BIGSERIAL PRIMARY KEY,
			transaction_id TEXT NOT NULL REFERENCES sales(transaction_id),
			product_id     TEXT NOT NULL,
			sku            TEXT NOT NULL,
			name           TEXT NOT NULL,
			unit_price     NUMERIC NOT NULL,
			quantity       INT NOT NULL,
			discount       NUMERIC NOT NULL,
			tax            NUMERIC NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sale_voids (
			transaction_id TEXT PRIMARY KEY,
			name           TEXT NOT NULL,
			reason         TEXT NOT NULL,
			item_count     INT NOT NULL,
			voided_at      TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS outbox (
			id             BIGSERIAL PRIMARY KEY,
			aggregate_type TEXT NOT NULL,
			aggregate_id   TEXT NOT NULL,
			type           TEXT NOT NULL,
			payload        JSONB NOT NULL,
			headers        JSONB NOT NULL DEFAULT '{}',
			traceparent    TEXT NOT NULL DEFAULT '',
			status         TEXT NOT NULL DEFAULT 'pending',
			relay_id       TEXT,
			lease_until    TIMESTAMPTZ,
			retry_count    INT NOT NULL DEFAULT 0,
			last_error     TEXT,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS outbox_pending_idx ON outbox (id) WHERE status IN ('pending', 'in_progress')`,
	}
	for _, stmt := range stmts {
		if _, err := l.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (l *Ledger) RecordSale(ctx context.Context, sale domain.SaleCompleted) error {
	payload, err := json.Marshal(sale)
	if err != nil {
		return fmt.Errorf("marshal sale: %w", err)
	}

	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `INSERT INTO sales (transaction_id, name, subtotal, discount, tax, total, currency, completed_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		sale.TransactionID, sale.Name, sale.Subtotal.String(), sale.Discount.String(),
		sale.Tax.String(), sale.Total.String(), sale.Currency, sale.CompletedAt)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, line := range sale.Lines {
		batch.Queue(`INSERT INTO sale_lines (transaction_id, product_id, sku, name, unit_price, quantity, discount, tax)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			sale.TransactionID, line.ProductID, line.SKU, line.Name,
			line.UnitPrice.String(), line.Quantity, line.Discount.String(), line.Tax.String())
	}
	if err = tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	if err = l.queueEvent(ctx, tx, sale.TransactionID, "sale.completed", payload); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (l *Ledger) RecordVoid(ctx context.Context, v domain.SaleVoided) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal void: %w", err)
	}

	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `INSERT INTO sale_voids (transaction_id, name, reason, item_count, voided_at)
			VALUES ($1,$2,$3,$4,$5)`,
		v.TransactionID, v.Name, v.Reason, v.ItemCount, v.VoidedAt)
	if err != nil {
		return err
	}

	if err = l.queueEvent(ctx, tx, v.TransactionID, "sale.voided", payload); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (l *Ledger) queueEvent(ctx context.Context, tx pgx.Tx, aggregateID, eventType string, payload []byte) error {
	headers := map[string]string{"content_type": "application/json"}
	_, err := tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, headers, traceparent, status)
			VALUES ($1,$2,$3,$4,$5,$6,'pending')`,
		"sale", aggregateID, eventType, payload, headers, tracing.Traceparent(ctx))
	return err
}
