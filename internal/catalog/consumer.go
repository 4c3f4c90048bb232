package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/tillworks/register-engine/pkg/idempotency"
	"github.com/tillworks/register-engine/pkg/tracing"
)

// SalesConsumer follows the register's sales feed and keeps tracked stock
// counts in step with completed sales. Voids never reached the stock, so
// only sale.completed events apply.
type SalesConsumer struct {
	log    *slog.Logger
	reader *kafka.Reader
	store  *Store
	idem   *idempotency.Store
	tracer trace.Tracer
}

func NewSalesConsumer(log *slog.Logger, brokers []string, topic, group string, store *Store, idem *idempotency.Store) *SalesConsumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
	return &SalesConsumer{
		log:    log,
		reader: r,
		store:  store,
		idem:   idem,
		tracer: otel.Tracer("catalog-consumer"),
	}
}

func (c *SalesConsumer) Run(ctx context.Context) error {
	defer c.reader.Close()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}
		if c.idem != nil {
			key := idempotency.Key(msg.Topic, strconv.Itoa(msg.Partition), strconv.FormatInt(msg.Offset, 10))
			seen, err := c.idem.Seen(ctx, key)
			if err != nil {
				c.log.Warn("idempotency check failed", "err", err)
			} else if seen {
				c.log.Info("duplicate message skipped", "key", key)
				_ = c.reader.CommitMessages(ctx, msg)
				continue
			}
		}
		if headerValue(msg.Headers, "event_type") != "sale.completed" {
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
		_, span := c.tracer.Start(msgCtx, "ConsumeSaleCompleted")

		var sale struct {
			TransactionID string `json:"transaction_id"`
			Lines         []struct {
				ProductID string `json:"product_id"`
				Quantity  int    `json:"quantity"`
			} `json:"lines"`
		}
		if err := json.Unmarshal(msg.Value, &sale); err != nil {
			c.log.Error("unmarshal sale failed", "err", err)
			span.End()
			_ = c.reader.CommitMessages(ctx, msg)
			continue
		}

		for _, line := range sale.Lines {
			c.store.DeductStock(line.ProductID, line.Quantity)
		}
		c.log.Info("stock updated from sale", "transaction_id", sale.TransactionID, "lines", len(sale.Lines))
		span.End()
		_ = c.reader.CommitMessages(ctx, msg)
	}
}

func headerValue(h []kafka.Header, key string) string {
	for _, hh := range h {
		if hh.Key == key {
			return string(hh.Value)
		}
	}
	return ""
}
