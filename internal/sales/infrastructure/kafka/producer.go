package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// Writer wraps kafka-go's writer for the sales event feed. Messages carry
// their topic and key from the outbox dispatcher; the hash balancer keeps
// one transaction's records on one partition.
type Writer struct {
	*kafka.Writer
}

func NewWriter(brokers []string) *Writer {
	return &Writer{
		Writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

func (w *Writer) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	return w.Writer.WriteMessages(ctx, msgs...)
}
