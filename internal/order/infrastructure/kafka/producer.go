package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/order-consistency-engine/pkg/tracing"
)

// Writer publishes outbox events. Messages carry their own topic and are
// hashed by key, so events of one order land on one partition.
type Writer struct {
	*kafka.Writer
	tracer trace.Tracer
}

func NewWriter(log *slog.Logger, brokers []string) *Writer {
	return &Writer{
		Writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 50 * time.Millisecond,
			ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
				log.Error("kafka writer", "detail", fmt.Sprintf(msg, args...))
			}),
		},
		tracer: otel.Tracer("order-event-producer"),
	}
}

// WriteMessages publishes msgs in one produce span. Messages without a
// traceparent are stamped with that span.
func (w *Writer) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	ctx, span := w.tracer.Start(ctx, "Produce", trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(attribute.Int("messaging.batch.message_count", len(msgs))))
	defer span.End()

	for i := range msgs {
		if (tracing.HeaderCarrier{Headers: &msgs[i].Headers}).Get(tracing.TraceparentHeader) == "" {
			msgs[i].Headers = tracing.InjectKafkaHeaders(ctx, msgs[i].Headers)
		}
	}
	if err := w.Writer.WriteMessages(ctx, msgs...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "produce failed")
		return err
	}
	return nil
}
