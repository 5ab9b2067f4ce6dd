package outbox

import (
	"context"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/dmehra2102/order-consistency-engine/pkg/tracing"
)

type Producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Dispatcher struct {
	log      *slog.Logger
	producer Producer
	topic    string
}

func NewDispatcher(log *slog.Logger, producer Producer, topic string) *Dispatcher {
	return &Dispatcher{log: log, producer: producer, topic: topic}
}

// Dispatch publishes e keyed by its aggregate so events of one order stay
// ordered within a partition.
func (d *Dispatcher) Dispatch(ctx context.Context, e Event) error {
	headers := make([]kafka.Header, 0, len(e.Headers)+3)
	for k, v := range e.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	headers = append(headers,
		kafka.Header{Key: "event_type", Value: []byte(e.Type)},
		kafka.Header{Key: "aggregate_type", Value: []byte(e.AggregateType)},
	)
	if e.Traceparent != "" {
		tracing.HeaderCarrier{Headers: &headers}.Set(tracing.TraceparentHeader, e.Traceparent)
	}

	msg := kafka.Message{
		Topic:   d.topic,
		Key:     []byte(e.AggregateID),
		Value:   e.Payload,
		Headers: headers,
	}
	if err := d.producer.WriteMessages(ctx, msg); err != nil {
		d.log.Error("outbox dispatch failed", "event_id", e.ID, "type", e.Type, "err", err)
		return err
	}
	d.log.Debug("outbox dispatched", "event_id", e.ID, "type", e.Type)
	return nil
}
