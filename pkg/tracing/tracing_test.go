package tracing

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func remoteContext(t *testing.T) context.Context {
	t.Helper()
	tid, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	sid, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: tid, SpanID: sid, TraceFlags: trace.FlagsSampled, Remote: true})
	return trace.ContextWithRemoteSpanContext(context.Background(), sc)
}

func TestTraceparentRoundTrip(t *testing.T) {
	ctx := remoteContext(t)
	tp := Traceparent(ctx)
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", tp)

	got := trace.SpanContextFromContext(WithTraceparent(context.Background(), tp))
	assert.Equal(t, trace.SpanContextFromContext(ctx).TraceID(), got.TraceID())
}

func TestTraceparentWithoutSpan(t *testing.T) {
	assert.Empty(t, Traceparent(context.Background()))
	ctx := context.Background()
	assert.Equal(t, ctx, WithTraceparent(ctx, ""))
}

func TestKafkaHeaders(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	headers := InjectKafkaHeaders(remoteContext(t), []kafka.Header{{Key: "event_type", Value: []byte("x")}})
	assert.Len(t, headers, 2)

	ctx := ExtractKafkaHeaders(context.Background(), headers)
	assert.True(t, trace.SpanContextFromContext(ctx).IsValid())
}

func TestHeaderCarrierReplaces(t *testing.T) {
	headers := []kafka.Header{{Key: TraceparentHeader, Value: []byte("stale")}}
	c := HeaderCarrier{Headers: &headers}

	c.Set(TraceparentHeader, "fresh")
	c.Set("tracestate", "k=v")
	assert.Equal(t, "fresh", c.Get(TraceparentHeader))
	assert.Equal(t, []string{TraceparentHeader, "tracestate"}, c.Keys())
	assert.Empty(t, c.Get("missing"))
}
