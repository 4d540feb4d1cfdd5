package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	return rec
}

func TestNew_AddsServiceAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Service: "marketplace", Env: "test", Level: "debug", Output: &buf})

	ctx := WithRequestID(context.Background(), "req-42")
	log.InfoContext(ctx, "checkout done", "orders", 2)

	rec := decodeLine(t, &buf)
	assert.Equal(t, "marketplace", rec["service"])
	assert.Equal(t, "test", rec["env"])
	assert.Equal(t, "req-42", rec["request_id"])
	assert.Equal(t, float64(2), rec["orders"])
	assert.NotContains(t, rec, "trace_id")
}

func TestNew_AddsTraceFromSpanContext(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Service: "marketplace", Output: &buf}).With("component", "checkout")

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	log.WarnContext(ctx, "slow store")

	rec := decodeLine(t, &buf)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", rec["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", rec["span_id"])
	assert.Equal(t, "checkout", rec["component"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel(" warning "))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("whatever"))
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "warn", Output: &buf})

	log.Info("dropped")
	assert.Zero(t, buf.Len())
}
