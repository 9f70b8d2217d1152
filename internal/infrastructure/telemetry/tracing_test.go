package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())

	// No-op provider shuts down and flushes cleanly.
	assert.NoError(t, tp.Shutdown(context.Background()))
	assert.NoError(t, tp.ForceFlush(context.Background()))
	assert.NotNil(t, tp.Tracer("test"))
}

func TestStartSpan_NoopProvider(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "lineage.trace",
		WithAttribute(SpanAttrEntityUID, "ORDER-1716890000-A1B2C3D4E5"),
	)
	require.NotNil(t, span)
	defer span.End()

	assert.Equal(t, span, SpanFromContext(ctx))

	SetAttributes(span, SpanAttrMaxDepth, 5, SpanAttrNodeCount, 12)
	SetAttribute(span, SpanAttrStatus, "APPROVED")
	AddEvent(span, "relation_loaded", SpanAttrRelationType, "PAYMENT")
	RecordError(span, errors.New("lookup failed"))
	SetOK(span)
}

func TestGetTraceID_Empty(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
}

func TestToAttribute(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  attribute.KeyValue
	}{
		{"string", "ORDER", attribute.String("k", "ORDER")},
		{"int", 5, attribute.Int("k", 5)},
		{"int64", int64(9), attribute.Int64("k", 9)},
		{"float64", 0.5, attribute.Float64("k", 0.5)},
		{"bool", true, attribute.Bool("k", true)},
		{"slice", []string{"a", "b"}, attribute.StringSlice("k", []string{"a", "b"})},
		{"fallback", struct{}{}, attribute.String("k", "{}")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, toAttribute("k", tt.value))
		})
	}
}
