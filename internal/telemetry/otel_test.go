package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"otasync/internal/config"
	"otasync/internal/telemetry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	oteltrace "go.opentelemetry.io/otel/trace"
)

func TestNoopScope(t *testing.T) {
	otl := telemetry.New(&config.Config{})

	ctx, scope := otl.NewScope(context.Background(), telemetry.ScopeSync, "sync.test")
	assert.NotNil(t, ctx)

	assert.NotPanics(t, func() {
		scope.SetAttributes(map[string]any{
			telemetry.AttrProperty: "30357",
			"count":                3,
			"flag":                 true,
			"ids":                  []string{"a"},
			"other":                1.5,
		})
		scope.TraceIfError(nil)
		scope.TraceError(errors.New("boom"))
		scope.End()
	})

	assert.NoError(t, otl.Shutdown(context.Background()))
}

func TestScope_RecordsOnSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	scope := telemetry.NewScope(func() oteltrace.Span {
		_, span := provider.Tracer("test").Start(context.Background(), "dedup.Upsert")
		return span
	}())
	scope.SetAttribute(telemetry.AttrProperty, "30357")
	scope.SetAttributes(map[string]any{"records": 3, "amount": 1.5, "dry": true})
	scope.TraceIfError(nil)
	scope.TraceIfError(errors.New("store down"))
	scope.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)

	got := map[attribute.Key]attribute.Value{}
	for _, kv := range spans[0].Attributes() {
		got[kv.Key] = kv.Value
	}
	assert.Equal(t, "30357", got[attribute.Key(telemetry.AttrProperty)].AsString())
	assert.Equal(t, int64(3), got["records"].AsInt64())
	assert.Equal(t, 1.5, got["amount"].AsFloat64())
	assert.True(t, got["dry"].AsBool())

	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "store down", spans[0].Status().Description)
	assert.Len(t, spans[0].Events(), 1)
}
