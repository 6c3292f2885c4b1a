package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-commerce-go/internal/config"
)

var testService = ServiceInfo{Name: "arcana-commerce-test", Version: "1.0.0", Environment: "test"}

func TestNewTracingProvider_Disabled(t *testing.T) {
	tp, err := NewTracingProvider(config.TracingConfig{Enabled: false}, testService, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, tp)
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestNewTracingProvider_Sampling(t *testing.T) {
	tests := []struct {
		name string
		rate float64
	}{
		{"always", 1.0},
		{"never", 0},
		{"ratio", 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp, err := NewTracingProvider(config.TracingConfig{
				Enabled:      true,
				ExporterType: "stdout",
				SamplingRate: tt.rate,
			}, testService, zap.NewNop())
			require.NoError(t, err)
			assert.NoError(t, tp.Shutdown(context.Background()))
		})
	}
}

func TestNewTracingProvider_UnknownExporterFallsBackToStdout(t *testing.T) {
	tp, err := NewTracingProvider(config.TracingConfig{
		Enabled:      true,
		ExporterType: "zipkin",
		SamplingRate: 1.0,
	}, testService, zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestServiceResource_MergesWithSDKDefaults(t *testing.T) {
	res, err := serviceResource(testService)
	require.NoError(t, err)

	attrs := make(map[string]string)
	for _, kv := range res.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "arcana-commerce-test", attrs["service.name"])
	assert.Equal(t, "1.0.0", attrs["service.version"])
	assert.Equal(t, "test", attrs["deployment.environment"])
	assert.Equal(t, "go", attrs["telemetry.sdk.language"])
}

func TestTracingProvider_StartSpan(t *testing.T) {
	tp, err := NewTracingProvider(config.TracingConfig{}, testService, zap.NewNop())
	require.NoError(t, err)

	ctx, span := tp.StartSpan(context.Background(), "sweep")
	require.NotNil(t, span)
	assert.NotNil(t, ctx)
	span.End()
}

func TestSpanHelpers(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		AddSpanAttributes(ctx, AttrHTTPRoute.String("/api/v1/products"), AttrUserID.String("u1"))
		RecordSpanError(ctx, errors.New("boom"))
		SetSpanStatus(ctx, codes.Error, "boom")
	})
}

func TestAttrKeys(t *testing.T) {
	assert.Equal(t, "http.method", string(AttrHTTPMethod))
	assert.Equal(t, "http.route", string(AttrHTTPRoute))
	assert.Equal(t, "http.status_code", string(AttrHTTPStatusCode))
	assert.Equal(t, "db.collection.name", string(AttrCollection))
	assert.Equal(t, "mail.result", string(AttrMailResult))
}
