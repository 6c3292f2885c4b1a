package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprometheus "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-commerce-go/internal/config"
)

// MailStats reports cumulative sent, failed and dropped mail counts.
type MailStats func() (sent, failed, dropped int64)

// MetricsProvider manages OpenTelemetry metrics exported to Prometheus
type MetricsProvider struct {
	config        config.MetricsConfig
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	logger        *zap.Logger
	registry      *prometheus.Registry
	handler       http.Handler

	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram
	sweptDocuments      metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider. A disabled provider
// records nothing and serves 404 on the metrics path.
func NewMetricsProvider(cfg config.MetricsConfig, serviceName string, logger *zap.Logger) (*MetricsProvider, error) {
	if !cfg.Enabled {
		return &MetricsProvider{
			config: cfg,
			meter:  otel.Meter(serviceName),
			logger: logger,
		}, nil
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exporter, err := otelprometheus.New(
		otelprometheus.WithRegisterer(registry),
	)
	if err != nil {
		return nil, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	mp := &MetricsProvider{
		config:        cfg,
		meterProvider: meterProvider,
		meter:         meterProvider.Meter(serviceName),
		logger:        logger,
		registry:      registry,
		handler:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}

	if err := mp.initMetrics(); err != nil {
		return nil, err
	}

	logger.Info("OpenTelemetry metrics initialized",
		zap.String("service", serviceName),
		zap.String("path", cfg.Path),
	)

	return mp, nil
}

func (mp *MetricsProvider) initMetrics() error {
	var err error

	mp.httpRequestsTotal, err = mp.meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return err
	}

	mp.httpRequestDuration, err = mp.meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	mp.sweptDocuments, err = mp.meter.Int64Counter(
		"maintenance_swept_documents_total",
		metric.WithDescription("Documents removed by the maintenance sweep"),
	)
	return err
}

// Enabled reports whether metrics are exported.
func (mp *MetricsProvider) Enabled() bool {
	return mp.meterProvider != nil
}

// RecordHTTPRequest records an HTTP request metric
func (mp *MetricsProvider) RecordHTTPRequest(ctx context.Context, method, route string, statusCode int, duration time.Duration) {
	if mp.httpRequestsTotal == nil {
		return
	}

	attrs := metric.WithAttributes(
		AttrHTTPMethod.String(method),
		AttrHTTPRoute.String(route),
		AttrHTTPStatusCode.Int(statusCode),
	)

	mp.httpRequestsTotal.Add(ctx, 1, attrs)
	mp.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordSweep counts the documents one maintenance sweep removed.
func (mp *MetricsProvider) RecordSweep(ctx context.Context, tokens, coupons int64) {
	if mp.sweptDocuments == nil {
		return
	}
	mp.sweptDocuments.Add(ctx, tokens, metric.WithAttributes(AttrCollection.String("reset_tokens")))
	mp.sweptDocuments.Add(ctx, coupons, metric.WithAttributes(AttrCollection.String("coupons")))
}

// ObserveMail exports the counters of an in-process mail pool.
func (mp *MetricsProvider) ObserveMail(stats MailStats) error {
	if !mp.Enabled() || stats == nil {
		return nil
	}

	counter, err := mp.meter.Int64ObservableCounter(
		"mail_messages_total",
		metric.WithDescription("Mail messages by delivery result"),
	)
	if err != nil {
		return err
	}

	_, err = mp.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		sent, failed, dropped := stats()
		o.ObserveInt64(counter, sent, metric.WithAttributes(AttrMailResult.String("sent")))
		o.ObserveInt64(counter, failed, metric.WithAttributes(AttrMailResult.String("failed")))
		o.ObserveInt64(counter, dropped, metric.WithAttributes(AttrMailResult.String("dropped")))
		return nil
	}, counter)
	return err
}

// Handler returns an HTTP handler for Prometheus metrics
func (mp *MetricsProvider) Handler() http.Handler {
	if mp.handler != nil {
		return mp.handler
	}
	return http.NotFoundHandler()
}

// Shutdown gracefully shuts down the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}
