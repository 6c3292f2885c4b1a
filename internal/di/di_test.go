package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-commerce-go/internal/config"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/dao"
	"github.com/jrjohn/arcana-commerce-go/internal/jobs"
	"github.com/jrjohn/arcana-commerce-go/internal/mail"
	"github.com/jrjohn/arcana-commerce-go/internal/observability"
	"github.com/jrjohn/arcana-commerce-go/internal/testutil/mocks"
)

func TestAppModule_Validates(t *testing.T) {
	if err := fx.ValidateApp(AppModule, fx.Invoke(PrintBanner), fx.NopLogger); err != nil {
		t.Fatalf("ValidateApp() error = %v", err)
	}
}

func TestPrintBanner(t *testing.T) {
	logger := zap.NewNop()
	cfg := &config.Config{
		App: config.AppConfig{
			Name:        "test-app",
			Version:     "1.0.0",
			Environment: "test",
		},
		Storage: config.StorageConfig{Driver: config.StorageLocal},
		Mail:    config.MailConfig{Driver: config.MailLog, Dispatch: config.DispatchAsync},
	}

	// Just ensure PrintBanner doesn't panic
	PrintBanner(cfg, logger)
}

func TestProvideLogger(t *testing.T) {
	for _, debug := range []bool{true, false} {
		logger, err := provideLogger(&config.AppConfig{Debug: debug, LogLevel: "info"})
		if err != nil {
			t.Fatalf("provideLogger(debug=%v) error = %v", debug, err)
		}
		if logger == nil {
			t.Errorf("provideLogger(debug=%v) returned nil", debug)
		}
	}
}

func TestProvideMailSender(t *testing.T) {
	cfg := &config.Config{
		App:  config.AppConfig{Name: "Arcana"},
		Mail: config.MailConfig{Driver: config.MailLog, From: "no-reply@example.com"},
	}

	sender, err := provideMailSender(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("provideMailSender() error = %v", err)
	}
	if _, ok := sender.(*mail.LogSender); !ok {
		t.Errorf("provideMailSender() = %T, want *mail.LogSender", sender)
	}

	cfg.Mail.Driver = "carrier-pigeon"
	if _, err := provideMailSender(cfg, zap.NewNop()); err == nil {
		t.Error("provideMailSender() expected error for unknown driver")
	}
}

func disabledMetrics(t *testing.T) *observability.MetricsProvider {
	t.Helper()
	mp, err := observability.NewMetricsProvider(config.MetricsConfig{}, "test", zap.NewNop())
	if err != nil {
		t.Fatalf("NewMetricsProvider() error = %v", err)
	}
	return mp
}

func TestProvideMailDispatcher_Async(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	cfg := &config.Config{Mail: config.MailConfig{Dispatch: config.DispatchAsync, Workers: 1}}

	dispatcher, err := provideMailDispatcher(lc, cfg, mail.NewLogSender("a@example.com", zap.NewNop()), nil, disabledMetrics(t), zap.NewNop())
	if err != nil {
		t.Fatalf("provideMailDispatcher() error = %v", err)
	}
	if _, ok := dispatcher.(*mail.AsyncDispatcher); !ok {
		t.Fatalf("provideMailDispatcher() = %T, want *mail.AsyncDispatcher", dispatcher)
	}

	lc.RequireStart()
	if err := dispatcher.Dispatch(context.Background(), mail.Message{To: "b@example.com", Subject: "hi"}); err != nil {
		t.Errorf("Dispatch() error = %v", err)
	}
	lc.RequireStop()
}

func TestProvideMailDispatcher_RedisRequiresClient(t *testing.T) {
	cfg := &config.Config{Mail: config.MailConfig{Dispatch: config.DispatchRedis}}

	_, err := provideMailDispatcher(fxtest.NewLifecycle(t), cfg, mail.NewLogSender("a@example.com", zap.NewNop()), nil, disabledMetrics(t), zap.NewNop())
	if err == nil {
		t.Error("provideMailDispatcher() expected error without a redis client")
	}
}

func TestProvideResetRateLimiter(t *testing.T) {
	limiter := provideResetRateLimiter(&config.SecurityConfig{ResetRateLimit: 0.001, ResetRateBurst: 2})

	if !limiter.Allow("1.2.3.4") || !limiter.Allow("1.2.3.4") {
		t.Fatal("burst requests should be allowed")
	}
	if limiter.Allow("1.2.3.4") {
		t.Error("request over the burst should be limited")
	}
}

func newMockCollections() dao.Collections {
	return dao.Collections{
		Categories:    mocks.NewMockDocumentDAO(dao.CategoriesCollection),
		Subcategories: mocks.NewMockDocumentDAO(dao.SubcategoriesCollection),
		Brands:        mocks.NewMockDocumentDAO(dao.BrandsCollection),
		Products:      mocks.NewMockDocumentDAO(dao.ProductsCollection),
		Reviews:       mocks.NewMockDocumentDAO(dao.ReviewsCollection),
		Coupons:       mocks.NewMockDocumentDAO(dao.CouponsCollection),
		Users:         mocks.NewMockDocumentDAO(dao.UsersCollection),
	}
}

func TestProvideMaintenance_WithoutRedis(t *testing.T) {
	cfg := &config.Config{
		Security: config.SecurityConfig{ResetTokenTTL: 10 * time.Minute},
		Jobs:     config.JobsConfig{Enabled: true, Schedule: "@every 1m"},
	}
	tokens := mocks.NewMockResetTokenDAO()
	collections := newMockCollections()

	tracing, err := observability.NewTracingProvider(config.TracingConfig{}, observability.ServiceInfo{Name: "test"}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewTracingProvider() error = %v", err)
	}

	m := provideMaintenance(cfg, tokens, collections, nil, disabledMetrics(t), tracing, zap.NewNop())

	result, err := m.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if result != (jobs.SweepResult{}) {
		t.Errorf("RunOnce() = %+v, want nothing swept", result)
	}
}

func TestProvideGinEngine(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Name: "test", Debug: true}}
	router := provideGinEngine(cfg, disabledMetrics(t), zap.NewNop())
	router.GET("/only-get", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/only-get", http.StatusOK},
		{http.MethodGet, "/nowhere", http.StatusNotFound},
		{http.MethodPost, "/only-get", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
		if w.Code != tt.want {
			t.Errorf("%s %s = %d, want %d", tt.method, tt.path, w.Code, tt.want)
		}
		if w.Header().Get("X-Request-ID") == "" {
			t.Errorf("%s %s has no request id", tt.method, tt.path)
		}
	}
}

func TestWorkerModule_Validates(t *testing.T) {
	if err := fx.ValidateApp(WorkerModule, fx.NopLogger); err != nil {
		t.Fatalf("ValidateApp() error = %v", err)
	}
}
