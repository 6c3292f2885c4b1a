package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jrjohn/arcana-commerce-go/internal/config"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/dao"
	apperrors "github.com/jrjohn/arcana-commerce-go/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter() *gin.Engine {
	r := gin.New()
	r.Use(ErrorHandler(zap.NewNop(), false))
	return r
}

type envelope struct {
	Status  string         `json:"status"`
	Data    map[string]any `json:"data"`
	Message string         `json:"message"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// RequestID Tests
func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	t.Run("generates new request ID", func(t *testing.T) {
		w := serve(router, httptest.NewRequest(http.MethodGet, "/test", nil))

		headerID := w.Header().Get(RequestIDHeader)
		assert.NotEmpty(t, headerID)
		assert.Equal(t, headerID, w.Body.String())
	})

	t.Run("uses provided request ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, "custom-request-id")
		w := serve(router, req)

		assert.Equal(t, "custom-request-id", w.Header().Get(RequestIDHeader))
	})

	t.Run("replaces malformed request ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, "bad id\nwith newline")
		w := serve(router, req)

		assert.NotEqual(t, "bad id\nwith newline", w.Header().Get(RequestIDHeader))
		assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	})
}

func TestGetRequestID(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, "", GetRequestID(c))

	c.Set(RequestIDKey, 123)
	assert.Equal(t, "", GetRequestID(c))

	c.Set(RequestIDKey, "test-id")
	assert.Equal(t, "test-id", GetRequestID(c))
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name        string
		production  bool
		err         error
		wantStatus  int
		wantEnvelop string
		check       func(t *testing.T, env envelope)
	}{
		{
			name:        "validation details",
			err:         apperrors.Validation(map[string]string{"name": "name is required"}),
			wantStatus:  http.StatusBadRequest,
			wantEnvelop: "fail",
			check: func(t *testing.T, env envelope) {
				assert.Equal(t, "name is required", env.Data["name"])
			},
		},
		{
			name:        "client error without details",
			err:         apperrors.ErrConflict,
			wantStatus:  http.StatusConflict,
			wantEnvelop: "fail",
			check: func(t *testing.T, env envelope) {
				assert.Equal(t, "resource conflict", env.Data["message"])
			},
		},
		{
			name:        "unexpected error in debug",
			err:         errors.New("connection refused"),
			wantStatus:  http.StatusInternalServerError,
			wantEnvelop: "error",
			check: func(t *testing.T, env envelope) {
				assert.Equal(t, "connection refused", env.Message)
			},
		},
		{
			name:        "unexpected error in production",
			production:  true,
			err:         errors.New("connection refused"),
			wantStatus:  http.StatusInternalServerError,
			wantEnvelop: "error",
			check: func(t *testing.T, env envelope) {
				assert.Equal(t, GenericErrorMessage, env.Message)
			},
		},
		{
			name:        "service unavailable",
			err:         apperrors.ErrServiceUnavailable,
			wantStatus:  http.StatusServiceUnavailable,
			wantEnvelop: "error",
		},
		{
			name:        "store unavailable",
			err:         fmt.Errorf("count products: %w", dao.ErrUnavailable),
			wantStatus:  http.StatusServiceUnavailable,
			wantEnvelop: "error",
			check: func(t *testing.T, env envelope) {
				assert.Equal(t, "service unavailable: count products: store unavailable", env.Message)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(ErrorHandler(zap.NewNop(), tt.production))
			r.GET("/", func(c *gin.Context) { _ = c.Error(tt.err) })

			w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.wantStatus, w.Code)
			env := decode(t, w)
			assert.Equal(t, tt.wantEnvelop, env.Status)
			if tt.check != nil {
				tt.check(t, env)
			}
		})
	}
}

func TestErrorHandler_LogsWithRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(RequestID())
	r.Use(Logger(zap.New(core)))
	r.Use(ErrorHandler(zap.NewNop(), false))
	r.GET("/", func(c *gin.Context) { _ = c.Error(errors.New("connection refused")) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := serve(r, req)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	failed := logs.FilterMessage("Request failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "req-42", failed[0].ContextMap()["request_id"])
}

func TestErrorHandler_LeavesWrittenResponses(t *testing.T) {
	r := newTestRouter()
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "done")
		_ = c.Error(errors.New("late"))
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "done", w.Body.String())
}

func TestNoRouteAndNoMethod(t *testing.T) {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.NoRoute(NoRoute())
	r.NoMethod(NoMethod())
	r.GET("/things", func(c *gin.Context) {})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	env := decode(t, w)
	assert.Equal(t, "fail", env.Status)
	assert.Equal(t, "404 Not Found", env.Data["message"])
	assert.Equal(t, "/missing", env.Data["path"])
	assert.Equal(t, "GET", env.Data["method"])

	w = serve(r, httptest.NewRequest(http.MethodPost, "/things", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "fail", decode(t, w).Status)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zap.NewNop()))
	r.GET("/panic", func(c *gin.Context) { panic("test panic") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	env := decode(t, w)
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, "internal server error", env.Message)
}

func TestLogger(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Logger(zap.NewNop()))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/err", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
		c.Status(http.StatusInternalServerError)
	})

	for _, path := range []string{"/ok", "/bad", "/err"} {
		w := serve(r, httptest.NewRequest(http.MethodGet, path+"?q=1", nil))
		assert.NotZero(t, w.Code)
	}
}

func TestCORS(t *testing.T) {
	cfg := NewCORSConfig(config.CORSConfig{AllowOrigins: []string{"https://shop.example.com"}})
	r := gin.New()
	r.Use(CORS(cfg))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("allowed origin is reflected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://shop.example.com")
		w := serve(r, req)

		assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("other origin is not", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := serve(r, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", "https://shop.example.com")
		w := serve(r, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "43200", w.Header().Get("Access-Control-Max-Age"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
	})
}

func TestResolveAllowedOrigin(t *testing.T) {
	assert.Equal(t, "https://a.com", resolveAllowedOrigin("https://a.com", []string{"*"}))
	assert.Equal(t, "", resolveAllowedOrigin("", []string{"*"}))
	assert.Equal(t, "", resolveAllowedOrigin("https://a.com", []string{"https://b.com"}))
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(0.001, 2, time.Minute)
	r := newTestRouter()
	r.POST("/forgot", limiter.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		w := serve(r, httptest.NewRequest(http.MethodPost, "/forgot", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := serve(r, httptest.NewRequest(http.MethodPost, "/forgot", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	env := decode(t, w)
	assert.Equal(t, "fail", env.Status)
	assert.True(t, strings.HasPrefix(env.Data["message"].(string), "too many requests"))
}

func TestRateLimiter_PerClient(t *testing.T) {
	limiter := NewRateLimiter(0.001, 1, time.Minute)

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.2"))
}

func TestRateLimiter_ForgetsIdleClients(t *testing.T) {
	limiter := NewRateLimiter(0.001, 1, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))

	now = now.Add(2 * time.Minute)
	assert.True(t, limiter.Allow("10.0.0.1"))
}

func decodeJSON(w *httptest.ResponseRecorder, v any) error {
	return json.Unmarshal(w.Body.Bytes(), v)
}
