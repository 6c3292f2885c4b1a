package http

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-commerce-go/internal/dto/response"
	"github.com/jrjohn/arcana-commerce-go/internal/observability"
)

const readinessTimeout = 2 * time.Second

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// SystemController serves liveness, readiness and metrics outside the API prefix
type SystemController struct {
	version     string
	checks      map[string]HealthCheck
	metrics     *observability.MetricsProvider
	metricsPath string
	logger      *zap.Logger
}

// NewSystemController creates a new SystemController instance. metrics may be nil.
func NewSystemController(version string, checks map[string]HealthCheck, metrics *observability.MetricsProvider, metricsPath string, logger *zap.Logger) *SystemController {
	return &SystemController{
		version:     version,
		checks:      checks,
		metrics:     metrics,
		metricsPath: metricsPath,
		logger:      logger,
	}
}

// RegisterRoutes registers the system routes on the engine root
func (c *SystemController) RegisterRoutes(router gin.IRoutes) {
	router.GET("/health", c.Health)
	router.GET("/ready", c.Ready)
	if c.metrics != nil && c.metrics.Enabled() && c.metricsPath != "" {
		router.GET(c.metricsPath, gin.WrapH(c.metrics.Handler()))
	}
}

// Health reports that the process is up
// @Summary Liveness probe
// @Tags System
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /health [get]
func (c *SystemController) Health(ctx *gin.Context) {
	response.Write(ctx, http.StatusOK, response.Success(gin.H{
		"status":  "healthy",
		"version": c.version,
	}))
}

// Ready runs every dependency check
// @Summary Readiness probe
// @Tags System
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /ready [get]
func (c *SystemController) Ready(ctx *gin.Context) {
	checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), readinessTimeout)
	defer cancel()

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(gin.H, len(names))
	ready := true
	for _, name := range names {
		if err := c.checks[name](checkCtx); err != nil {
			c.logger.Warn("Readiness check failed", zap.String("check", name), zap.Error(err))
			results[name] = "down"
			ready = false
			continue
		}
		results[name] = "up"
	}

	if !ready {
		response.Write(ctx, http.StatusServiceUnavailable, response.Fail(gin.H{
			"status": "not ready",
			"checks": results,
		}))
		return
	}
	response.Write(ctx, http.StatusOK, response.Success(gin.H{
		"status": "ready",
		"checks": results,
	}))
}
