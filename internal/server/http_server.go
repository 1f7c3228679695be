package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	ginapi "go.pilab.hu/shadow-auth/api/gin"
	"go.pilab.hu/shadow-auth/config"
	"go.pilab.hu/shadow-auth/log"
	"go.pilab.hu/shadow-auth/middleware"
	"go.pilab.hu/shadow-auth/services"
)

const meterName = "go.pilab.hu/shadow-auth/internal/server"

// HealthCheck reports whether one backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Deps are the collaborators the HTTP layer is wired to.
type Deps struct {
	AuthAPI   *ginapi.AuthAPI
	Validator services.AccessTokenValidator
	Gatherer  prometheus.Gatherer
	Health    map[string]HealthCheck
}

// NewRouter builds the gin engine. The error translator sits right after recovery so
// every later handler can report failures with c.Error.
func NewRouter(serviceName string, appLogger log.Logger, deps Deps) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(requestLogger(appLogger))
	router.Use(otelgin.Middleware(serviceName))
	router.Use(requestMetrics())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.ErrorTranslator())

	router.GET("/healthz", healthHandler(deps.Health))
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	authenticated := router.Group("/", middleware.BearerAuthenticator(deps.Validator))
	deps.AuthAPI.RegisterRoutes(router, authenticated)

	return router
}

// NewHTTPServer wraps the router in an http.Server listening on cfg.HTTPPort.
func NewHTTPServer(cfg *config.ServerConfig, appLogger log.Logger, deps Deps) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           NewRouter(cfg.OtelServiceName, appLogger, deps),
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func requestLogger(appLogger log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
			"ip":         c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
		}
		if last := c.Errors.Last(); last != nil {
			appLogger.Warn(c.Request.Context(), "HTTP Request", fields, map[string]interface{}{"error": last.Error()})
			return
		}
		appLogger.Info(c.Request.Context(), "HTTP Request", fields)
	}
}

// requestMetrics records request latency on the global otel MeterProvider, labelled by
// route template rather than raw path.
func requestMetrics() gin.HandlerFunc {
	duration, err := otel.Meter(meterName).Float64Histogram(
		"http.server.request.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of HTTP server requests."),
	)
	if err != nil {
		otel.Handle(err)
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		duration.Record(c.Request.Context(), time.Since(start).Seconds(), metric.WithAttributes(
			attribute.String("http.request.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.Int("http.response.status_code", c.Writer.Status()),
		))
	}
}

func healthHandler(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = "unavailable"
				continue
			}
			results[name] = "ok"
		}

		c.JSON(status, gin.H{"status": http.StatusText(status), "checks": results})
	}
}
