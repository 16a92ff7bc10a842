// Package httpapi wires the ops server: Gin middleware, the Telegram webhook
// endpoint, registry lookups, health and Prometheus metrics.
//
// Middleware order:
//  1. OpenTelemetry tracing
//  2. RequestID
//  3. Logger
//  4. Recovery
//  5. Body size limit
//  6. Metrics (and the /metrics endpoint)
//  7. Gzip for JSON responses
//  8. Security headers
//
// The webhook route adds the secret-token check and a per-IP rate limit; the
// API group shares a second per-IP limiter.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-relay-bot/internal/config"
	"github.com/tbourn/go-relay-bot/internal/http/handlers"
	"github.com/tbourn/go-relay-bot/internal/http/middleware"
	"github.com/tbourn/go-relay-bot/internal/ratelimit"
	"github.com/tbourn/go-relay-bot/internal/repo"
	"github.com/tbourn/go-relay-bot/internal/services"
)

// maxBodyBytes caps request bodies; Telegram updates are far smaller.
const maxBodyBytes = 1 << 20

// webhookRPS bounds webhook deliveries per source IP. Telegram delivers from
// a handful of addresses, so the bucket is generous.
const (
	webhookRPS   = 50
	webhookBurst = 100
)

// RegisterRoutes attaches middleware and endpoints to r. updates receives
// webhook deliveries; the webhook route is mounted only in webhook mode.
// The returned Handlers must be drained on shutdown.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, updates handlers.UpdateHandler, cfg config.Config) *handlers.Handlers {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics", cfg.WebhookPath})))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS: cfg.Security.EnableHSTS,
		HSTSMaxAge: cfg.Security.HSTSMaxAge,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	h := handlers.New(
		services.NewPostRegistry(db),
		func(ctx context.Context) (repo.Stats, error) { return repo.RegistryStats(ctx, db) },
		func(ctx context.Context) error { return repo.Ping(ctx, db) },
		updates,
	)

	r.GET("/health", h.Health)

	if cfg.UpdateMode == config.ModeWebhook && updates != nil {
		r.POST(cfg.WebhookPath,
			middleware.WebhookSecret(cfg.WebhookSecret),
			middleware.RateLimit(ratelimit.NewKeyed(webhookRPS, webhookBurst), webhookRPS, nil),
			h.Webhook,
		)
	}

	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(middleware.RateLimit(ratelimit.NewKeyed(cfg.RateRPS, cfg.RateBurst), cfg.RateRPS, nil))
	{
		api.GET("/posts/:code", h.GetPost)
		api.GET("/stats", h.GetStats)
	}
	return h
}

// limitBody caps the request body at maxBytes; reads past it fail.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
