// Package httpapi wires the HTTP transport (Gin) to the resource pipeline,
// middleware, and the credential handlers. It centralizes cross-cutting
// concerns such as tracing, correlation IDs, logging, panic recovery,
// metrics, authentication, rate limiting, CORS, and security headers.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Authentication at the transport edge, business rules in hooks
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/xqin/go-blog-backend/internal/auth"
	"github.com/xqin/go-blog-backend/internal/config"
	"github.com/xqin/go-blog-backend/internal/crud"
	"github.com/xqin/go-blog-backend/internal/domain"
	"github.com/xqin/go-blog-backend/internal/http/handlers"
	"github.com/xqin/go-blog-backend/internal/http/middleware"
	"github.com/xqin/go-blog-backend/internal/services"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine: observability (tracing, metrics), the authentication gate, rate
// limiting, CORS and security headers, health and metrics endpoints, and the
// versioned resource API.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured request logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Authentication gate (pass-list fragments bypass it)
//  8. Rate limiter (per profile/IP)
//  9. CORS, gzip and security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, issuer *auth.Issuer, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured request logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Authentication gate. Everything not on the pass-list needs a
	// valid bearer token; rejection is HTTP 401, never an envelope.
	r.Use(middleware.Gate(issuer, cfg.Auth.PassList))

	// 8) Token-bucket rate limiter per profile/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByPrincipalOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Compress list-heavy responses
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "route not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"detail": "method not allowed"})
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (off by default)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← db/issuer
	userSvc := services.NewUserService(db, issuer)
	authH := handlers.NewAuthHandlers(userSvc, func() int64 { return int64(issuer.TTL() / time.Second) })

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Credentials
		api.POST("/users/login", authH.Login)
		api.GET("/users/me", authH.Me)

		// User profiles
		crud.New[domain.UserProfile](db, cfg.CRUD, services.UserSpec(), services.NewUserHooks(cfg.CRUD)).
			Mount(api, "users")

		// Content
		crud.New[domain.Label](db, cfg.CRUD, services.LabelSpec(), services.NewLabelHooks(cfg.CRUD)).
			Mount(api, "labels")
		crud.New[domain.Link](db, cfg.CRUD, services.LinkSpec(), services.NewLinkHooks(cfg.CRUD)).
			Mount(api, "links")
		crud.New[domain.Classification](db, cfg.CRUD, services.ClassificationSpec(), services.NewClassificationHooks(cfg.CRUD)).
			Mount(api, "classifications")
		crud.New[domain.Article](db, cfg.CRUD, services.ArticleSpec(), services.NewArticleHooks(cfg.CRUD)).
			Mount(api, "articles")
		crud.New[domain.Menu](db, cfg.CRUD, services.MenuSpec(), services.NewMenuHooks(cfg.CRUD)).
			Mount(api, "menus")
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
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
