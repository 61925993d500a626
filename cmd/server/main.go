// Command server runs the blog backend HTTP API.
//
// Startup order: environment (.env optional) → configuration → logging →
// tracing → database (open, migrate, seed) → router → HTTP server with
// graceful shutdown.
//
// @title       Blog Backend API
// @version     1.0
// @description REST API for blog content and user management.
// @BasePath    /api/v1
//
// @securityDefinitions.apikey BearerAuth
// @in   header
// @name Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/xqin/go-blog-backend/internal/auth"
	"github.com/xqin/go-blog-backend/internal/config"
	httpapi "github.com/xqin/go-blog-backend/internal/http"
	"github.com/xqin/go-blog-backend/internal/observability"
	"github.com/xqin/go-blog-backend/internal/repo"
	"github.com/xqin/go-blog-backend/internal/services"
	"github.com/xqin/go-blog-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	if cfg.Auth.TokenSecret == "" {
		log.Fatal().Msg("TOKEN_SECRET must be set")
	}

	ctx := context.Background()
	shutdownTracing, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("tracing setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("database open failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	if err := services.EnsureSeedAdmin(ctx, db, cfg.SeedAdminUser, cfg.SeedAdminPass); err != nil {
		log.Fatal().Err(err).Msg("admin seeding failed")
	}

	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	issuer := auth.NewIssuer(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL)
	httpapi.RegisterRoutes(engine, db, issuer, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown failed")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("bye")
}
