package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/Stikerz/numan/internal/config"
	"github.com/Stikerz/numan/internal/domain/bloodtest"
	"github.com/Stikerz/numan/internal/domain/geolocation"
	"github.com/Stikerz/numan/internal/domain/identity"
	"github.com/Stikerz/numan/internal/domain/lab"
	"github.com/Stikerz/numan/internal/platform/apierr"
	"github.com/Stikerz/numan/internal/platform/auth"
	"github.com/Stikerz/numan/internal/platform/db"
	"github.com/Stikerz/numan/internal/platform/ipgeo"
	"github.com/Stikerz/numan/internal/platform/middleware"
	"github.com/Stikerz/numan/internal/web"
	"github.com/Stikerz/numan/migrations"
)

var version = "0.1.0"

// deps are the collaborators the HTTP server is assembled from.
type deps struct {
	tokens    auth.TokenResolver
	labs      *lab.Service
	orders    *bloodtest.Service
	locator   geolocation.Locator
	dbHealth  echo.HandlerFunc
	rateStore middleware.Store
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

func newServer(cfg *config.Config, logger zerolog.Logger, d deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apierr.HTTPErrorHandler(logger)

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, middleware.RequestIDHeader},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	if cfg.RequestTimeout > 0 {
		e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	if d.dbHealth != nil {
		e.GET("/health/db", d.dbHealth)
	}
	web.RegisterRoutes(e)

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 || rateLimitCfg.BurstSize <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	rateLimitCfg.Store = d.rateStore
	rateLimitCfg.Logger = logger

	api := e.Group("/api")
	api.Use(middleware.RateLimit(rateLimitCfg))
	api.Use(auth.TokenMiddleware(d.tokens))

	bloodtest.NewHandler(d.orders).RegisterRoutes(api)
	lab.NewHandler(d.labs).RegisterRoutes(api)
	geolocation.NewHandler(d.locator).RegisterRoutes(api)

	return e
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	if cfg.AutoMigrate {
		n, err := db.NewMigratorFS(pool, migrations.FS).Up(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
		logger.Info().Int("applied", n).Msg("migrations up to date")
	}

	var rateStore middleware.Store
	if cfg.RedisURL != "" {
		client, err := middleware.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer client.Close()
		rateStore = middleware.NewRedisStore(client, cfg.RateLimitRPS, cfg.RateLimitBurst)
		logger.Info().Msg("rate limiting backed by redis")
	}

	labSvc := lab.NewService(lab.NewRepoPG(pool))
	e := newServer(cfg, logger, deps{
		tokens: identity.NewService(identity.NewUserRepoPG(pool), identity.NewTokenRepoPG(pool)),
		labs:   labSvc,
		orders: bloodtest.NewService(bloodtest.NewRepoPG(pool), labSvc),
		locator: ipgeo.NewClient(ipgeo.Config{
			BaseURL: cfg.IPGeolocationBaseURL,
			APIKey:  cfg.IPGeolocationAPIKey,
			Timeout: cfg.IPGeolocationTimeout,
		}, logger),
		dbHealth:  db.HealthHandler(pool),
		rateStore: rateStore,
	})

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("version", version).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
