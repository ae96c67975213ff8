package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/ehr/clinic/internal/config"
	"github.com/ehr/clinic/internal/domain/identity"
	"github.com/ehr/clinic/internal/domain/mentalgenerals"
	"github.com/ehr/clinic/internal/platform/cache"
	"github.com/ehr/clinic/internal/platform/db"
	"github.com/ehr/clinic/internal/platform/logging"
	"github.com/ehr/clinic/internal/platform/middleware"
)

const (
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
	maxBodySize     = "256K"
)

// services holds the constructed domain services handed to the router.
type services struct {
	identity       *identity.Service
	mentalGenerals *mentalgenerals.Service
}

// wireServices builds the domain services over the given repositories and
// registers the patient delete cascade.
func wireServices(patients identity.PatientRepository, records mentalgenerals.Repository, inTx identity.TxFunc) services {
	identitySvc := identity.NewService(patients, inTx)
	mgSvc := mentalgenerals.NewService(records, identitySvc, mentalgenerals.TxFunc(inTx))
	identitySvc.OnDelete(func(ctx context.Context, patientID uuid.UUID) error {
		return mgSvc.Delete(ctx, patientID)
	})
	return services{identity: identitySvc, mentalGenerals: mgSvc}
}

// healthChecks are the optional dependency probes mounted under /health.
type healthChecks struct {
	db    echo.HandlerFunc
	cache echo.HandlerFunc
}

func newRouter(cfg *config.Config, logger zerolog.Logger, svcs services, checks healthChecks) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Content-Type", middleware.RequestIDHeader},
	}))
	e.Use(middleware.BodyLimit(maxBodySize))
	e.Use(middleware.RequestTimeout(requestTimeout))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if checks.db != nil {
		e.GET("/health/db", checks.db)
	}
	if checks.cache != nil {
		e.GET("/health/cache", checks.cache)
	}

	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
		IdleTTL:           middleware.DefaultRateLimitConfig().IdleTTL,
	}))

	identity.NewHandler(svcs.identity).RegisterRoutes(apiV1)
	mentalgenerals.NewHandler(svcs.mentalGenerals).RegisterRoutes(apiV1)

	return e
}

// recordRepository returns the Postgres repository, wrapped in the Redis read
// cache when one is configured and reachable. The health handler is nil
// without a cache.
func recordRepository(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) (mentalgenerals.Repository, echo.HandlerFunc, func()) {
	repo := mentalgenerals.NewRepoPG(pool)
	if !cfg.CacheEnabled() {
		return repo, nil, func() {}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rdb, err := cache.NewRedis(pingCtx, cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable; serving mental generals without read cache")
		return repo, nil, func() {}
	}
	logger.Info().Dur("ttl", cfg.RecordCacheTTL).Msg("mental generals read cache enabled")
	return mentalgenerals.NewCachedRepo(repo, rdb, cfg.RecordCacheTTL, logger), cache.HealthHandler(rdb), func() { _ = rdb.Close() }
}

func runServer(migrate bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		Dev:        cfg.IsDev(),
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	if migrate {
		count, err := db.NewMigrator(pool, cfg.MigrationsDir).Up(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
		logger.Info().Int("applied", count).Msg("migrations applied")
	}

	records, cacheHealth, closeCache := recordRepository(ctx, cfg, pool, logger)
	defer closeCache()

	svcs := wireServices(identity.NewPatientRepoPG(pool), records, func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.WithTx(ctx, pool, fn)
	})
	e := newRouter(cfg, logger, svcs, healthChecks{db: db.HealthHandler(pool), cache: cacheHealth})

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
