// Package main is the entry point for the ELD planner API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"github.com/pkordes/eld-planner/internal/cache"
	"github.com/pkordes/eld-planner/internal/config"
	"github.com/pkordes/eld-planner/internal/geo"
	"github.com/pkordes/eld-planner/internal/handler"
	"github.com/pkordes/eld-planner/internal/hos"
	"github.com/pkordes/eld-planner/internal/middleware"
	"github.com/pkordes/eld-planner/internal/repo"
	"github.com/pkordes/eld-planner/internal/service"
	"github.com/pkordes/eld-planner/migrations"
	"github.com/pkordes/eld-planner/openapi"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	// --- Database ---------------------------------------------------------
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("create database pool: %w", err)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	slog.Info("database connection established")

	if cfg.MigrateOnStart {
		if err := migrate(ctx, pool); err != nil {
			return err
		}
	}

	// --- Planning engine --------------------------------------------------
	policy := hos.DefaultPolicy()
	policy.AvgSpeedMPH = cfg.AvgSpeedMPH
	policy.FuelIntervalMiles = cfg.FuelIntervalMiles
	segmenter, err := hos.NewSegmenter(policy)
	if err != nil {
		return fmt.Errorf("planning policy: %w", err)
	}

	router, closeRouter, err := newRouter(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRouter()

	// --- Services ---------------------------------------------------------
	trips := repo.NewTripRepo(pool)
	logs := repo.NewLogRepo(pool)
	tripSvc := service.NewTripService(trips, router, segmenter, cfg.RouteTimeout, logger)
	logSvc := service.NewLogService(trips, logs, segmenter, cfg.LogTimezone, logger)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer → CORS → body limit.
	// Recoverer catches panics and returns HTTP 500 instead of crashing.
	limiter := middleware.NewRateLimiter(cfg.PlanRateLimitRPS, cfg.PlanRateLimitBurst)
	stopSweep := make(chan struct{})
	defer close(stopSweep)
	go limiter.Run(time.Minute, stopSweep)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	srv := handler.NewServer(tripSvc, logSvc, logger)
	r.Mount("/", srv.Routes(handler.RouteOptions{
		Authenticate: middleware.NewAuthenticator([]byte(cfg.JWTSecret), logger),
		PlanLimiter:  limiter.Middleware,
		OpenAPI:      openapi.Document,
		Ping:         pool.Ping,
	}))

	// --- HTTP Server ------------------------------------------------------
	// The write timeout leaves room for the router timeout on POST /trips.
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RouteTimeout + 20*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-stop:
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// newRouter picks Google Maps when a key is configured and the coordinate
// router otherwise, and puts the Redis cache in front when REDIS_URL is set.
// The returned func releases the cache connection.
func newRouter(ctx context.Context, cfg config.Config, logger *slog.Logger) (geo.Router, func(), error) {
	var router geo.Router
	if cfg.GoogleMapsAPIKey != "" {
		g, err := geo.NewGoogleRouter(cfg.GoogleMapsAPIKey)
		if err != nil {
			return nil, nil, fmt.Errorf("google maps client: %w", err)
		}
		router = g
		slog.Info("routing via google maps")
	} else {
		router = geo.NewCoordinateRouter(cfg.AvgSpeedMPH)
		slog.Warn("GOOGLE_MAPS_API_KEY not set; only \"lat,lng\" locations can be planned")
	}

	if cfg.RedisURL == "" {
		return router, func() {}, nil
	}
	store, err := cache.NewRedisStore(ctx, cfg.RedisURL, "eld:")
	if err != nil {
		return nil, nil, fmt.Errorf("route cache: %w", err)
	}
	slog.Info("route cache enabled", "ttl", cfg.RouteCacheTTL.String())
	closeStore := func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing route cache", "error", err)
		}
	}
	return geo.NewCachedRouter(router, store, cfg.RouteCacheTTL, logger), closeStore, nil
}

// migrate applies pending goose migrations through the pool.
func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	for _, res := range results {
		slog.Info("migration applied", "version", res.Source.Version, "duration", res.Duration.String())
	}
	return nil
}
