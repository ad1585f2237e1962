package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/atlas-voyages/travelstore/internal/auth"
	"github.com/atlas-voyages/travelstore/internal/cart"
	"github.com/atlas-voyages/travelstore/internal/catalog"
	"github.com/atlas-voyages/travelstore/internal/config"
	"github.com/atlas-voyages/travelstore/internal/events"
	"github.com/atlas-voyages/travelstore/internal/handlers"
	"github.com/atlas-voyages/travelstore/internal/router"
	"github.com/atlas-voyages/travelstore/internal/seed"
	"github.com/atlas-voyages/travelstore/internal/storage"
	"github.com/atlas-voyages/travelstore/internal/websocket"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load(".")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx := context.Background()

	store, cleanup, err := buildStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage backend")
	}
	defer cleanup()

	adapter := storage.NewAdapter(store, logger)
	bus := events.NewBus()

	var seeder catalog.Seeder
	if cfg.SeedBaseURL != "" {
		seeder = seed.NewLoader(adapter, cfg.SeedBaseURL, logger)
	} else {
		logger.Warn().Msg("no seed source configured, serving persisted data only")
	}

	catalogSvc := catalog.NewService(adapter, seeder, bus, logger)
	catalogSvc.Initialize(ctx)

	cartSvc := cart.NewService(ctx, adapter, catalogSvc, bus, cfg.MaxCartQuantity)

	authSvc := auth.NewService(adapter, bus, cfg.AdminEmail, cfg.AdminPassword)
	authSvc.CheckAuth(ctx)

	hub := websocket.NewHub(bus, logger)
	go hub.Run()

	h := handlers.NewHandler(catalogSvc, cartSvc, authSvc)
	r := router.SetupRouter(h, hub)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.ServerPort).
			Str("backend", cfg.StorageBackend).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}

// buildStore selects the durable store backend from config. The
// returned cleanup closes any underlying connections.
func buildStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (storage.Store, func(), error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return storage.NewMemoryStore(), func() {}, nil

	case config.BackendFile:
		fs, err := storage.NewFileStore(cfg.StorageDir)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, err
		}
		return storage.NewRedisStore(client, cfg.RedisPrefix), func() { client.Close() }, nil

	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		pg := storage.NewPostgresStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return pg, func() { pool.Close() }, nil
	}

	// config.Load already validated the selector
	logger.Panic().Str("backend", cfg.StorageBackend).Msg("unreachable storage backend")
	return nil, nil, nil
}
