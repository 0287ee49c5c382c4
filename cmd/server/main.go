package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/bankithung/ConsultancyDev/internal/broadcast"
	"github.com/bankithung/ConsultancyDev/internal/bus"
	"github.com/bankithung/ConsultancyDev/internal/config"
	"github.com/bankithung/ConsultancyDev/internal/coordination"
	"github.com/bankithung/ConsultancyDev/internal/database"
	"github.com/bankithung/ConsultancyDev/internal/domain"
	"github.com/bankithung/ConsultancyDev/internal/logging"
	"github.com/bankithung/ConsultancyDev/internal/redis"
	"github.com/bankithung/ConsultancyDev/internal/router"
	"github.com/bankithung/ConsultancyDev/internal/server"
	"github.com/bankithung/ConsultancyDev/internal/version"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

// setupBus selects the fanout transport: redis pub/sub when REDIS_URL is
// set, an in-process bus otherwise. The redis client is nil in the
// single-process case.
func setupBus(ctx context.Context, cfg *config.Config) (domain.Bus, *redis.Client) {
	if cfg.RedisURL == "" {
		slog.Info("No Redis configured, using in-memory fanout bus")
		return bus.NewMemoryBus(), nil
	}

	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return redis.NewBus(client), client
}

func instanceID() string {
	hostname, err := os.Hostname()
	if err != nil {
		return uuid.New().String()
	}
	return hostname + "-" + uuid.New().String()[:8]
}

func runGracefulShutdown(cfg *config.Config, srv *server.Server, hub *broadcast.Hub, cancelBackground context.CancelFunc) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		hub.Stop()
		cancelBackground()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", version.Version)

	pool := setupDB(cfg)
	defer pool.Close()

	backgroundCtx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	fanoutBus, redisClient := setupBus(backgroundCtx, cfg)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	hub := broadcast.NewHub(cfg.MaxClientsPerRoom, func(room string) {
		slog.Debug("Room released", "room", room)
	}, clock)

	// Every instance's subscription feeds its local hub, the publisher's
	// included, so announcements are published to the bus only.
	go fanoutBus.Subscribe(backgroundCtx, hub.Dispatch)

	announcer := router.NewAnnouncer(fanoutBus)
	directory := database.NewUserDirectory(pool)

	var registry *coordination.InstanceRegistry
	if redisClient != nil {
		registry = coordination.NewInstanceRegistry(redisClient.Underlying(), instanceID(), cfg.InstanceHeartbeat, version.Version, hub.SessionCount)
		go registry.Start(backgroundCtx)
	}

	var srv *server.Server
	if redisClient != nil {
		srv = server.NewServer(cfg, hub, directory, announcer, pool, redisClient.Underlying(), registry)
	} else {
		srv = server.NewServer(cfg, hub, directory, announcer, pool, nil, registry)
	}

	done := runGracefulShutdown(cfg, srv, hub, cancelBackground)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
