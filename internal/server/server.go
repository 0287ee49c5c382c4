package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"

	"github.com/bankithung/ConsultancyDev/internal/broadcast"
	"github.com/bankithung/ConsultancyDev/internal/config"
	"github.com/bankithung/ConsultancyDev/internal/coordination"
	"github.com/bankithung/ConsultancyDev/internal/domain"
	apperrors "github.com/bankithung/ConsultancyDev/internal/errors"
	"github.com/bankithung/ConsultancyDev/internal/router"
)

type Server struct {
	echo      *echo.Echo
	config    *config.Config
	hub       *broadcast.Hub
	directory domain.UserDirectory
	announcer *router.Announcer
	limits    *ConnectionLimits
	registry  *coordination.InstanceRegistry
	startTime time.Time

	// nil in single-process (in-memory bus) deployments
	redisClient *goredis.Client
	db          *pgxpool.Pool

	// test overrides
	redisHealthCheck    redisHealthChecker
	postgresHealthCheck postgresHealthChecker
}

func NewServer(cfg *config.Config, hub *broadcast.Hub, directory domain.UserDirectory, announcer *router.Announcer, db *pgxpool.Pool, redisClient *goredis.Client, registry *coordination.InstanceRegistry) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(correlationMiddleware)
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:        e,
		config:      cfg,
		hub:         hub,
		directory:   directory,
		announcer:   announcer,
		limits:      NewConnectionLimits(cfg.MaxConnections, cfg.MaxConnectionsPerIP, cfg.ConnectionRate, cfg.ConnectionBurst),
		registry:    registry,
		startTime:   time.Now(),
		redisClient: redisClient,
		db:          db,
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
