package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints (no auth required)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.GET("/version", s.handleVersion)

	// Websocket session endpoint (authenticated)
	s.echo.GET("/ws/updates", s.handleUpdates, s.requireAuth)

	// Internal bridge for the main application's write path (authenticated)
	s.echo.POST("/internal/announce", s.handleAnnounce, s.requireAuth)
	s.echo.GET("/internal/instances", s.handleInstances, s.requireAuth)
}
