package server

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bankithung/ConsultancyDev/internal/domain"
	"github.com/bankithung/ConsultancyDev/internal/logging"
)

// announceRequest is the bridge payload from the main application's
// write path. An empty company id targets the operator room.
type announceRequest struct {
	CompanyID string          `json:"company_id"`
	Entity    string          `json:"entity"`
	Action    domain.Action   `json:"action"`
	Data      json.RawMessage `json:"data"`
}

func (s *Server) handleAnnounce(c echo.Context) error {
	var req announceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	if req.Entity == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "entity is required")
	}
	if !req.Action.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "action must be created, updated or deleted")
	}

	if err := s.announcer.AnnounceCompany(c.Request().Context(), req.CompanyID, req.Entity, req.Action, req.Data); err != nil {
		logging.WithError(err).Error("Announce failed", "entity", req.Entity, "action", req.Action)
		return echo.NewHTTPError(http.StatusBadGateway, "failed to publish announcement")
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "published"})
}

func (s *Server) handleInstances(c echo.Context) error {
	if s.registry == nil {
		return c.JSON(http.StatusOK, map[string]any{"instances": []any{}})
	}

	infos, err := s.registry.GetInstanceInfo(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "instance registry unavailable")
	}

	return c.JSON(http.StatusOK, map[string]any{"instances": infos})
}
