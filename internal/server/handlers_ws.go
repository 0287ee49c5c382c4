package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/bankithung/ConsultancyDev/internal/broadcast"
	"github.com/bankithung/ConsultancyDev/internal/domain"
	"github.com/bankithung/ConsultancyDev/internal/logging"
	"github.com/bankithung/ConsultancyDev/internal/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // tokens carry the trust, not the Origin header
	},
}

const connectedAck = "Connected to real-time updates"

// handleUpdates upgrades an authenticated request into an update session.
// The session's room is fixed at connect time from the user's company
// scope and never changes.
func (s *Server) handleUpdates(c echo.Context) error {
	identity := identityFromContext(c)
	if !identity.IsAuthenticated {
		metrics.WebSocketConnectionsRejected.WithLabelValues("unauthenticated").Inc()
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	ip := c.RealIP()
	if ok, reason := s.limits.Acquire(ip); !ok {
		metrics.WebSocketConnectionsRejected.WithLabelValues(string(reason)).Inc()
		if reason == LimitReasonRate {
			return echo.NewHTTPError(http.StatusTooManyRequests, "connection rate exceeded")
		}
		return echo.NewHTTPError(http.StatusServiceUnavailable, "connection limit reached")
	}

	room, err := s.resolveRoom(c, identity)
	if err != nil {
		s.limits.Release(ip)
		metrics.WebSocketConnectionsRejected.WithLabelValues("directory_error").Inc()
		return echo.NewHTTPError(http.StatusServiceUnavailable, "could not resolve session scope")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.limits.Release(ip)
		return fmt.Errorf("failed to upgrade WebSocket: %w", err)
	}

	sess, err := s.hub.Register(domain.GroupName(room), conn)
	if err != nil {
		s.limits.Release(ip)
		metrics.WebSocketConnectionsRejected.WithLabelValues("room_full").Inc()
		return nil
	}
	defer func() {
		sess.Close()
		s.limits.Release(ip)
	}()

	metrics.WebSocketConnectionsAccepted.WithLabelValues(roomKind(room)).Inc()
	logger := s.sessionLogger(identity, room, sess.ChannelID().String())
	logger.Info("Session connected")

	s.sendControl(sess, domain.ControlMessage{
		Type:    domain.MessageTypeConnectionEstablished,
		Message: connectedAck,
	})

	// Read pump - blocks until the connection closes
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		sess.RefreshReadDeadline()

		var msg domain.ControlMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue // non-JSON inbound frames are ignored
		}

		if msg.Type == domain.MessageTypePing {
			metrics.WebSocketKeepAlivePings.Inc()
			s.sendControl(sess, domain.ControlMessage{Type: domain.MessageTypePong})
		}
	}

	logger.Info("Session disconnected")
	return nil
}

// resolveRoom maps the caller to their room. Users unknown to the
// directory (operator accounts live outside the tenant tables) land in
// the sentinel room rather than being rejected.
func (s *Server) resolveRoom(c echo.Context, identity domain.Identity) (string, error) {
	companyID, err := s.directory.LookupCompany(c.Request().Context(), identity.UserID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.SentinelRoom, nil
	}
	if err != nil {
		return "", err
	}
	return domain.RoomForCompany(companyID), nil
}

func (s *Server) sendControl(sess *broadcast.Session, msg domain.ControlMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	sess.Send(data)
}

func (s *Server) sessionLogger(identity domain.Identity, room, channelID string) *slog.Logger {
	return logging.WithRoom(room).With("user_id", identity.UserID.String(), "channel_id", channelID)
}

func roomKind(room string) string {
	if room == domain.SentinelRoom {
		return "dev_admin"
	}
	return "company"
}
