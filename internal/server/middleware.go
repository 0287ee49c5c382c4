package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/bankithung/ConsultancyDev/internal/correlation"
	"github.com/bankithung/ConsultancyDev/internal/domain"
)

const correlationHeader = "X-Correlation-ID"

// correlationMiddleware tags every request with a correlation id so log
// lines from one request can be stitched together. An inbound header
// from the main application is honored; otherwise one is generated.
func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Request().Header.Get(correlationHeader)
		if id == "" {
			id = correlation.NewID()
		}

		ctx := correlation.WithID(c.Request().Context(), id)
		c.SetRequest(c.Request().WithContext(ctx))
		c.Response().Header().Set(correlationHeader, id)

		return next(c)
	}
}

const identityContextKey = "identity"

// requireAuth validates the bearer token and attaches the caller's
// identity to the request context. Browsers cannot set headers on
// websocket handshakes, so a token query parameter is accepted as a
// fallback.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := extractToken(c)
		if token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing credentials")
		}

		identity, err := s.parseToken(token)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}

		c.Set(identityContextKey, identity)
		return next(c)
	}
}

func extractToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.QueryParam("token")
}

func (s *Server) parseToken(tokenString string) (domain.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil {
		return domain.Identity{}, err
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return domain.Identity{}, fmt.Errorf("token has no subject")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("token subject is not a user id: %w", err)
	}

	return domain.Identity{UserID: userID, IsAuthenticated: true}, nil
}

// identityFromContext returns the identity set by requireAuth. The zero
// identity is unauthenticated.
func identityFromContext(c echo.Context) domain.Identity {
	identity, _ := c.Get(identityContextKey).(domain.Identity)
	return identity
}
