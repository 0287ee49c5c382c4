package server

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/bankithung/ConsultancyDev/internal/broadcast"
	"github.com/bankithung/ConsultancyDev/internal/bus"
	"github.com/bankithung/ConsultancyDev/internal/config"
	"github.com/bankithung/ConsultancyDev/internal/domain"
	"github.com/bankithung/ConsultancyDev/internal/router"
)

const testJWTSecret = "test-secret-test-secret-test-secret!"

// stubDirectory resolves users from a fixed map.
type stubDirectory struct {
	companies map[uuid.UUID]string
	err       error
}

func (d *stubDirectory) LookupCompany(_ context.Context, userID uuid.UUID) (string, error) {
	if d.err != nil {
		return "", d.err
	}
	company, ok := d.companies[userID]
	if !ok {
		return "", domain.ErrUserNotFound
	}
	return company, nil
}

type serverOption func(*Server)

func withRedisHealthCheck(checker redisHealthChecker) serverOption {
	return func(s *Server) { s.redisHealthCheck = checker }
}

func withPostgresHealthCheck(checker postgresHealthChecker) serverOption {
	return func(s *Server) { s.postgresHealthCheck = checker }
}

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:              "test",
		Port:                "0",
		JWTSecret:           testJWTSecret,
		MaxClientsPerRoom:   10,
		MaxConnections:      100,
		MaxConnectionsPerIP: 100,
		ConnectionRate:      1000,
		ConnectionBurst:     1000,
	}
}

// newTestServer wires a server onto an in-memory bus with the bus
// subscription feeding the hub, mirroring production wiring.
func newTestServer(t *testing.T, directory domain.UserDirectory, opts ...serverOption) *Server {
	t.Helper()

	memBus := bus.NewMemoryBus()
	hub := broadcast.NewHub(10, nil, clockwork.NewRealClock())
	announcer := router.NewAnnouncer(memBus)

	ctx, cancel := context.WithCancel(context.Background())
	subscribed := make(chan struct{})
	go func() {
		close(subscribed)
		memBus.Subscribe(ctx, hub.Dispatch)
	}()
	<-subscribed
	// Give the subscriber loop a beat to register with the bus.
	time.Sleep(10 * time.Millisecond)

	t.Cleanup(func() {
		cancel()
		hub.Stop()
		memBus.Close()
	})

	srv := NewServer(testConfig(), hub, directory, announcer, nil, nil, nil)
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

// signToken issues a test JWT for userID.
func signToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()

	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}
