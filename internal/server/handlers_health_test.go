package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRedisClient provides a minimal mock for health check testing
type mockRedisClient struct {
	pingErr error
}

func (m *mockRedisClient) Ping(ctx context.Context) *goredis.StatusCmd {
	cmd := goredis.NewStatusCmd(ctx)
	if m.pingErr != nil {
		cmd.SetErr(m.pingErr)
	} else {
		cmd.SetVal("PONG")
	}
	return cmd
}

// mockPgxPool provides a minimal mock for PostgreSQL health checks
type mockPgxPool struct {
	pingErr error
}

func (m *mockPgxPool) Ping(ctx context.Context) error {
	return m.pingErr
}

func invokeHandler(t *testing.T, handler echo.HandlerFunc, path string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, handler(c))
	return rec
}

func TestHandleLiveness(t *testing.T) {
	srv := newTestServer(t, &stubDirectory{})

	rec := invokeHandler(t, srv.handleLiveness, "/health/live")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestHandleReadiness_AllHealthy(t *testing.T) {
	srv := newTestServer(t, &stubDirectory{},
		withPostgresHealthCheck(&mockPgxPool{}),
		withRedisHealthCheck(&mockRedisClient{}),
	)

	rec := invokeHandler(t, srv.handleReadiness, "/health/ready")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}

func TestHandleReadiness_PostgresDown(t *testing.T) {
	srv := newTestServer(t, &stubDirectory{},
		withPostgresHealthCheck(&mockPgxPool{pingErr: errors.New("connection refused")}),
		withRedisHealthCheck(&mockRedisClient{}),
	)

	rec := invokeHandler(t, srv.handleReadiness, "/health/ready")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"failed_check":"postgres"`)
}

func TestHandleReadiness_RedisDown(t *testing.T) {
	srv := newTestServer(t, &stubDirectory{},
		withPostgresHealthCheck(&mockPgxPool{}),
		withRedisHealthCheck(&mockRedisClient{pingErr: errors.New("connection refused")}),
	)

	rec := invokeHandler(t, srv.handleReadiness, "/health/ready")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"failed_check":"redis"`)
}

func TestHandleReadiness_NoRedisConfigured(t *testing.T) {
	// Single-process deployments carry no Redis; readiness must not
	// require one.
	srv := newTestServer(t, &stubDirectory{},
		withPostgresHealthCheck(&mockPgxPool{}),
	)

	rec := invokeHandler(t, srv.handleReadiness, "/health/ready")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleVersion(t *testing.T) {
	srv := newTestServer(t, &stubDirectory{})

	rec := invokeHandler(t, srv.handleVersion, "/version")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"go_version"`)
}
