package http

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	status, env, _ := s.do(t, fiber.MethodGet, "/nope", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.False(t, env.Success)
	assert.Equal(t, "route not found", env.Message)
}

func TestIndexAndHealth(t *testing.T) {
	s := newTestServer(t)

	status, env, _ := s.do(t, fiber.MethodGet, "/", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), "POST /auth/register")

	status, env, _ = s.do(t, fiber.MethodGet, "/health/live", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "alive", env.Message)

	status, env, _ = s.do(t, fiber.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"dependencies":{"store":"ok"}}`, string(env.Data))
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "a@x.com", "secret1", "A")

	resp, err := s.app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "http_requests_total")
}

func TestPanicIsRenderedAsInternalError(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop(), true)})
	RegisterMiddlewares(app, zap.NewNop(), nil, MiddlewareConfig{Development: true})
	app.Get("/boom", func(*fiber.Ctx) error { panic("kaboom") })
	s := &testServer{app: app}

	status, env, _ := s.do(t, fiber.MethodGet, "/boom", "", nil)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.False(t, env.Success)
	assert.Equal(t, "internal server error", env.Message)
	assert.NotEmpty(t, env.Stack)
}
