package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/ratelimit"
	"github.com/spec-kit/helpdesk-service/internal/repository/memory"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/worker"
)

const (
	adminEmail    = "admin@helpdesk.test"
	adminPassword = "admin-secret"
)

type testServer struct {
	app   *fiber.App
	creds *service.CredentialStore
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
	Stack   string          `json:"stack"`
}

type authData struct {
	User  map[string]any `json:"user"`
	Token string         `json:"token"`
}

type ticketView struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Priority    string         `json:"priority"`
	Status      string         `json:"status"`
	UserID      string         `json:"userId"`
	User        map[string]any `json:"user"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	creds := service.NewCredentialStore(memory.NewUserRepository(store), bcrypt.MinCost)
	metrics := observability.NewMetrics()
	authSvc := service.NewAuthService(service.AuthDependencies{
		Credentials: creds,
		Tokens:      auth.NewTokenManager("test-secret", time.Hour),
		Limiter:     ratelimit.NewMemoryLimiter(5, time.Minute),
		Metrics:     metrics,
	})
	dispatcher := events.NewInMemoryDispatcher()
	worker.RegisterTicketObservers(dispatcher, zap.NewNop(), metrics)
	ticketSvc := service.NewTicketService(service.TicketDependencies{
		TicketRepo: memory.NewTicketRepository(store),
		Dispatcher: dispatcher,
	})

	_, err := authSvc.EnsureAdmin(context.Background(), config.BootstrapConfig{
		AdminEmail:    adminEmail,
		AdminPassword: adminPassword,
		AdminName:     "Admin",
	})
	require.NoError(t, err)

	app := NewApp(AppConfig{
		Name: "helpdesk-test",
		Middlewares: MiddlewareConfig{
			Timeout:        5 * time.Second,
			AllowedOrigins: []string{"http://localhost:3000"},
			Development:    true,
		},
		Routes: RouteConfig{
			ServiceName:    "helpdesk-test",
			Version:        "test",
			Health:         handlers.NewHealthHandler("helpdesk-test", "test", map[string]handlers.Pinger{"store": store}),
			Auth:           handlers.NewAuthHandler(authSvc),
			Tickets:        handlers.NewTicketsHandler(ticketSvc),
			AuthMiddleware: auth.NewAuthMiddleware(authSvc),
		},
	}, zap.NewNop(), metrics)

	return &testServer{app: app, creds: creds}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch v := body.(type) {
		case string:
			reader = strings.NewReader(v)
		default:
			raw, err := json.Marshal(v)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env, raw
}

func (s *testServer) register(t *testing.T, email, password, name string) authData {
	t.Helper()
	status, env, raw := s.do(t, fiber.MethodPost, "/auth/register", "",
		map[string]string{"email": email, "password": password, "name": name})
	require.Equal(t, fiber.StatusCreated, status, string(raw))
	var data authData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	return data
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	status, env, raw := s.do(t, fiber.MethodPost, "/auth/login", "",
		map[string]string{"email": email, "password": password})
	require.Equal(t, fiber.StatusOK, status, string(raw))
	var data authData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Token
}

func (s *testServer) createTicket(t *testing.T, token string, body map[string]any) ticketView {
	t.Helper()
	status, env, raw := s.do(t, fiber.MethodPost, "/tickets", token, body)
	require.Equal(t, fiber.StatusCreated, status, string(raw))
	return decodeTicket(t, env)
}

func decodeTicket(t *testing.T, env envelope) ticketView {
	t.Helper()
	var data struct {
		Ticket ticketView `json:"ticket"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Ticket
}

func decodeTickets(t *testing.T, env envelope) []ticketView {
	t.Helper()
	var data struct {
		Tickets []ticketView `json:"tickets"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Tickets
}

func validTicket(title string) map[string]any {
	return map[string]any{"title": title, "description": "Paper jam x2"}
}
