package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/ratelimit"
	"github.com/spec-kit/helpdesk-service/internal/repository/memory"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

type fixture struct {
	store   *memory.Store
	creds   *CredentialStore
	auth    *AuthService
	tickets *TicketService
	tokens  *auth.TokenManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	creds := NewCredentialStore(memory.NewUserRepository(store), bcrypt.MinCost)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	return &fixture{
		store:  store,
		creds:  creds,
		tokens: tokens,
		auth: NewAuthService(AuthDependencies{
			Credentials: creds,
			Tokens:      tokens,
			Limiter:     ratelimit.NewMemoryLimiter(3, time.Minute),
		}),
		tickets: NewTicketService(TicketDependencies{TicketRepo: memory.NewTicketRepository(store)}),
	}
}

func (f *fixture) user(t *testing.T, email string, role domain.Role) *domain.User {
	t.Helper()
	u, err := f.creds.Create(context.Background(), email, "secret1", strings.Split(email, "@")[0], role)
	require.NoError(t, err)
	return u
}

func requireStatus(t *testing.T, err error, status int) *apperrors.DomainError {
	t.Helper()
	require.Error(t, err)
	derr := apperrors.ToDomainError(err)
	require.Equal(t, status, derr.HTTPStatus, derr.Message)
	return derr
}

func ptr[T any](v T) *T { return &v }
