package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/ratelimit"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// AuthService coordinates registration, login and token resolution.
type AuthService struct {
	creds    *CredentialStore
	tokenMgr *auth.TokenManager
	limiter  ratelimit.LoginLimiter
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	Credentials *CredentialStore
	Tokens      *auth.TokenManager
	Limiter     ratelimit.LoginLimiter
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	limiter := deps.Limiter
	if limiter == nil {
		limiter = ratelimit.Noop{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		creds:    deps.Credentials,
		tokenMgr: deps.Tokens,
		limiter:  limiter,
		metrics:  deps.Metrics,
		logger:   logger,
	}
}

// Register creates a regular account and signs the caller in.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, domain.Token, error) {
	user, err := s.creds.Create(ctx, email, password, name, domain.RoleUser)
	if err != nil {
		return nil, domain.Token{}, err
	}

	token, err := s.tokenMgr.GenerateToken(user.ID)
	if err != nil {
		return nil, domain.Token{}, apperrors.NewInternalError(err)
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, token, nil
}

// Login authenticates by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, domain.Token, error) {
	user, err := s.verifyThrottled(ctx, email, password)
	if err != nil {
		switch {
		case apperrors.IsCode(err, apperrors.CodeTooManyRequests):
			s.metrics.RecordLogin("throttled")
		case apperrors.IsCode(err, apperrors.CodeUnauthorized):
			s.metrics.RecordLogin("failure")
		}
		return nil, domain.Token{}, err
	}

	token, err := s.tokenMgr.GenerateToken(user.ID)
	if err != nil {
		return nil, domain.Token{}, apperrors.NewInternalError(err)
	}
	s.metrics.RecordLogin("success")
	return user, token, nil
}

// Authenticate resolves a bearer token to its user. Tokens referring to
// deleted users are rejected.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokenMgr.ParseToken(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, apperrors.NewUnauthorized("token expired, please sign in again")
		}
		return nil, apperrors.NewUnauthorized("invalid token")
	}

	user, err := s.creds.FindByID(ctx, claims.UserID())
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeNotFound) {
			return nil, apperrors.NewUnauthorized("user not found, invalid token")
		}
		return nil, err
	}
	return user, nil
}

// ChangePassword verifies the current password before storing a new one.
func (s *AuthService) ChangePassword(ctx context.Context, user *domain.User, currentPassword, newPassword string) error {
	if _, err := s.verifyThrottled(ctx, user.Email, currentPassword); err != nil {
		if apperrors.IsCode(err, apperrors.CodeUnauthorized) {
			return apperrors.NewUnauthorized("current password is incorrect")
		}
		return err
	}
	return s.creds.UpdatePassword(ctx, user.ID, newPassword)
}

// EnsureAdmin seeds the reserved administrator account when it is missing.
// Without a configured password nothing is created.
func (s *AuthService) EnsureAdmin(ctx context.Context, cfg config.BootstrapConfig) (bool, error) {
	if cfg.AdminEmail == "" {
		return false, nil
	}
	if _, err := s.creds.users.GetByEmail(ctx, cfg.AdminEmail); err == nil {
		s.logger.Info("bootstrap admin already present", zap.String("email", cfg.AdminEmail))
		return false, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}

	if cfg.AdminPassword == "" {
		s.logger.Warn("bootstrap admin missing and BOOTSTRAP_ADMIN_PASSWORD unset; skipping",
			zap.String("email", cfg.AdminEmail))
		return false, nil
	}

	if _, err := s.creds.Create(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName, domain.RoleAdmin); err != nil {
		if apperrors.IsCode(err, apperrors.CodeConflict) {
			return false, nil
		}
		return false, fmt.Errorf("seed admin: %w", err)
	}
	s.logger.Info("bootstrap admin created", zap.String("email", cfg.AdminEmail))
	return true, nil
}

// Credentials exposes the underlying credential store.
func (s *AuthService) Credentials() *CredentialStore {
	return s.creds
}

// verifyThrottled checks a password against the per-email failure budget.
// A limiter outage lets the attempt through.
func (s *AuthService) verifyThrottled(ctx context.Context, email, password string) (*domain.User, error) {
	key := ratelimit.Key(email)
	allowed, retryAfter, err := s.limiter.Allow(ctx, key)
	if err != nil {
		s.logger.Warn("login limiter unavailable", zap.Error(err))
	} else if !allowed {
		return nil, throttled(retryAfter)
	}

	user, err := s.creds.Verify(ctx, email, password)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeUnauthorized) {
			if ferr := s.limiter.Fail(ctx, key); ferr != nil {
				s.logger.Warn("record failed login", zap.Error(ferr))
			}
		}
		return nil, err
	}

	if rerr := s.limiter.Reset(ctx, key); rerr != nil {
		s.logger.Warn("reset login counter", zap.Error(rerr))
	}
	return user, nil
}

func throttled(retryAfter time.Duration) error {
	return apperrors.NewDomainError(apperrors.CodeTooManyRequests,
		"too many failed login attempts, try again later", http.StatusTooManyRequests,
		map[string]any{"retryAfterSeconds": int(math.Ceil(retryAfter.Seconds()))})
}
