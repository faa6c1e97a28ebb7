package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// msgBadCredentials is shared by every login failure so callers cannot probe for accounts.
const msgBadCredentials = "incorrect email or password"

var msgPasswordTooLong = fmt.Sprintf("password must be at most %d bytes", auth.MaxPasswordBytes)

type credentialInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
	Name     string `validate:"required"`
}

// CredentialStore persists accounts and owns password hashing. Every write
// path that touches a password hashes it here before it reaches the repository.
type CredentialStore struct {
	users      repository.UserRepository
	bcryptCost int
	dummyHash  string
}

// NewCredentialStore builds the store.
func NewCredentialStore(users repository.UserRepository, bcryptCost int) *CredentialStore {
	dummy, _ := auth.HashPassword("not-a-real-password", bcryptCost)
	return &CredentialStore{users: users, bcryptCost: bcryptCost, dummyHash: dummy}
}

// Create registers a new account with a freshly hashed password.
func (s *CredentialStore) Create(ctx context.Context, email, rawPassword, name string, role domain.Role) (*domain.User, error) {
	in := credentialInput{Email: strings.TrimSpace(email), Password: rawPassword, Name: strings.TrimSpace(name)}
	if err := validate.Struct(in); err != nil {
		return nil, credentialError(err)
	}
	if len(in.Password) > auth.MaxPasswordBytes {
		return nil, apperrors.NewValidationError(msgPasswordTooLong, nil)
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": role})
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperrors.NewConflict("an account with this email already exists", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Email:        in.Email,
		PasswordHash: hash,
		Name:         in.Name,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewConflict("an account with this email already exists", nil)
		}
		return nil, err
	}
	return user, nil
}

// Verify checks a login attempt. Unknown emails and wrong passwords fail identically.
func (s *CredentialStore) Verify(ctx context.Context, email, rawPassword string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = auth.ComparePassword(s.dummyHash, rawPassword)
			return nil, apperrors.NewUnauthorized(msgBadCredentials)
		}
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, rawPassword); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperrors.NewUnauthorized(msgBadCredentials)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// FindByID returns the account or a NotFound error.
func (s *CredentialStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, err
	}
	return user, nil
}

// UpdatePassword re-hashes and stores a new password.
func (s *CredentialStore) UpdatePassword(ctx context.Context, id, rawPassword string) error {
	if err := validate.Var(rawPassword, passwordRule); err != nil {
		return apperrors.NewValidationError("password must be at least 6 characters", nil)
	}
	if len(rawPassword) > auth.MaxPasswordBytes {
		return apperrors.NewValidationError(msgPasswordTooLong, nil)
	}
	hash, err := auth.HashPassword(rawPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("user", nil)
		}
		return err
	}
	return nil
}

// Delete removes the account together with its tickets.
func (s *CredentialStore) Delete(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("user", nil)
		}
		return err
	}
	return nil
}

func credentialError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperrors.NewValidationError("invalid credentials payload", nil)
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return apperrors.NewValidationError("email, password and name are required", nil)
		}
	}
	switch verrs[0].Field() {
	case "Email":
		return apperrors.NewValidationError("invalid email format", nil)
	case "Password":
		return apperrors.NewValidationError("password must be at least 6 characters", nil)
	}
	return apperrors.NewValidationError("invalid credentials payload", nil)
}
