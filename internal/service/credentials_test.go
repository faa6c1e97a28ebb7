package service

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func TestCredentialStoreCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	user, err := f.creds.Create(ctx, "a@x.com", "secret", "A", domain.RoleUser)
	require.NoError(t, err, "six characters is long enough")
	assert.NotEqual(t, "secret", user.PasswordHash)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, domain.RoleUser, user.Role)

	cases := []struct {
		name     string
		email    string
		password string
		userName string
		status   int
		message  string
	}{
		{"duplicate email", "a@x.com", "different", "Other", http.StatusConflict, "an account with this email already exists"},
		{"short password", "b@x.com", "12345", "B", http.StatusBadRequest, "password must be at least 6 characters"},
		{"password over 72 bytes", "b@x.com", strings.Repeat("p", 80), "B", http.StatusBadRequest, "password must be at most 72 bytes"},
		{"bad email", "not-an-email", "secret1", "B", http.StatusBadRequest, "invalid email format"},
		{"missing name", "b@x.com", "secret1", "", http.StatusBadRequest, "email, password and name are required"},
		{"missing password", "b@x.com", "", "B", http.StatusBadRequest, "email, password and name are required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.creds.Create(ctx, tc.email, tc.password, tc.userName, domain.RoleUser)
			derr := requireStatus(t, err, tc.status)
			assert.Equal(t, tc.message, derr.Message)
		})
	}
}

func TestCredentialStoreVerify(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	created := f.user(t, "a@x.com", domain.RoleUser)

	user, err := f.creds.Verify(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, wrongPassword := f.creds.Verify(ctx, "a@x.com", "nope-nope")
	_, unknownEmail := f.creds.Verify(ctx, "ghost@x.com", "secret1")
	a := requireStatus(t, wrongPassword, http.StatusUnauthorized)
	b := requireStatus(t, unknownEmail, http.StatusUnauthorized)
	assert.Equal(t, "incorrect email or password", a.Message)
	assert.Equal(t, a.Message, b.Message)
	assert.Equal(t, a.Code, b.Code)
}

func TestCredentialStoreFindAndUpdatePassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	created := f.user(t, "a@x.com", domain.RoleUser)

	_, err := f.creds.FindByID(ctx, "missing")
	requireStatus(t, err, http.StatusNotFound)

	requireStatus(t, f.creds.UpdatePassword(ctx, created.ID, "short"), http.StatusBadRequest)
	requireStatus(t, f.creds.UpdatePassword(ctx, created.ID, strings.Repeat("p", 80)), http.StatusBadRequest)
	require.NoError(t, f.creds.UpdatePassword(ctx, created.ID, "another-secret"))

	_, err = f.creds.Verify(ctx, "a@x.com", "secret1")
	requireStatus(t, err, http.StatusUnauthorized)
	_, err = f.creds.Verify(ctx, "a@x.com", "another-secret")
	assert.NoError(t, err)

	_, err = f.creds.Verify(ctx, "a@x.com", strings.Repeat("p", 80))
	requireStatus(t, err, http.StatusUnauthorized)
}

func TestCredentialStoreDeleteCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "a@x.com", domain.RoleUser)
	admin := f.user(t, "admin@x.com", domain.RoleAdmin)

	ticket, err := f.tickets.CreateTicket(ctx, owner, CreateTicketInput{Title: "Printer broken", Description: "It jams on page 2"})
	require.NoError(t, err)

	require.NoError(t, f.creds.Delete(ctx, owner.ID))
	_, err = f.tickets.GetTicket(ctx, admin, ticket.ID)
	requireStatus(t, err, http.StatusNotFound)
	requireStatus(t, f.creds.Delete(ctx, owner.ID), http.StatusNotFound)
}
