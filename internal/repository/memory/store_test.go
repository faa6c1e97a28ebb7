package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

func newFixture(t *testing.T) (*Store, repository.UserRepository, repository.TicketRepository) {
	t.Helper()
	store := NewStore()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return store, NewUserRepository(store), NewTicketRepository(store)
}

func createUser(t *testing.T, users repository.UserRepository, email string) *domain.User {
	t.Helper()
	user := &domain.User{Email: email, Name: email, PasswordHash: "hash", Role: domain.RoleUser}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func createTicket(t *testing.T, tickets repository.TicketRepository, owner *domain.User, title string) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		Title:       title,
		Description: "a long enough description",
		Priority:    domain.TicketPriorityMedium,
		Status:      domain.TicketStatusOpen,
		UserID:      owner.ID,
	}
	require.NoError(t, tickets.Create(context.Background(), ticket))
	return ticket
}

func TestUserRepositoryDuplicateEmail(t *testing.T) {
	_, users, _ := newFixture(t)
	createUser(t, users, "a@x.com")

	err := users.Create(context.Background(), &domain.User{Email: "a@x.com", Name: "Other"})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
}

func TestUserRepositoryLookups(t *testing.T) {
	ctx := context.Background()
	_, users, _ := newFixture(t)
	created := createUser(t, users, "a@x.com")
	require.NotEmpty(t, created.ID)
	require.False(t, created.CreatedAt.IsZero())

	byID, err := users.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", byID.Email)

	byEmail, err := users.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = users.GetByEmail(ctx, "A@X.COM")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, users.UpdatePassword(ctx, created.ID, "new-hash"))
	updated, err := users.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", updated.PasswordHash)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	assert.ErrorIs(t, users.UpdatePassword(ctx, "missing", "x"), repository.ErrNotFound)
}

func TestTicketListingOrderAndScope(t *testing.T) {
	ctx := context.Background()
	_, users, tickets := newFixture(t)
	alice := createUser(t, users, "alice@x.com")
	bob := createUser(t, users, "bob@x.com")

	first := createTicket(t, tickets, alice, "first")
	second := createTicket(t, tickets, bob, "second")
	third := createTicket(t, tickets, alice, "third")

	all, err := tickets.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, []string{all[0].ID, all[1].ID, all[2].ID})
	require.NotNil(t, all[1].Owner)
	assert.Equal(t, "bob@x.com", all[1].Owner.Email)

	mine, err := tickets.ListByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, third.ID, mine[0].ID)
	assert.Equal(t, first.ID, mine[1].ID)
	for _, ticket := range mine {
		assert.Equal(t, alice.ID, ticket.UserID)
	}
}

func TestTicketUpdateAppliesPatch(t *testing.T) {
	ctx := context.Background()
	_, users, tickets := newFixture(t)
	owner := createUser(t, users, "a@x.com")
	ticket := createTicket(t, tickets, owner, "printer")

	status := domain.TicketStatusResolved
	title := "printer on fire"
	updated, err := tickets.Update(ctx, ticket.ID, domain.TicketPatch{Title: &title, Status: &status})
	require.NoError(t, err)

	assert.Equal(t, title, updated.Title)
	assert.Equal(t, domain.TicketStatusResolved, updated.Status)
	assert.Equal(t, ticket.Description, updated.Description)
	assert.Equal(t, domain.TicketPriorityMedium, updated.Priority)
	assert.True(t, updated.UpdatedAt.After(ticket.UpdatedAt))
	assert.Equal(t, ticket.CreatedAt, updated.CreatedAt)

	_, err = tickets.Update(ctx, "missing", domain.TicketPatch{Title: &title})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTicketCreateRequiresOwner(t *testing.T) {
	_, _, tickets := newFixture(t)
	err := tickets.Create(context.Background(), &domain.Ticket{Title: "x", UserID: "ghost"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserDeleteCascadesTickets(t *testing.T) {
	ctx := context.Background()
	_, users, tickets := newFixture(t)
	alice := createUser(t, users, "alice@x.com")
	bob := createUser(t, users, "bob@x.com")
	aliceTicket := createTicket(t, tickets, alice, "alice's")
	bobTicket := createTicket(t, tickets, bob, "bob's")

	require.NoError(t, users.Delete(ctx, alice.ID))

	_, err := tickets.GetByID(ctx, aliceTicket.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = tickets.GetByID(ctx, bobTicket.ID)
	assert.NoError(t, err)
	_, err = users.GetByEmail(ctx, "alice@x.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.ErrorIs(t, users.Delete(ctx, alice.ID), repository.ErrNotFound)

	// the freed email can be registered again
	createUser(t, users, "alice@x.com")
}

func TestTicketDeleteAndStats(t *testing.T) {
	ctx := context.Background()
	_, users, tickets := newFixture(t)
	owner := createUser(t, users, "a@x.com")
	one := createTicket(t, tickets, owner, "one")
	createTicket(t, tickets, owner, "two")
	resolved := domain.TicketStatusResolved
	_, err := tickets.Update(ctx, one.ID, domain.TicketPatch{Status: &resolved})
	require.NoError(t, err)

	stats, err := tickets.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStats{Total: 2, Open: 1, Resolved: 1}, stats)

	require.NoError(t, tickets.Delete(ctx, one.ID))
	assert.ErrorIs(t, tickets.Delete(ctx, one.ID), repository.ErrNotFound)
}
