package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// Store keeps users and tickets behind one lock so the user cascade is atomic.
type Store struct {
	mu      sync.RWMutex
	seq     int64
	users   map[string]domain.User
	emails  map[string]string
	tickets map[string]ticketRecord
	now     func() time.Time
}

type ticketRecord struct {
	ticket domain.Ticket
	seq    int64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:   make(map[string]domain.User),
		emails:  make(map[string]string),
		tickets: make(map[string]ticketRecord),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Ping always succeeds; it lets the store stand in for a database in readiness checks.
func (s *Store) Ping(context.Context) error {
	return nil
}

type userRepository struct {
	store *Store
}

// NewUserRepository returns an in-memory UserRepository.
func NewUserRepository(store *Store) repository.UserRepository {
	return &userRepository{store: store}
}

func (r *userRepository) Create(_ context.Context, user *domain.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.emails[user.Email]; taken {
		return repository.ErrDuplicateEmail
	}
	now := s.now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = *user
	s.emails[user.Email] = user.ID
	return nil
}

func (r *userRepository) UpdatePassword(_ context.Context, id, passwordHash string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = s.now()
	s.users[id] = user
	return nil
}

func (r *userRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	user := s.users[id]
	return &user, nil
}

func (r *userRepository) Delete(_ context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	for ticketID, rec := range s.tickets {
		if rec.ticket.UserID == id {
			delete(s.tickets, ticketID)
		}
	}
	delete(s.emails, user.Email)
	delete(s.users, id)
	return nil
}

type ticketRepository struct {
	store *Store
}

// NewTicketRepository returns an in-memory TicketRepository.
func NewTicketRepository(store *Store) repository.TicketRepository {
	return &ticketRepository{store: store}
}

func (r *ticketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[ticket.UserID]; !ok {
		return repository.ErrNotFound
	}
	now := s.now()
	ticket.ID = uuid.NewString()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	ticket.Owner = nil
	s.seq++
	s.tickets[ticket.ID] = ticketRecord{ticket: *ticket, seq: s.seq}
	return nil
}

func (r *ticketRepository) Update(_ context.Context, id string, patch domain.TicketPatch) (*domain.Ticket, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	patch.Apply(&rec.ticket)
	rec.ticket.UpdatedAt = s.now()
	s.tickets[id] = rec
	return s.withOwner(rec.ticket), nil
}

func (r *ticketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.withOwner(rec.ticket), nil
}

func (r *ticketRepository) ListAll(_ context.Context) ([]domain.Ticket, error) {
	return r.store.list(func(domain.Ticket) bool { return true }), nil
}

func (r *ticketRepository) ListByUser(_ context.Context, userID string) ([]domain.Ticket, error) {
	return r.store.list(func(t domain.Ticket) bool { return t.UserID == userID }), nil
}

func (r *ticketRepository) Delete(_ context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tickets[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.tickets, id)
	return nil
}

func (r *ticketRepository) CountByStatus(_ context.Context) (domain.TicketStats, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats domain.TicketStats
	for _, rec := range s.tickets {
		stats.Add(rec.ticket.Status, 1)
	}
	return stats, nil
}

func (s *Store) list(keep func(domain.Ticket) bool) []domain.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]ticketRecord, 0, len(s.tickets))
	for _, rec := range s.tickets {
		if keep(rec.ticket) {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].ticket.CreatedAt.Equal(recs[j].ticket.CreatedAt) {
			return recs[i].ticket.CreatedAt.After(recs[j].ticket.CreatedAt)
		}
		return recs[i].seq > recs[j].seq
	})

	out := make([]domain.Ticket, 0, len(recs))
	for _, rec := range recs {
		out = append(out, *s.withOwner(rec.ticket))
	}
	return out
}

// withOwner must be called with the lock held.
func (s *Store) withOwner(t domain.Ticket) *domain.Ticket {
	if owner, ok := s.users[t.UserID]; ok {
		t.Owner = owner.Summary()
	}
	return &t
}
