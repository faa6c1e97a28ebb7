package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const msgNotOwner = "access denied: this ticket does not belong to you"

// TicketService coordinates ticket workflows behind the access policy.
type TicketService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dispatcher := deps.Dispatcher
	if dispatcher == nil {
		dispatcher = events.NewInMemoryDispatcher()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// CreateTicket validates the payload and stores a ticket owned by caller.
func (s *TicketService) CreateTicket(ctx context.Context, caller *domain.User, input CreateTicketInput) (*domain.Ticket, error) {
	ticket, err := ValidateCreate(input)
	if err != nil {
		return nil, err
	}
	ticket.UserID = caller.ID

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.ActorFrom(caller),
		Payload:  events.TicketCreatedPayload{Priority: ticket.Priority, OwnerID: caller.ID},
	})
	return ticket, nil
}

// ListTickets returns every ticket for admins and the caller's own otherwise.
func (s *TicketService) ListTickets(ctx context.Context, caller *domain.User) ([]domain.Ticket, error) {
	if caller.IsAdmin() {
		return s.tickets.ListAll(ctx)
	}
	tickets, err := s.tickets.ListByUser(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	for i := range tickets {
		tickets[i].Owner = nil
	}
	return tickets, nil
}

// GetTicket fetches a ticket the caller may read.
func (s *TicketService) GetTicket(ctx context.Context, caller *domain.User, id string) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.CanRead(caller, ticket) {
		return nil, apperrors.NewForbidden(msgNotOwner)
	}
	return present(caller, ticket), nil
}

// UpdateTicket applies a partial update. Checks run in a fixed order: the
// ticket must exist, the caller must own it or be admin, the plain fields must
// be valid, and only then is a status change authorized and validated.
func (s *TicketService) UpdateTicket(ctx context.Context, caller *domain.User, id string, input UpdateTicketInput) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	patch, err := ValidateUpdateFields(input)
	if !auth.CanModifyFields(caller, ticket, patch.Fields()) {
		return nil, apperrors.NewForbidden(msgNotOwner)
	}
	if err != nil {
		return nil, err
	}

	if input.Status != nil {
		if !auth.CanChangeStatus(caller) {
			return nil, apperrors.NewForbidden("only an administrator can change a ticket's status")
		}
		status, err := ValidateStatus(*input.Status)
		if err != nil {
			return nil, err
		}
		patch.Status = &status
	}

	updated, err := s.tickets.Update(ctx, ticket.ID, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, err
	}
	actor := events.ActorFrom(caller)
	s.publish(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload:  events.TicketUpdatedPayload{Fields: patch.Fields()},
	})
	if patch.Status != nil && *patch.Status != ticket.Status {
		s.publish(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: ticket.ID,
			Actor:    actor,
			Payload:  events.TicketStatusChangedPayload{OldStatus: ticket.Status, NewStatus: *patch.Status},
		})
	}
	return present(caller, updated), nil
}

// DeleteTicket removes a ticket the caller owns, or any ticket for admins.
func (s *TicketService) DeleteTicket(ctx context.Context, caller *domain.User, id string) error {
	ticket, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !auth.CanDelete(caller, ticket) {
		return apperrors.NewForbidden(msgNotOwner)
	}
	if err := s.tickets.Delete(ctx, ticket.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("ticket", nil)
		}
		return err
	}
	s.publish(ctx, events.Event{Type: events.EventTicketDeleted, TicketID: ticket.ID, Actor: events.ActorFrom(caller)})
	return nil
}

// Stats counts tickets by status; admins only.
func (s *TicketService) Stats(ctx context.Context, caller *domain.User) (domain.TicketStats, error) {
	if !auth.CanViewOwners(caller) {
		return domain.TicketStats{}, apperrors.NewForbidden("administrator role required")
	}
	return s.tickets.CountByStatus(ctx)
}

func (s *TicketService) load(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, err
	}
	return ticket, nil
}

// publish reports handler failures without failing the request.
func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("ticket event handler failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}

// present strips the owner projection for callers not entitled to it.
func present(caller *domain.User, ticket *domain.Ticket) *domain.Ticket {
	if !auth.CanViewOwners(caller) {
		ticket.Owner = nil
	}
	return ticket
}
