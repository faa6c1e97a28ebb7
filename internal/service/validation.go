package service

import (
	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Field bounds count characters, not bytes.
const (
	titleRule       = "min=3,max=200"
	descriptionRule = "min=10,max=5000"
	passwordRule    = "required,min=6"
)

// CreateTicketInput is the raw create payload.
type CreateTicketInput struct {
	Title       string
	Description string
	Priority    string
}

// UpdateTicketInput is the raw update payload; nil fields were not supplied.
// A Status sent as JSON null arrives as a pointer to the empty string.
type UpdateTicketInput struct {
	Title       *string
	Description *string
	Priority    *string
	Status      *string
}

// ValidateCreate checks a create payload and returns the ticket to persist.
func ValidateCreate(in CreateTicketInput) (*domain.Ticket, error) {
	if in.Title == "" || in.Description == "" {
		return nil, apperrors.NewValidationError("title and description are required", nil)
	}
	if err := validateTitle(in.Title); err != nil {
		return nil, err
	}
	if err := validateDescription(in.Description); err != nil {
		return nil, err
	}

	priority := domain.TicketPriorityMedium
	if in.Priority != "" {
		p, err := parsePriority(in.Priority)
		if err != nil {
			return nil, err
		}
		priority = p
	}

	return &domain.Ticket{
		Title:       in.Title,
		Description: in.Description,
		Priority:    priority,
		Status:      domain.TicketStatusOpen,
	}, nil
}

// ValidateUpdateFields checks title, description and priority and returns the
// patch carrying them. Status is left to ValidateStatus so that authorization
// can be checked between the two.
func ValidateUpdateFields(in UpdateTicketInput) (domain.TicketPatch, error) {
	var patch domain.TicketPatch
	if in.Title != nil {
		if err := validateTitle(*in.Title); err != nil {
			return patch, err
		}
		patch.Title = in.Title
	}
	if in.Description != nil {
		if err := validateDescription(*in.Description); err != nil {
			return patch, err
		}
		patch.Description = in.Description
	}
	if in.Priority != nil {
		p, err := parsePriority(*in.Priority)
		if err != nil {
			return patch, err
		}
		patch.Priority = &p
	}
	return patch, nil
}

// ValidateStatus parses a requested status.
func ValidateStatus(raw string) (domain.TicketStatus, error) {
	status := domain.TicketStatus(raw)
	if !status.Valid() {
		return "", apperrors.NewValidationError("invalid status; accepted values: open, in_progress, resolved, closed",
			map[string]any{"status": raw})
	}
	return status, nil
}

func validateTitle(title string) error {
	if err := validate.Var(title, titleRule); err != nil {
		return apperrors.NewValidationError("title must be between 3 and 200 characters", nil)
	}
	return nil
}

func validateDescription(description string) error {
	if err := validate.Var(description, descriptionRule); err != nil {
		return apperrors.NewValidationError("description must be between 10 and 5000 characters", nil)
	}
	return nil
}

func parsePriority(raw string) (domain.TicketPriority, error) {
	priority := domain.TicketPriority(raw)
	if !priority.Valid() {
		return "", apperrors.NewValidationError("invalid priority; accepted values: low, medium, high, urgent",
			map[string]any{"priority": raw})
	}
	return priority, nil
}
