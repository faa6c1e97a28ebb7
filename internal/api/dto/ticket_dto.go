package dto

import (
	"encoding/json"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload. Unknown fields are ignored.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

// UpdateTicketRequest payload; absent fields stay nil.
type UpdateTicketRequest struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Priority    *string        `json:"priority"`
	Status      OptionalString `json:"status"`
}

// OptionalString remembers whether its key was present, including as null.
type OptionalString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON is only invoked when the key exists in the payload.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	return json.Unmarshal(data, &o.Value)
}

// Ptr returns nil when the key was absent and a pointer to the value
// otherwise; null is reported as the empty string.
func (o OptionalString) Ptr() *string {
	if !o.Set {
		return nil
	}
	var v string
	if o.Value != nil {
		v = *o.Value
	}
	return &v
}

// TicketResponse is the public ticket view.
type TicketResponse struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
	Status      domain.TicketStatus   `json:"status"`
	UserID      string                `json:"userId"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
	User        *UserSummaryResponse  `json:"user,omitempty"`
}

// TicketStatsResponse counts tickets per status.
type TicketStatsResponse struct {
	Total      int `json:"total"`
	Open       int `json:"open"`
	InProgress int `json:"inProgress"`
	Resolved   int `json:"resolved"`
	Closed     int `json:"closed"`
}

// NewTicketResponse maps a domain ticket; the owner is included only when set.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:          ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Priority:    ticket.Priority,
		Status:      ticket.Status,
		UserID:      ticket.UserID,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
	if ticket.Owner != nil {
		resp.User = &UserSummaryResponse{
			ID:    ticket.Owner.ID,
			Name:  ticket.Owner.Name,
			Email: ticket.Owner.Email,
		}
	}
	return resp
}

// NewTicketListResponse maps a slice, never returning nil.
func NewTicketListResponse(tickets []domain.Ticket) []TicketResponse {
	items := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, NewTicketResponse(&tickets[i]))
	}
	return items
}

// NewTicketStatsResponse maps aggregated counts.
func NewTicketStatsResponse(stats domain.TicketStats) TicketStatsResponse {
	return TicketStatsResponse{
		Total:      stats.Total,
		Open:       stats.Open,
		InProgress: stats.InProgress,
		Resolved:   stats.Resolved,
		Closed:     stats.Closed,
	}
}
