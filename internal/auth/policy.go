package auth

import "github.com/spec-kit/helpdesk-service/internal/domain"

// Access rules for tickets. Admins pass every check; everyone else is
// limited to tickets they own, and only admins may move a ticket's status.

// CanRead reports whether caller may view ticket.
func CanRead(caller *domain.User, ticket *domain.Ticket) bool {
	return caller.IsAdmin() || owns(caller, ticket)
}

// CanModifyFields reports whether caller may change the named fields of ticket.
func CanModifyFields(caller *domain.User, ticket *domain.Ticket, fields []string) bool {
	if caller.IsAdmin() {
		return true
	}
	if !owns(caller, ticket) {
		return false
	}
	for _, field := range fields {
		if field == "status" {
			return false
		}
	}
	return true
}

// CanChangeStatus reports whether caller may set a ticket status, regardless of ownership.
func CanChangeStatus(caller *domain.User) bool {
	return caller.IsAdmin()
}

// CanDelete reports whether caller may remove ticket.
func CanDelete(caller *domain.User, ticket *domain.Ticket) bool {
	return caller.IsAdmin() || owns(caller, ticket)
}

// CanViewOwners reports whether caller sees the owner projection on tickets.
func CanViewOwners(caller *domain.User) bool {
	return caller.IsAdmin()
}

func owns(caller *domain.User, ticket *domain.Ticket) bool {
	return caller != nil && ticket != nil && caller.ID != "" && caller.ID == ticket.UserID
}
