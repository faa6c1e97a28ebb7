package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	// Update applies the present patch fields, refreshes updated_at and returns the stored ticket.
	Update(ctx context.Context, id string, patch domain.TicketPatch) (*domain.Ticket, error)
	// GetByID returns the ticket with its owner projection.
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// ListAll returns every ticket, newest first, with owner projections.
	ListAll(ctx context.Context) ([]domain.Ticket, error)
	// ListByUser returns the tickets owned by userID, newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.Ticket, error)
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (domain.TicketStats, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `t.id, t.title, t.description, t.priority, t.status, t.user_id, t.created_at, t.updated_at,
               u.id, u.name, u.email`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, priority, status, user_id)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Priority,
		ticket.Status,
		ticket.UserID,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	return translate(err)
}

func (r *ticketRepository) Update(ctx context.Context, id string, patch domain.TicketPatch) (*domain.Ticket, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}

	sets := []string{"updated_at=NOW()"}
	args := []any{}
	if patch.Title != nil {
		args = append(args, *patch.Title)
		sets = append(sets, fmt.Sprintf("title=$%d", len(args)))
	}
	if patch.Description != nil {
		args = append(args, *patch.Description)
		sets = append(sets, fmt.Sprintf("description=$%d", len(args)))
	}
	if patch.Priority != nil {
		args = append(args, *patch.Priority)
		sets = append(sets, fmt.Sprintf("priority=$%d", len(args)))
	}
	if patch.Status != nil {
		args = append(args, *patch.Status)
		sets = append(sets, fmt.Sprintf("status=$%d", len(args)))
	}
	args = append(args, id)

	query := fmt.Sprintf(`
        WITH t AS (
            UPDATE tickets SET %s WHERE id=$%d
            RETURNING id, title, description, priority, status, user_id, created_at, updated_at
        )
        SELECT %s
        FROM t LEFT JOIN users u ON u.id = t.user_id`,
		strings.Join(sets, ", "), len(args), ticketColumns)

	return scanTicket(r.pool.QueryRow(ctx, query, args...))
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	query := `SELECT ` + ticketColumns + `
        FROM tickets t LEFT JOIN users u ON u.id = t.user_id
        WHERE t.id=$1`
	return scanTicket(r.pool.QueryRow(ctx, query, id))
}

func (r *ticketRepository) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
        FROM tickets t LEFT JOIN users u ON u.id = t.user_id
        ORDER BY t.created_at DESC, t.id DESC`
	return r.list(ctx, query)
}

func (r *ticketRepository) ListByUser(ctx context.Context, userID string) ([]domain.Ticket, error) {
	if !validID(userID) {
		return []domain.Ticket{}, nil
	}
	query := `SELECT ` + ticketColumns + `
        FROM tickets t LEFT JOIN users u ON u.id = t.user_id
        WHERE t.user_id=$1
        ORDER BY t.created_at DESC, t.id DESC`
	return r.list(ctx, query, userID)
}

func (r *ticketRepository) list(ctx context.Context, query string, args ...any) ([]domain.Ticket, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) CountByStatus(ctx context.Context) (domain.TicketStats, error) {
	var stats domain.TicketStats
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM tickets GROUP BY status`)
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status domain.TicketStatus
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return stats, err
		}
		stats.Add(status, count)
	}
	return stats, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket     domain.Ticket
		ownerID    *string
		ownerName  *string
		ownerEmail *string
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Priority,
		&ticket.Status,
		&ticket.UserID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ownerID,
		&ownerName,
		&ownerEmail,
	); err != nil {
		return nil, translate(err)
	}
	if ownerID != nil {
		ticket.Owner = &domain.UserSummary{ID: *ownerID, Name: deref(ownerName), Email: deref(ownerEmail)}
	}
	return &ticket, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
