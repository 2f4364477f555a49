package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-chat/internal/domain"
)

var (
	// ErrArchiveDisabled is returned when no database is configured.
	ErrArchiveDisabled = errors.New("ticket archive not configured")
	// ErrNotArchived is returned by Get for unknown ticket IDs.
	ErrNotArchived = errors.New("ticket not archived")
)

// TicketArchive stores tickets for the human support team. The in-process
// session registry stays the source of truth for the conversation.
type TicketArchive interface {
	Save(ctx context.Context, sessionID string, ticket domain.Ticket) error
	Get(ctx context.Context, id string) (*domain.Ticket, error)
}

type ticketArchive struct {
	pool *pgxpool.Pool
}

// NewTicketArchive instantiates the archive. A nil pool yields an archive whose
// calls return ErrArchiveDisabled.
func NewTicketArchive(pool *pgxpool.Pool) TicketArchive {
	return &ticketArchive{pool: pool}
}

func (r *ticketArchive) Save(ctx context.Context, sessionID string, ticket domain.Ticket) error {
	if r.pool == nil {
		return ErrArchiveDisabled
	}
	const query = `
        INSERT INTO ticket_archive (ticket_id, session_id, source_query, status, priority, origin, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (ticket_id) DO UPDATE SET status = EXCLUDED.status, priority = EXCLUDED.priority`
	_, err := r.pool.Exec(ctx, query,
		ticket.ID,
		sessionID,
		ticket.SourceQuery,
		string(ticket.Status),
		string(ticket.Priority),
		string(ticket.Origin),
		ticket.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("archive ticket %s: %w", ticket.ID, err)
	}
	return nil
}

func (r *ticketArchive) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	if r.pool == nil {
		return nil, ErrArchiveDisabled
	}
	const query = `
        SELECT ticket_id, source_query, status, priority, origin, created_at
        FROM ticket_archive WHERE ticket_id = $1`
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotArchived
	}
	if err != nil {
		return nil, fmt.Errorf("load archived ticket %s: %w", id, err)
	}
	return ticket, nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		t                        domain.Ticket
		status, priority, origin string
	)
	if err := row.Scan(&t.ID, &t.SourceQuery, &status, &priority, &origin, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Status = domain.TicketStatus(status)
	t.Priority = domain.TicketPriority(priority)
	t.Origin = domain.TicketOrigin(origin)
	return &t, nil
}
