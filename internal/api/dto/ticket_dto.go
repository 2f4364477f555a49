package dto

import (
	"time"

	"github.com/spec-kit/support-chat/internal/domain"
)

// TicketResponse describes a support ticket.
type TicketResponse struct {
	ID        string                `json:"ticket_id"`
	Query     string                `json:"query"`
	Status    domain.TicketStatus   `json:"status"`
	Priority  domain.TicketPriority `json:"priority"`
	Origin    domain.TicketOrigin   `json:"origin"`
	CreatedAt time.Time             `json:"created_at"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(t domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:        t.ID,
		Query:     t.SourceQuery,
		Status:    t.Status,
		Priority:  t.Priority,
		Origin:    t.Origin,
		CreatedAt: t.CreatedAt,
	}
}
