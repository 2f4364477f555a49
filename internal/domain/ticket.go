package domain

import "time"

// TicketStatus enumerates lifecycle states for support tickets.
type TicketStatus string

const (
	TicketStatusInProgress TicketStatus = "In Progress"
	TicketStatusEscalated  TicketStatus = "Escalated to Human Support"
)

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityNormal TicketPriority = "Normal"
	TicketPriorityHigh   TicketPriority = "High"
)

// TicketOrigin records how a ticket came to exist.
type TicketOrigin string

const (
	// TicketOriginExtracted tickets were announced by the model and picked out of its reply.
	TicketOriginExtracted TicketOrigin = "extracted"
	// TicketOriginGenerated tickets were minted by an escalation path.
	TicketOriginGenerated TicketOrigin = "generated"
)

// Ticket is a tracked support-escalation record keyed by an NVS##### identifier.
type Ticket struct {
	ID          string         `json:"ticket_id"`
	SourceQuery string         `json:"query"`
	CreatedAt   time.Time      `json:"created_at"`
	Status      TicketStatus   `json:"status"`
	Priority    TicketPriority `json:"priority"`
	Origin      TicketOrigin   `json:"origin"`
}
