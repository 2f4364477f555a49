package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/support-chat/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated    EventType = "ticket_created"
	EventTicketEscalated  EventType = "ticket_escalated"
	EventFeedbackReceived EventType = "feedback_received"
	EventSessionClosed    EventType = "session_closed"
)

// Event represents a domain event emitted by the chat service.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SessionID string      `json:"session_id"`
	TicketID  string      `json:"ticket_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// New stamps an event with a fresh ID and the current time.
func New(eventType EventType, sessionID, ticketID string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SessionID: sessionID,
		TicketID:  ticketID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// TicketPayload carries the ticket for created and escalated events.
type TicketPayload struct {
	Ticket domain.Ticket `json:"ticket"`
}

// FeedbackPayload payload.
type FeedbackPayload struct {
	Helpful       bool `json:"helpful"`
	ResolvedCount int  `json:"resolved_count"`
}

// SessionClosedPayload payload.
type SessionClosedPayload struct {
	Turns   int `json:"turns"`
	Tickets int `json:"tickets"`
}
