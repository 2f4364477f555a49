package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-chat/internal/api/dto"
	"github.com/spec-kit/support-chat/internal/service"
	"github.com/spec-kit/support-chat/internal/session"
)

// TicketsHandler exposes the tickets of the caller's session.
type TicketsHandler struct {
	chat     *service.ChatService
	sessions *session.Store
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(chat *service.ChatService, sessions *session.Store) *TicketsHandler {
	return &TicketsHandler{chat: chat, sessions: sessions}
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	sess, err := currentSession(c, h.sessions)
	if err != nil {
		return err
	}
	tickets := h.chat.Tickets(sess)
	items := make([]dto.TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		items = append(items, dto.NewTicketResponse(t))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	sess, err := currentSession(c, h.sessions)
	if err != nil {
		return err
	}
	t, err := h.chat.LookupTicket(c.UserContext(), sess, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(t)})
}
