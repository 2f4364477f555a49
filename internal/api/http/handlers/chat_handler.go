package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-chat/internal/api/dto"
	"github.com/spec-kit/support-chat/internal/auth"
	"github.com/spec-kit/support-chat/internal/service"
	"github.com/spec-kit/support-chat/internal/session"
	apperrors "github.com/spec-kit/support-chat/pkg/util/errorutil"
)

// ChatHandler serves the conversational endpoints.
type ChatHandler struct {
	chat     *service.ChatService
	sessions *session.Store
}

// NewChatHandler constructs handler.
func NewChatHandler(chat *service.ChatService, sessions *session.Store) *ChatHandler {
	return &ChatHandler{chat: chat, sessions: sessions}
}

// Chat POST /api/chat.
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	sess, err := currentSession(c, h.sessions)
	if err != nil {
		return err
	}
	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	out, err := h.chat.Chat(c.UserContext(), sess, service.ChatInput{Message: req.Message, ImageData: req.ImageData})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ChatResponse{Response: out.Response, ShowFeedback: out.ShowFeedback}})
}

// CheckTicketStatus POST /api/check-ticket-status.
func (h *ChatHandler) CheckTicketStatus(c *fiber.Ctx) error {
	sess, err := currentSession(c, h.sessions)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.MessageResponse{Response: h.chat.BeginTicketStatusCheck(sess)}})
}

// ConnectExpert POST /api/connect-expert.
func (h *ChatHandler) ConnectExpert(c *fiber.Ctx) error {
	sess, err := currentSession(c, h.sessions)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.MessageResponse{Response: h.chat.ConnectExpert(c.UserContext(), sess)}})
}

// Feedback POST /api/feedback.
func (h *ChatHandler) Feedback(c *fiber.Ctx) error {
	sess, err := currentSession(c, h.sessions)
	if err != nil {
		return err
	}
	var req dto.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	helpful, err := service.ParseFeedback(req.Feedback)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.MessageResponse{Response: h.chat.Feedback(c.UserContext(), sess, helpful)}})
}

// History GET /api/chat-history.
func (h *ChatHandler) History(c *fiber.Ctx) error {
	sess, err := currentSession(c, h.sessions)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ChatHistoryResponse{ChatHistory: h.chat.History(sess)}})
}

// Suggestions GET /api/suggestions.
func (h *ChatHandler) Suggestions(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": dto.SuggestionsResponse{Suggestions: h.chat.InitialSuggestions()}})
}

// TypingSuggestions POST /api/typing-suggestions.
func (h *ChatHandler) TypingSuggestions(c *fiber.Ctx) error {
	var req dto.TypingSuggestionsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return c.JSON(fiber.Map{"data": dto.SuggestionsResponse{Suggestions: h.chat.Suggestions(req.Input)}})
}

// CloseSession DELETE /api/session.
func (h *ChatHandler) CloseSession(c *fiber.Ctx) error {
	sid, ok := auth.SessionIDFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("session required")
	}
	closed := h.sessions.Close(sid)
	auth.ClearCookie(c)
	return c.JSON(fiber.Map{"data": fiber.Map{"closed": closed}})
}

func currentSession(c *fiber.Ctx, sessions *session.Store) (*session.Session, error) {
	sid, ok := auth.SessionIDFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("session required")
	}
	return sessions.Get(sid), nil
}
