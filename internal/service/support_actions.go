package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/support-chat/internal/domain"
	"github.com/spec-kit/support-chat/internal/events"
	"github.com/spec-kit/support-chat/internal/keywords"
	"github.com/spec-kit/support-chat/internal/session"
	"github.com/spec-kit/support-chat/internal/ticket"
	apperrors "github.com/spec-kit/support-chat/pkg/util/errorutil"
)

// ConnectExpert escalates the last user query to human support.
func (s *ChatService) ConnectExpert(ctx context.Context, sess *session.Session) string {
	sess.Lock()
	defer sess.Unlock()
	return s.connectExpert(ctx, sess, "")
}

// connectExpert creates an escalated ticket and records the reply. Callers hold
// the session lock.
func (s *ChatService) connectExpert(ctx context.Context, sess *session.Session, prefix string) string {
	if sess.LastQuery == "" {
		s.reply(sess, ExpertNeedsQueryResponse)
		return ExpertNeedsQueryResponse
	}
	t := sess.Tickets.Generate(sess.LastQuery, true)
	s.ticketCreated(ctx, sess, t, events.EventTicketEscalated)

	response := prefix + escalationResponse(t.ID, s.support.WhatsApp)
	s.reply(sess, response)
	return response
}

// BeginTicketStatusCheck makes the next chat message a ticket lookup.
func (s *ChatService) BeginTicketStatusCheck(sess *session.Session) string {
	sess.Lock()
	defer sess.Unlock()
	sess.CheckingTicketStatus = true
	s.reply(sess, TicketStatusPrompt)
	return TicketStatusPrompt
}

// Feedback records whether the last answer helped. A negative answer escalates.
func (s *ChatService) Feedback(ctx context.Context, sess *session.Session, helpful bool) string {
	sess.Lock()
	defer sess.Unlock()

	var response string
	if helpful {
		sess.ResolvedCount++
		response = GladToHelpResponse
		s.reply(sess, response)
	} else {
		sess.ResolvedCount--
		response = s.connectExpert(ctx, sess, unresolvedPrefix)
	}
	sess.AwaitingResolution = false

	s.publishEvent(ctx, events.New(events.EventFeedbackReceived, sess.ID, "", events.FeedbackPayload{
		Helpful:       helpful,
		ResolvedCount: sess.ResolvedCount,
	}))
	return response
}

// ParseFeedback accepts "yes" or "no", ignoring case.
func ParseFeedback(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes":
		return true, nil
	case "no":
		return false, nil
	}
	return false, apperrors.NewValidationError("feedback must be yes or no", map[string]any{"feedback": value})
}

// LookupTicket returns a ticket known to the session or the archive.
func (s *ChatService) LookupTicket(ctx context.Context, sess *session.Session, ref string) (domain.Ticket, error) {
	sess.Lock()
	defer sess.Unlock()

	t, err := s.findTicket(ctx, sess, ref)
	switch {
	case err == nil:
		return t, nil
	case errors.Is(err, ticket.ErrMalformedReference):
		return domain.Ticket{}, apperrors.NewValidationError("ticket id must look like NVS12345", map[string]any{"ticket_id": ref})
	case errors.Is(err, ticket.ErrNotFound):
		return domain.Ticket{}, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": strings.ToUpper(ref)})
	default:
		return domain.Ticket{}, err
	}
}

// Tickets lists the tickets of a session in creation order.
func (s *ChatService) Tickets(sess *session.Session) []domain.Ticket {
	sess.Lock()
	defer sess.Unlock()
	return sess.Tickets.All()
}

// History returns a copy of the session transcript.
func (s *ChatService) History(sess *session.Session) []domain.ChatMessage {
	sess.Lock()
	defer sess.Unlock()
	out := make([]domain.ChatMessage, len(sess.Messages))
	copy(out, sess.Messages)
	return out
}

// SessionClosed announces an evicted session. It is wired as the store's evict hook.
func (s *ChatService) SessionClosed(sess *session.Session) {
	sess.Lock()
	payload := events.SessionClosedPayload{
		Turns:   len(sess.Tracker.History()),
		Tickets: sess.Tickets.Len(),
	}
	sess.Unlock()

	s.logger.Info("session closed", zap.String("session_id", sess.ID), zap.Int("turns", payload.Turns))
	s.publishEvent(context.Background(), events.New(events.EventSessionClosed, sess.ID, "", payload))
}

// InitialSuggestions are shown before the user types anything.
func (s *ChatService) InitialSuggestions() []string {
	return append([]string(nil), s.tables.Suggestions.Groups["initial"]...)
}

// Suggestions returns quick replies for partially typed input.
func (s *ChatService) Suggestions(input string) []string {
	trimmed := strings.TrimSpace(input)
	if len(trimmed) < 2 {
		return s.InitialSuggestions()
	}
	if len(trimmed) < 3 {
		return []string{}
	}
	for _, rule := range s.tables.Suggestions.Rules {
		if !keywords.ContainsAny(trimmed, rule.Words) {
			continue
		}
		if len(rule.Items) > 0 {
			return append([]string(nil), rule.Items...)
		}
		return append([]string(nil), s.tables.Suggestions.Groups[rule.Group]...)
	}
	return []string{}
}
