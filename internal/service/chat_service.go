package service

import (
	"context"
	_ "embed"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-chat/internal/classifier"
	"github.com/spec-kit/support-chat/internal/config"
	"github.com/spec-kit/support-chat/internal/domain"
	"github.com/spec-kit/support-chat/internal/events"
	"github.com/spec-kit/support-chat/internal/gateway"
	"github.com/spec-kit/support-chat/internal/keywords"
	"github.com/spec-kit/support-chat/internal/normalize"
	"github.com/spec-kit/support-chat/internal/observability"
	"github.com/spec-kit/support-chat/internal/repository"
	"github.com/spec-kit/support-chat/internal/session"
	"github.com/spec-kit/support-chat/internal/ticket"
	apperrors "github.com/spec-kit/support-chat/pkg/util/errorutil"
)

//go:embed prompts/system_prompt.txt
var systemPrompt string

// Completer produces raw model text for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt, image string) (string, error)
}

var ticketCommand = regexp.MustCompile(`(?i)^ticket\s+(NVS\S*)$`)

// ChatService runs one conversational turn against a session.
type ChatService struct {
	tables     *keywords.Tables
	classifier *classifier.Classifier
	completer  Completer
	normalizer *normalize.Pipeline
	archive    repository.TicketArchive
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	support    config.SupportConfig
	logger     *zap.Logger
	now        func() time.Time
}

// ChatDependencies bundles collaborators for the chat service.
type ChatDependencies struct {
	Tables     *keywords.Tables
	Completer  Completer
	Normalizer *normalize.Pipeline
	// Archive is optional and only consulted for tickets the session does not know.
	Archive    repository.TicketArchive
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Support    config.SupportConfig
	Logger     *zap.Logger
	Now        func() time.Time
}

// ChatInput is one user message.
type ChatInput struct {
	Message string
	// ImageData is an optional base64 screenshot.
	ImageData string
}

// ChatOutput is the reply to a turn.
type ChatOutput struct {
	Response     string
	ShowFeedback bool
}

// NewChatService constructs the service.
func NewChatService(deps ChatDependencies) *ChatService {
	s := &ChatService{
		tables:     deps.Tables,
		classifier: classifier.New(deps.Tables),
		completer:  deps.Completer,
		normalizer: deps.Normalizer,
		archive:    deps.Archive,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		support:    deps.Support,
		logger:     deps.Logger,
		now:        deps.Now,
	}
	if s.normalizer == nil {
		s.normalizer = normalize.New()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Chat answers one user message.
func (s *ChatService) Chat(ctx context.Context, sess *session.Session, in ChatInput) (ChatOutput, error) {
	msg := strings.TrimSpace(in.Message)
	if msg == "" {
		return ChatOutput{}, apperrors.NewValidationError("message required", nil)
	}

	sess.Lock()
	defer sess.Unlock()

	if sess.AwaitingResolution {
		switch {
		case keywords.EqualsAny(msg, s.tables.Resolution.Negative):
			sess.AwaitingResolution = false
			s.appendUser(sess, msg)
			return ChatOutput{Response: s.connectExpert(ctx, sess, ""), ShowFeedback: true}, nil
		case keywords.EqualsAny(msg, s.tables.Resolution.Positive):
			sess.AwaitingResolution = false
			s.appendUser(sess, msg)
			s.reply(sess, GladToHelpResponse)
			return ChatOutput{Response: GladToHelpResponse, ShowFeedback: true}, nil
		}
	}

	s.appendUser(sess, msg)
	sess.LastQuery = msg
	sess.Tracker.Record(domain.RoleUser, msg)

	var response string
	switch {
	case sess.CheckingTicketStatus:
		sess.CheckingTicketStatus = false
		response = s.ticketStatus(ctx, sess, msg)
	case ticketCommand.MatchString(msg):
		response = s.ticketStatus(ctx, sess, ticketCommand.FindStringSubmatch(msg)[1])
	case s.isGreeting(msg):
		if rest := s.stripGreeting(msg); len(rest) > 2 {
			response = s.answer(ctx, sess, skipGreetingMarker+"\n"+msg, msg, in.ImageData)
		} else {
			response = IntroResponse
		}
		sess.IntroGiven = true
	default:
		response = s.answer(ctx, sess, msg, msg, in.ImageData)
	}

	sess.AwaitingResolution = strings.HasSuffix(strings.TrimSpace(response), normalize.ResolutionCheck)
	s.reply(sess, response)
	return ChatOutput{Response: response, ShowFeedback: true}, nil
}

// answer runs the gated completion path. input is what the model sees as the
// user query; query is what the user actually typed.
func (s *ChatService) answer(ctx context.Context, sess *session.Session, input, query, image string) string {
	if sess.Tracker.ShouldFilter(query) {
		verdict := s.classifier.Classify(query)
		s.metrics.RecordGate(string(verdict))
		if verdict == domain.VerdictUnrelated {
			return RefusalResponse
		}
	} else {
		s.metrics.RecordGate("skipped")
	}

	raw, err := s.completer.Complete(ctx, s.buildPrompt(sess, input, image != ""), image)
	if err != nil {
		if fallback := gateway.FallbackMessage(err); fallback != "" {
			return fallback
		}
		s.logger.Error("completion failed", zap.String("session_id", sess.ID), zap.Error(err))
		return ApologyResponse
	}

	text, err := s.normalizer.Run(raw)
	if err != nil {
		s.metrics.RecordNormalizeFailure()
		s.logger.Error("normalize reply", zap.String("session_id", sess.ID), zap.Error(err))
		return ApologyResponse
	}
	if !keywords.ContainsAny(query, s.tables.PricingQuery) {
		text = normalize.StripPricing(text)
	}

	if t, created := sess.Tickets.ExtractAndRegister(text, query); created {
		s.ticketCreated(ctx, sess, t, events.EventTicketCreated)
	}
	return text
}

func (s *ChatService) buildPrompt(sess *session.Session, input string, withImage bool) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	switch sess.Tracker.State().Tone {
	case domain.ToneUrgent:
		b.WriteString(urgentHint)
	case domain.ToneFrustrated:
		b.WriteString(frustratedHint)
	}
	b.WriteString("\n\n")
	b.WriteString(sess.Tracker.ContextSummary())
	if withImage {
		b.WriteString("\n\nUser query with screenshot: ")
	} else {
		b.WriteString("\n\nUser query: ")
	}
	b.WriteString(input)
	return b.String()
}

func (s *ChatService) isGreeting(msg string) bool {
	return keywords.ContainsAny(msg, s.tables.Greetings)
}

// stripGreeting removes the first greeting word found, with trailing comma or
// period, and returns what is left.
func (s *ChatService) stripGreeting(msg string) string {
	lower := strings.ToLower(msg)
	for _, g := range s.tables.Greetings {
		if !strings.Contains(lower, g) {
			continue
		}
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(g) + `\b[,.]?\s*`)
		return strings.TrimSpace(re.ReplaceAllString(msg, ""))
	}
	return strings.TrimSpace(msg)
}

// ticketStatus answers a ticket-number message from the session registry,
// falling back to the archive.
func (s *ChatService) ticketStatus(ctx context.Context, sess *session.Session, ref string) string {
	id := strings.ToUpper(strings.TrimSpace(ref))
	if !strings.HasPrefix(id, ticket.Prefix) || len(id) <= len(ticket.Prefix) {
		return InvalidTicketResponse
	}
	t, err := s.findTicket(ctx, sess, id)
	if err != nil {
		return ticketNotFoundResponse(id, s.support.Email)
	}
	return ticketDetailsResponse(t)
}

func (s *ChatService) findTicket(ctx context.Context, sess *session.Session, ref string) (domain.Ticket, error) {
	t, err := sess.Tickets.Lookup(ref)
	if err == nil || !errors.Is(err, ticket.ErrNotFound) || s.archive == nil {
		return t, err
	}
	archived, aerr := s.archive.Get(ctx, strings.ToUpper(strings.TrimSpace(ref)))
	if aerr != nil {
		if !errors.Is(aerr, repository.ErrNotArchived) && !errors.Is(aerr, repository.ErrArchiveDisabled) {
			s.logger.Warn("archive lookup failed", zap.String("ticket_id", ref), zap.Error(aerr))
		}
		return domain.Ticket{}, err
	}
	return *archived, nil
}

func (s *ChatService) appendUser(sess *session.Session, msg string) {
	sess.Messages = append(sess.Messages, domain.ChatMessage{
		Role:      domain.RoleUser,
		Content:   msg,
		Timestamp: s.now(),
	})
}

// reply appends an assistant message to the transcript and the tracker.
func (s *ChatService) reply(sess *session.Session, text string) {
	sess.Tracker.Record(domain.RoleAssistant, text)
	sess.Messages = append(sess.Messages, domain.ChatMessage{
		Role:         domain.RoleAssistant,
		Content:      text,
		Timestamp:    s.now(),
		ShowFeedback: true,
	})
}

func (s *ChatService) ticketCreated(ctx context.Context, sess *session.Session, t domain.Ticket, eventType events.EventType) {
	s.metrics.RecordTicket(string(t.Origin))
	s.logger.Info("ticket created",
		zap.String("session_id", sess.ID),
		zap.String("ticket_id", t.ID),
		zap.String("origin", string(t.Origin)),
		zap.String("priority", string(t.Priority)))
	s.publishEvent(ctx, events.New(eventType, sess.ID, t.ID, events.TicketPayload{Ticket: t}))
}

func (s *ChatService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed",
			zap.String("event_type", string(event.Type)),
			zap.String("session_id", event.SessionID),
			zap.Error(err))
	}
}
