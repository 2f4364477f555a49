package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/support-chat/internal/config"
	"github.com/spec-kit/support-chat/internal/domain"
	"github.com/spec-kit/support-chat/internal/events"
	"github.com/spec-kit/support-chat/internal/gateway"
	"github.com/spec-kit/support-chat/internal/keywords"
	"github.com/spec-kit/support-chat/internal/normalize"
	"github.com/spec-kit/support-chat/internal/session"
	apperrors "github.com/spec-kit/support-chat/pkg/util/errorutil"
)

var escalatedID = regexp.MustCompile(`🎫 Ticket ID: (NVS\d{5})`)

type fakeCompleter struct {
	mu      sync.Mutex
	replies []string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "Sure.", nil
	}
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return reply, nil
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type harness struct {
	svc       *ChatService
	store     *session.Store
	completer *fakeCompleter
	events    []events.Event
}

func newHarness(t *testing.T, completer *fakeCompleter, opts ...func(*ChatDependencies)) *harness {
	t.Helper()
	tables := keywords.MustLoad()
	h := &harness{completer: completer}

	dispatcher := events.NewInMemoryDispatcher()
	for _, et := range []events.EventType{events.EventTicketCreated, events.EventTicketEscalated, events.EventFeedbackReceived, events.EventSessionClosed} {
		dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			h.events = append(h.events, e)
			return nil
		})
	}

	deps := ChatDependencies{
		Tables:     tables,
		Completer:  completer,
		Normalizer: normalize.New(normalize.WithTicketIDs(func() string { return "NVS67890" })),
		Dispatcher: dispatcher,
		Support:    config.SupportConfig{Email: "support@novarsis.tech", WhatsApp: "+91-9999999999"},
		Logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	h.svc = NewChatService(deps)
	h.store = session.NewStore(tables, time.Hour, zap.NewNop(), session.WithEvictHook(h.svc.SessionClosed))
	return h
}

func (h *harness) chat(t *testing.T, sess *session.Session, msg string) string {
	t.Helper()
	out, err := h.svc.Chat(context.Background(), sess, ChatInput{Message: msg})
	require.NoError(t, err)
	assert.True(t, out.ShowFeedback)
	return out.Response
}

func (h *harness) eventTypes() []events.EventType {
	var out []events.EventType
	for _, e := range h.events {
		out = append(out, e.Type)
	}
	return out
}

func TestGreetingOnlyGetsIntro(t *testing.T) {
	h := newHarness(t, &fakeCompleter{})
	sess := h.store.Get("s1")

	assert.Equal(t, IntroResponse, h.chat(t, sess, "hi"))
	assert.Zero(t, h.completer.calls())
	assert.Zero(t, sess.Tickets.Len())
	assert.True(t, sess.IntroGiven)
}

var novarsisFeatures = []string{
	"Site audits with technical issue detection",
	"Keyword research and tracking",
	"Competitor analysis and gap identification",
	"Backlink monitoring and reporting",
	"On-page optimization suggestions",
	"Rank tracking across multiple search engines",
	"API access for integration",
	"Customizable report generation",
	"Mobile optimization analysis",
	"Page speed monitoring",
	"Schema markup validation",
	"XML sitemap analysis",
}

func TestGreetingWithProblemSkipsGreeting(t *testing.T) {
	raw := "Here are the features of Novarsis:\n- " + strings.Join(novarsisFeatures, "\n- ") + "\n\n" +
		"Free Plan:\n- Up to 5 websites\n\n" +
		"Pro Plan:\n- Up to 50 websites\n\n" +
		"Enterprise Plan:\n- Unlimited websites\n\n" +
		normalize.EnterpriseQuestion
	h := newHarness(t, &fakeCompleter{replies: []string{raw}})
	sess := h.store.Get("s1")

	resp := h.chat(t, sess, "hi, what are the features?")

	require.Equal(t, 1, h.completer.calls())
	prompt := h.completer.prompts[0]
	assert.Contains(t, prompt, skipGreetingMarker+"\nhi, what are the features?")
	assert.Contains(t, prompt, "You are Nova")

	for _, feature := range novarsisFeatures {
		assert.Contains(t, resp, "- "+feature)
	}
	assert.NotContains(t, resp, "Free Plan")
	assert.NotContains(t, resp, "Pro Plan")
	assert.NotContains(t, resp, "$49")
	assert.NotContains(t, resp, "Enterprise")
	assert.NotRegexp(t, `^(?i)hello`, resp)
}

func TestPricingQueryKeepsTemplate(t *testing.T) {
	raw := "Our plans: Free Plan for 5 sites, Pro Plan at 49 dollars, Enterprise Plan custom."
	h := newHarness(t, &fakeCompleter{replies: []string{raw}})
	sess := h.store.Get("s1")

	resp := h.chat(t, sess, "compare your pricing plans")
	assert.Contains(t, resp, normalize.PricingTemplate)
}

func TestUnrelatedTopicIsRefused(t *testing.T) {
	h := newHarness(t, &fakeCompleter{})
	sess := h.store.Get("s1")

	assert.Equal(t, RefusalResponse, h.chat(t, sess, "tell me a pizza recipe"))
	assert.Zero(t, h.completer.calls())
}

func TestAnswerToBotQuestionBypassesGate(t *testing.T) {
	h := newHarness(t, &fakeCompleter{replies: []string{
		"Which page should I audit first?",
		"Got it.",
	}})
	sess := h.store.Get("s1")

	h.chat(t, sess, "how do I run an seo audit")
	h.chat(t, sess, "the one about pizza")
	assert.Equal(t, 2, h.completer.calls())
}

func TestUnresolvedReplyEscalates(t *testing.T) {
	h := newHarness(t, &fakeCompleter{replies: []string{
		"Clear your browser cache and rerun the report.\n\nHave I solved your query?",
	}})
	sess := h.store.Get("s1")

	first := h.chat(t, sess, "my seo report is not loading")
	assert.True(t, len(first) > 0)
	require.True(t, sess.AwaitingResolution)

	resp := h.chat(t, sess, "no")
	assert.Equal(t, 1, h.completer.calls())
	assert.False(t, sess.AwaitingResolution)

	m := escalatedID.FindStringSubmatch(resp)
	require.Len(t, m, 2)
	assert.Contains(t, resp, "📱 Status: Escalated to Human Support")
	assert.Contains(t, resp, "WhatsApp: +91-9999999999")
	assert.Contains(t, resp, "typing 'ticket "+m[1]+"'")

	tk, err := sess.Tickets.Lookup(m[1])
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusEscalated, tk.Status)
	assert.Equal(t, "my seo report is not loading", tk.SourceQuery)
	assert.Equal(t, []events.EventType{events.EventTicketEscalated}, h.eventTypes())
}

func TestResolvedReplyIsAcknowledged(t *testing.T) {
	h := newHarness(t, &fakeCompleter{replies: []string{"Rescan the site.\n\nHave I solved your query?"}})
	sess := h.store.Get("s1")

	h.chat(t, sess, "my website scan failed")
	assert.Equal(t, GladToHelpResponse, h.chat(t, sess, "Thanks"))
	assert.False(t, sess.AwaitingResolution)
	assert.Equal(t, 1, h.completer.calls())
}

func TestExampleTicketIDIsReplaced(t *testing.T) {
	h := newHarness(t, &fakeCompleter{replies: []string{
		"I've opened a support ticket for you. Ticket Number: NVS12345. An expert will reach out shortly.",
	}})
	sess := h.store.Get("s1")

	resp := h.chat(t, sess, "yes please open a ticket for my seo audit")
	assert.Contains(t, resp, "Ticket Number: NVS67890")
	assert.NotContains(t, resp, "NVS12345")

	tk, err := sess.Tickets.Lookup("nvs67890")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketOriginExtracted, tk.Origin)
	assert.Equal(t, domain.TicketStatusInProgress, tk.Status)
	require.Len(t, h.events, 1)
	assert.Equal(t, events.EventTicketCreated, h.events[0].Type)
	assert.Equal(t, "NVS67890", h.events[0].TicketID)
}

func TestGatewayFailureBecomesFallback(t *testing.T) {
	gerr := &gateway.Error{Kind: gateway.KindTimeout, Err: context.DeadlineExceeded}
	h := newHarness(t, &fakeCompleter{err: gerr})
	sess := h.store.Get("s1")

	assert.Equal(t, gateway.FallbackMessage(gerr), h.chat(t, sess, "my dashboard shows an error"))
}

func TestUnknownCompleterFailureApologizes(t *testing.T) {
	h := newHarness(t, &fakeCompleter{err: errors.New("boom")})
	sess := h.store.Get("s1")

	assert.Equal(t, ApologyResponse, h.chat(t, sess, "my dashboard shows an error"))
}

func TestNormalizerFailureApologizes(t *testing.T) {
	broken := normalize.NewPipeline(normalize.Stage{Name: "broken", Apply: func(string) string { panic("bad regex") }})
	h := newHarness(t, &fakeCompleter{replies: []string{"Fine."}}, func(d *ChatDependencies) {
		d.Normalizer = broken
	})
	sess := h.store.Get("s1")

	assert.Equal(t, ApologyResponse, h.chat(t, sess, "my dashboard shows an error"))
}

func TestToneHintInPrompt(t *testing.T) {
	h := newHarness(t, &fakeCompleter{})
	sess := h.store.Get("s1")

	h.chat(t, sess, "urgent: my dashboard shows an error")
	require.Equal(t, 1, h.completer.calls())
	assert.Contains(t, h.completer.prompts[0], urgentHint)
	assert.Contains(t, h.completer.prompts[0], "[User tone: urgent]")
}

func TestTicketStatusFlow(t *testing.T) {
	h := newHarness(t, &fakeCompleter{})
	sess := h.store.Get("s1")
	h.chat(t, sess, "my report export failed")
	resp := h.svc.ConnectExpert(context.Background(), sess)
	id := escalatedID.FindStringSubmatch(resp)[1]

	assert.Equal(t, TicketStatusPrompt, h.svc.BeginTicketStatusCheck(sess))
	details := h.chat(t, sess, " "+id+" ")
	assert.Contains(t, details, "Ticket ID: "+id)
	assert.Contains(t, details, "Status: Escalated to Human Support")
	assert.Contains(t, details, "Query: my report export failed")
	assert.False(t, sess.CheckingTicketStatus)

	h.svc.BeginTicketStatusCheck(sess)
	assert.Equal(t, ticketNotFoundResponse("NVS99999", "support@novarsis.tech"), h.chat(t, sess, "nvs99999"))

	h.svc.BeginTicketStatusCheck(sess)
	assert.Equal(t, InvalidTicketResponse, h.chat(t, sess, "hello"))
}

func TestTicketCommandLooksUpImmediately(t *testing.T) {
	h := newHarness(t, &fakeCompleter{})
	sess := h.store.Get("s1")
	h.chat(t, sess, "my login is broken")
	resp := h.svc.ConnectExpert(context.Background(), sess)
	id := escalatedID.FindStringSubmatch(resp)[1]
	calls := h.completer.calls()

	assert.Contains(t, h.chat(t, sess, "ticket "+id), "🎫 Ticket Details:")
	assert.Equal(t, calls, h.completer.calls())
}

func TestConnectExpertWithoutQuery(t *testing.T) {
	h := newHarness(t, &fakeCompleter{})
	sess := h.store.Get("s1")

	assert.Equal(t, ExpertNeedsQueryResponse, h.svc.ConnectExpert(context.Background(), sess))
	assert.Zero(t, sess.Tickets.Len())
}

func TestFeedback(t *testing.T) {
	h := newHarness(t, &fakeCompleter{})
	sess := h.store.Get("s1")
	h.chat(t, sess, "my seo score is wrong")

	assert.Equal(t, GladToHelpResponse, h.svc.Feedback(context.Background(), sess, true))
	assert.Equal(t, 1, sess.ResolvedCount)

	resp := h.svc.Feedback(context.Background(), sess, false)
	assert.Equal(t, 0, sess.ResolvedCount)
	assert.True(t, len(resp) > len(unresolvedPrefix))
	assert.Equal(t, unresolvedPrefix, resp[:len(unresolvedPrefix)])
	assert.Regexp(t, escalatedID, resp)
	assert.Equal(t, []events.EventType{
		events.EventFeedbackReceived,
		events.EventTicketEscalated,
		events.EventFeedbackReceived,
	}, h.eventTypes())
}

func TestParseFeedback(t *testing.T) {
	v, err := ParseFeedback(" Yes ")
	require.NoError(t, err)
	assert.True(t, v)

	v, err = ParseFeedback("no")
	require.NoError(t, err)
	assert.False(t, v)

	_, err = ParseFeedback("maybe")
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestLookupTicketErrors(t *testing.T) {
	h := newHarness(t, &fakeCompleter{})
	sess := h.store.Get("s1")

	_, err := h.svc.LookupTicket(context.Background(), sess, "NVS12")
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	_, err = h.svc.LookupTicket(context.Background(), sess, "NVS55555")
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}

func TestEmptyMessageRejected(t *testing.T) {
	h := newHarness(t, &fakeCompleter{})
	_, err := h.svc.Chat(context.Background(), h.store.Get("s1"), ChatInput{Message: "   "})
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestHistoryRecordsBothSides(t *testing.T) {
	h := newHarness(t, &fakeCompleter{})
	sess := h.store.Get("s1")
	h.chat(t, sess, "hello")

	history := h.svc.History(sess)
	require.Len(t, history, 2)
	assert.Equal(t, domain.RoleUser, history[0].Role)
	assert.Equal(t, "hello", history[0].Content)
	assert.Equal(t, domain.RoleAssistant, history[1].Role)
	assert.True(t, history[1].ShowFeedback)
}

func TestSessionCloseAnnounced(t *testing.T) {
	h := newHarness(t, &fakeCompleter{})
	sess := h.store.Get("s1")
	h.chat(t, sess, "hello")

	require.True(t, h.store.Close("s1"))
	require.Len(t, h.events, 1)
	assert.Equal(t, events.EventSessionClosed, h.events[0].Type)
	assert.Equal(t, events.SessionClosedPayload{Turns: 2, Tickets: 0}, h.events[0].Payload)
}

func TestSessionsAreIsolated(t *testing.T) {
	h := newHarness(t, &fakeCompleter{replies: []string{"Rescan.\n\nHave I solved your query?"}})
	a, b := h.store.Get("a"), h.store.Get("b")

	h.chat(t, a, "my website scan failed")
	assert.True(t, a.AwaitingResolution)
	assert.False(t, b.AwaitingResolution)
	assert.Equal(t, IntroResponse, h.chat(t, b, "hey"))
}

func TestSuggestions(t *testing.T) {
	h := newHarness(t, &fakeCompleter{})
	initial := h.svc.InitialSuggestions()
	require.NotEmpty(t, initial)

	assert.Equal(t, initial, h.svc.Suggestions(""))
	assert.Equal(t, []string{}, h.svc.Suggestions("ab"))
	assert.Equal(t, []string{"Check ticket status", "Connect with an Expert", "View all tickets", "Create new ticket"},
		h.svc.Suggestions("where is my ticket"))
	assert.Contains(t, h.svc.Suggestions("seo score"), "How to improve my SEO score?")
	assert.Equal(t, []string{}, h.svc.Suggestions("zzzz"))
}
