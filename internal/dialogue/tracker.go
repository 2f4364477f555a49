// Package dialogue tracks the rolling context of one conversation: recent turns,
// inferred intents, the user's tone, the current subject and what kind of reply
// the assistant is waiting for. It decides whether the topic gate applies.
//
// A Tracker is not safe for concurrent use; the owning session serializes access.
package dialogue

import (
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/support-chat/internal/domain"
	"github.com/spec-kit/support-chat/internal/keywords"
)

const (
	// WindowSize bounds the rolling window of recent turns.
	WindowSize = 10
	// SummaryTurns is how many window turns the context summary renders.
	SummaryTurns = 5

	subjectKey = "subject"
)

var (
	helpConfirmationTriggers = []string{"need more help", "need help"}
	solutionFeedbackTriggers = []string{"try these steps", "follow these"}
)

// Tracker is the dialogue state machine for a single conversation.
type Tracker struct {
	intents  []keywords.Rule
	tones    []keywords.Rule
	entities []keywords.Rule
	now      func() time.Time

	history      []domain.Turn
	window       []domain.Turn
	state        domain.DialogueState
	interactions int
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// NewTracker creates a tracker in the neutral state.
func NewTracker(tables *keywords.Tables, opts ...Option) *Tracker {
	t := &Tracker{
		intents:  tables.Intents,
		tones:    tables.Tones,
		entities: tables.Entities,
		now:      time.Now,
		state: domain.DialogueState{
			Tone:     domain.ToneNeutral,
			Entities: map[string]string{},
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Record appends a turn to the full history and the rolling window, then
// updates the dialogue state from its content.
func (t *Tracker) Record(role domain.Role, text string) domain.Turn {
	turn := domain.Turn{Role: role, Text: text, Timestamp: t.now()}
	if role == domain.RoleUser {
		intent := t.Intent(text)
		turn.Intent = &intent
	}

	t.history = append(t.history, turn)
	t.window = append(t.window, turn)
	if len(t.window) > WindowSize {
		t.window = append([]domain.Turn(nil), t.window[len(t.window)-WindowSize:]...)
	}

	if role == domain.RoleUser {
		t.analyzeUser(text)
	} else {
		t.analyzeAssistant(text)
	}
	return turn
}

// Intent infers the purpose of a user message; the first matching rule wins.
func (t *Tracker) Intent(message string) domain.Intent {
	name, ok := keywords.FirstMatch(message, t.intents)
	if !ok {
		return domain.IntentStatement
	}
	return domain.Intent(name)
}

// ShouldFilter reports whether the topic gate applies to message. Replies to the
// assistant's own question and short contextual answers are never filtered.
func (t *Tracker) ShouldFilter(message string) bool {
	switch t.state.Expecting {
	case domain.ExpectHelpConfirmation, domain.ExpectAnswer, domain.ExpectFeedbackOnSolution:
		return false
	}
	switch t.Intent(message) {
	case domain.IntentConfirmation, domain.IntentDenial, domain.IntentElaborationRequest:
		return false
	}
	return true
}

// ContextSummary renders recent turns and state flags for the completion prompt.
func (t *Tracker) ContextSummary() string {
	var parts []string
	if len(t.window) > 0 {
		parts = append(parts, "=== Conversation Context ===")
		start := len(t.window) - SummaryTurns
		if start < 0 {
			start = 0
		}
		for _, turn := range t.window[start:] {
			speaker := "Assistant"
			if turn.Role == domain.RoleUser {
				speaker = "User"
			}
			parts = append(parts, fmt.Sprintf("%s: %s", speaker, turn.Text))
		}
	}
	if t.state.Expecting != domain.ExpectNone {
		parts = append(parts, fmt.Sprintf("\n[Expecting: %s]", t.state.Expecting))
	}
	if t.state.Tone != domain.ToneNeutral {
		parts = append(parts, fmt.Sprintf("[User tone: %s]", t.state.Tone))
	}
	if subject, ok := t.state.Entities[subjectKey]; ok {
		parts = append(parts, fmt.Sprintf("[Current topic: %s]", subject))
	}
	return strings.Join(parts, "\n")
}

// State returns a copy of the current dialogue state.
func (t *Tracker) State() domain.DialogueState {
	st := t.state
	st.Entities = make(map[string]string, len(t.state.Entities))
	for k, v := range t.state.Entities {
		st.Entities[k] = v
	}
	if t.state.LastQuestion != nil {
		q := *t.state.LastQuestion
		st.LastQuestion = &q
	}
	return st
}

// Subject returns the single-slot subject entity, if any.
func (t *Tracker) Subject() (string, bool) {
	s, ok := t.state.Entities[subjectKey]
	return s, ok
}

// History returns every recorded turn.
func (t *Tracker) History() []domain.Turn {
	return append([]domain.Turn(nil), t.history...)
}

// Window returns the rolling window, oldest first.
func (t *Tracker) Window() []domain.Turn {
	return append([]domain.Turn(nil), t.window...)
}

// Interactions counts user turns.
func (t *Tracker) Interactions() int {
	return t.interactions
}

func (t *Tracker) analyzeUser(text string) {
	if tone, ok := keywords.FirstMatch(text, t.tones); ok {
		t.state.Tone = domain.Tone(tone)
	}
	// Single slot: every matching rule overwrites, so the last rule in table order wins.
	for _, rule := range t.entities {
		if keywords.ContainsAny(text, rule.Words) {
			t.state.Entities[subjectKey] = rule.Name
		}
	}
	t.interactions++
}

func (t *Tracker) analyzeAssistant(text string) {
	expecting := domain.ExpectNone
	if strings.Contains(text, "?") {
		q := text
		t.state.LastQuestion = &q
		expecting = domain.ExpectAnswer
	}
	if keywords.ContainsAny(text, helpConfirmationTriggers) {
		expecting = domain.ExpectHelpConfirmation
	}
	if keywords.ContainsAny(text, solutionFeedbackTriggers) {
		expecting = domain.ExpectFeedbackOnSolution
	}
	t.state.Expecting = expecting
}
