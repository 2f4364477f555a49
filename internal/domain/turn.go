package domain

import "time"

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Intent is the keyword-inferred purpose of a user turn.
type Intent string

const (
	IntentQuestion           Intent = "question"
	IntentConfirmation       Intent = "confirmation"
	IntentDenial             Intent = "denial"
	IntentHelpRequest        Intent = "help_request"
	IntentProblemReport      Intent = "problem_report"
	IntentGratitude          Intent = "gratitude"
	IntentElaborationRequest Intent = "elaboration_request"
	IntentStatement          Intent = "statement"
)

// Turn is one immutable message exchanged in a conversation.
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	// Intent is only set for user turns.
	Intent *Intent `json:"intent,omitempty"`
}

// ChatMessage is a history entry as shown to the client.
type ChatMessage struct {
	Role         Role      `json:"role"`
	Content      string    `json:"content"`
	Timestamp    time.Time `json:"timestamp"`
	ShowFeedback bool      `json:"show_feedback"`
}
