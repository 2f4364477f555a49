package domain

// Tone is the user's detected emotional tone. It is sticky across turns.
type Tone string

const (
	ToneNeutral    Tone = "neutral"
	ToneUrgent     Tone = "urgent"
	ToneFrustrated Tone = "frustrated"
	TonePolite     Tone = "polite"
)

// Expectation is the kind of reply the assistant is waiting for.
type Expectation string

const (
	ExpectNone               Expectation = ""
	ExpectAnswer             Expectation = "answer"
	ExpectHelpConfirmation   Expectation = "help_confirmation"
	ExpectFeedbackOnSolution Expectation = "feedback_on_solution"
)

// DialogueState is the mutable cross-turn context of one conversation.
type DialogueState struct {
	Tone         Tone              `json:"emotional_tone"`
	Expecting    Expectation       `json:"expecting_response"`
	LastQuestion *string           `json:"last_question"`
	Entities     map[string]string `json:"entities"`
}

// Verdict is the topic classifier outcome.
type Verdict string

const (
	VerdictAllowed        Verdict = "allowed"
	VerdictUnrelated      Verdict = "unrelated"
	VerdictDomainRelevant Verdict = "domain_relevant"
)
