package dto

import "github.com/spec-kit/support-chat/internal/domain"

// ChatRequest payload.
type ChatRequest struct {
	Message   string `json:"message"`
	ImageData string `json:"image_data,omitempty"`
}

// ChatResponse is the reply to a chat turn.
type ChatResponse struct {
	Response     string `json:"response"`
	ShowFeedback bool   `json:"show_feedback"`
}

// MessageResponse carries a single canned reply.
type MessageResponse struct {
	Response string `json:"response"`
}

// FeedbackRequest payload. Feedback is "yes" or "no".
type FeedbackRequest struct {
	Feedback string `json:"feedback"`
}

// TypingSuggestionsRequest payload.
type TypingSuggestionsRequest struct {
	Input string `json:"input"`
}

// SuggestionsResponse lists quick replies.
type SuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

// ChatHistoryResponse is the session transcript.
type ChatHistoryResponse struct {
	ChatHistory []domain.ChatMessage `json:"chat_history"`
}
