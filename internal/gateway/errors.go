package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies completion failures.
type Kind string

const (
	KindAuth       Kind = "auth"
	KindNotFound   Kind = "not_found"
	KindService    Kind = "service"
	KindConnection Kind = "connection"
	KindTimeout    Kind = "timeout"
)

// Error is returned by Client.Complete for every failed call.
type Error struct {
	Kind    Kind
	Status  int
	Model   string
	BaseURL string
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("completion %s (status %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("completion %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind of err, or "" when err is not a gateway error.
func KindOf(err error) Kind {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Kind
	}
	return ""
}

// FallbackMessage turns a completion failure into the sentence shown to the
// user. It returns "" for errors that did not come from the gateway.
func FallbackMessage(err error) string {
	var gerr *Error
	if !errors.As(err, &gerr) {
		return ""
	}
	switch gerr.Kind {
	case KindAuth:
		return "Authentication error: Invalid API key. Please check your completion service API key."
	case KindNotFound:
		return fmt.Sprintf("Model not found: The model '%s' is not available. Please check the model name.", gerr.Model)
	case KindConnection:
		return fmt.Sprintf("Cannot connect to the completion service at %s. Please check your internet connection and the service URL.", gerr.BaseURL)
	case KindTimeout:
		return "Response timeout. The service is taking too long to respond. Please try a simpler query."
	default:
		return fmt.Sprintf("API Error (%d). Please check if the service is available.", gerr.Status)
	}
}
