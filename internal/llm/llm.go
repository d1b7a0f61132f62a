package llm

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when the generation backend cannot be reached
// or rejects the request (transport, auth, or quota failure). Callers decide
// whether to degrade or propagate.
var ErrUnavailable = errors.New("generation backend unavailable")

// Message represents a chat message in the completion API format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Client abstracts a text-completion backend (Groq or a local Ollama
// instance). It is the single nondeterministic dependency of the agent core;
// every consumer takes this interface so tests can substitute a stub.
type Client interface {
	// Complete sends messages to the backend and returns the assistant's
	// response text. Temperature controls sampling variability; pass a low
	// value when structured output is expected.
	Complete(ctx context.Context, messages []Message, temperature float64) (string, error)
}
