package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a conversation, tagged user or assistant.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Tool declares one function the model may call instead of replying with text.
// Parameters is a JSON-schema object.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ChatRequest is a full multi-turn completion request: system instruction,
// alternating history starting with user, the pending user message, and the
// declared tools.
type ChatRequest struct {
	System  string
	History []Turn
	Pending string
	Tools   []Tool
}

// ToolCall is a structured function invocation emitted by the model.
// Arguments is the raw JSON argument object.
type ToolCall struct {
	Name      string
	Arguments string
}

// Reply is a provider response: either plain text or a tool call.
type Reply struct {
	Text     string
	ToolCall *ToolCall
}

// ChatProvider is a full-featured chat-completion provider with multi-turn
// history and tool support.
type ChatProvider interface {
	Name() string
	Chat(ctx context.Context, req ChatRequest) (*Reply, error)
	// Complete is a stateless single-turn call against the same provider,
	// used for the degraded retry path.
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// TextProvider is a plain single-turn completion provider; fallback vendors
// are not required to support history or tools.
type TextProvider interface {
	Name() string
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// ProviderError carries the HTTP status and message from a failed provider call.
type ProviderError struct {
	Provider string
	Status   int
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, e.Message)
}

// IsAuthOrQuota reports whether err is an authorization- or quota-class
// provider failure. These are not retryable on the same vendor and escalate
// straight to the fallback provider.
func IsAuthOrQuota(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		switch pe.Status {
		case 401, 403, 429:
			return true
		}
		msg := strings.ToLower(pe.Message)
		return strings.Contains(msg, "api key") ||
			strings.Contains(msg, "quota") ||
			strings.Contains(msg, "rate limit")
	}
	return false
}
