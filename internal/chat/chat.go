// Package chat wraps the chat/reasoning backend behind a small interface so
// the orchestration core treats it as a black-box tool invocation.
package chat

import "context"

// Message is one turn in a chat conversation.
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Client sends a message sequence to the reasoning backend and returns the
// generated text.
type Client interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}
