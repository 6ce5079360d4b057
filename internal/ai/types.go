// Package ai talks to the reasoning engine: a chat-completion service that
// either answers in text or asks for tools to be called.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of the exchange. Assistant messages may carry
// ToolCalls; tool messages answer exactly one call by ToolCallID.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	Name       string
}

type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

type Request struct {
	System   string
	Messages []Message
	Tools    []ToolDefinition
}

// Response holds either final text or a non-empty set of tool calls.
type Response struct {
	Content   string
	ToolCalls []ToolCall
}

type Engine interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Error is a failure reported by the engine provider.
type Error struct {
	Provider string
	Status   int
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) RateLimited() bool { return e.Status == http.StatusTooManyRequests }
