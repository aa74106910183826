// Package provider streams model output into a uniform event sequence,
// cancellable at any suspension point. Two concrete adapters speak the
// same StreamEvent contract: a chat-completions-style SSE adapter
// (Anthropic) and a generate-content-style adapter (Gemini).
package provider

import (
	"context"
	"encoding/json"
)

// Role is a chat message's speaker.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Call is a single function/tool invocation the model requested.
type Call struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolResult carries a completed tool call's outcome back to the model.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Content    string `json:"content"`
	IsError    bool   `json:"is_error,omitempty"`
}

// Message is one turn of the conversation sent to a Provider.
type Message struct {
	Role        Role         `json:"role"`
	Content     string       `json:"content,omitempty"`
	ToolCalls   []Call       `json:"tool_calls,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
}

// ToolSpec describes a tool the model may call.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// ChatRequest is the provider-agnostic request shape.
type ChatRequest struct {
	Messages    []Message  `json:"messages"`
	System      string     `json:"system,omitempty"`
	Tools       []ToolSpec `json:"tools,omitempty"`
	ToolChoice  string     `json:"tool_choice,omitempty"`
	Temperature float64    `json:"temperature,omitempty"`
	MaxTokens   int        `json:"max_tokens,omitempty"`
}

// EventKind discriminates a StreamEvent's variant.
type EventKind string

const (
	EventToken    EventKind = "token"
	EventToolCall EventKind = "tool_call"
	EventDone     EventKind = "done"
	EventError    EventKind = "error"
)

// StreamEvent is the sum type a Provider emits: Token(string) |
// ToolCall([]Call) | Done | Error(string). Only the field matching Kind
// is populated.
type StreamEvent struct {
	Kind    EventKind
	Token   string
	Calls   []Call
	Message string
}

func TokenEvent(text string) StreamEvent        { return StreamEvent{Kind: EventToken, Token: text} }
func ToolCallEvent(calls []Call) StreamEvent     { return StreamEvent{Kind: EventToolCall, Calls: calls} }
func DoneEvent() StreamEvent                     { return StreamEvent{Kind: EventDone} }
func ErrorEvent(msg string) StreamEvent          { return StreamEvent{Kind: EventError, Message: msg} }

// Provider is a model backend capable of streaming a chat completion and,
// where supported, embedding text for the Memory Store's vector index.
type Provider interface {
	Name() string
	ChatStream(ctx context.Context, req ChatRequest) (<-chan StreamEvent, error)
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
