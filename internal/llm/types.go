// Package llm provides LLM client implementations.
package llm

import (
	"log/slog"
)

// LevelTrace is below Debug, used for wire-level payload logging.
const LevelTrace = slog.Level(-8)

// Message represents a chat message for the LLM.
type Message struct {
	Role       string     `json:"role"` // system, user, assistant, tool
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // For tool responses
}

// ToolCall represents a tool call from the model.
type ToolCall struct {
	ID       string `json:"id,omitempty"`
	Function struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"function"`
}

// NewToolCall builds a ToolCall for the given function name and arguments.
// The anonymous Function struct makes literal construction awkward at call
// sites; this keeps tests and adapters readable.
func NewToolCall(name string, args map[string]any) ToolCall {
	var tc ToolCall
	tc.Function.Name = name
	tc.Function.Arguments = args
	return tc
}

// GenConfig holds decoding parameters for a single generation request.
// Zero values fall back to provider defaults.
type GenConfig struct {
	Temperature float64
	MaxTokens   int
}

// ChatResponse is the unified response from any LLM provider.
// All fields use proper Go types — wire format conversion happens
// at provider boundaries (gemini.go).
type ChatResponse struct {
	Model   string
	Message Message

	// Token usage (provider-neutral)
	InputTokens  int
	OutputTokens int
}
