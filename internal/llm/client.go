// Package llm provides LLM client implementations.
package llm

import "context"

// Client is the interface that all LLM providers must implement.
type Client interface {
	// Chat sends a chat completion request and returns the response.
	// The first message with role "system" is carried as the system
	// instruction; tools are JSON-schema function declarations.
	Chat(ctx context.Context, model string, messages []Message, tools []map[string]any, gen GenConfig) (*ChatResponse, error)

	// Ping checks if the provider is reachable.
	Ping(ctx context.Context) error
}
