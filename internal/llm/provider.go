// Package llm provides a unified interface over text-generation backends.
package llm

import (
	"context"
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a chat message.
type Message struct {
	Role    Role
	Content string
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Request is a single-shot completion request.
type Request struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64
	JSONSchema  map[string]any // optional structured-output constraint
}

// Response is the backend's reply.
type Response struct {
	Content      string
	FinishReason string
	Usage        Usage
}

// Provider is the core abstraction over text-generation backends.
type Provider interface {
	// Complete sends one request and returns the response.
	Complete(ctx context.Context, req Request) (Response, error)

	// Name returns the provider identifier.
	Name() string

	// SupportsJSONSchema reports whether the backend has a native JSON mode.
	SupportsJSONSchema() bool
}

// Config holds common provider configuration.
type Config struct {
	APIKey     string
	BaseURL    string // custom endpoint, e.g. a remote Ollama host
	Model      string
	MaxRetries int
	Timeout    time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		Timeout:    60 * time.Second,
	}
}
