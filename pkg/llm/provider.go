package llm

import (
	"context"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a chat message in a provider-agnostic format.
type Message struct {
	Role    string
	Content string
}

// Option carries optional generation parameters.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// Provider is the contract for any text-generation backend.
type Provider interface {
	// Chat sends a chat history to the model and returns the response text.
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method).
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}

// StreamingProvider is implemented by backends that can deliver the response
// incrementally. Callers must treat it as optional and fall back to Chat.
type StreamingProvider interface {
	Provider

	// ChatStream invokes onToken for each content delta and returns the full
	// concatenated response once the stream completes.
	ChatStream(ctx context.Context, history []Message, onToken func(token string), options ...Option) (string, error)
}
