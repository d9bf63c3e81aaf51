package ai

import (
	"context"
)

// ChatMessage is a single turn in a chat conversation.
//
// Role must be one of:
//   - "user"      → a user-provided message
//   - "assistant" → a message from the model
//
// Images holds image references (data URLs or local file paths) attached to
// the turn. How they are encoded for the wire is up to the provider.
type ChatMessage struct {
	Message string   `json:"message"`
	Role    string   `json:"role"`
	Images  []string `json:"images,omitempty"`
}

// ImagePayload is a base64-encoded image plus its data-URL prefix, ready to
// be embedded into a multimodal request.
type ImagePayload struct {
	Base64 string `json:"base64"`
	Prefix string `json:"prefix"`
}

// GenerateOptions holds configuration for generation requests.
type GenerateOptions struct {
	Model         string
	SystemPrompts []string
	Temperature   float64
	Timeout       int // per-call wall-clock timeout in seconds; 0 = provider default
}

// GenerateOption is a functional option for configuring generation requests.
type GenerateOption func(*GenerateOptions)

// WithModel sets the model used for the request.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		if model != "" {
			o.Model = model
		}
	}
}

// WithSystemPrompts sets the system prompts prepended to the request.
func WithSystemPrompts(prompts ...string) GenerateOption {
	return func(o *GenerateOptions) {
		o.SystemPrompts = prompts
	}
}

// WithTemperature sets the sampling temperature. Lower values make the
// output more deterministic.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

// WithTimeout bounds the wall-clock duration of a single call, in seconds.
func WithTimeout(seconds int) GenerateOption {
	return func(o *GenerateOptions) {
		if seconds > 0 {
			o.Timeout = seconds
		}
	}
}

// ModelMetrics accumulates token and latency counters across calls.
type ModelMetrics struct {
	InputTokens  int   `json:"input_tokens"`
	OutputTokens int   `json:"output_tokens"`
	TotalTokens  int   `json:"total_tokens"`
	DurationMs   int64 `json:"duration_ms"`
}

// Client is the provider-neutral surface the pipeline talks to.
// Implementations exist for OpenAI-compatible endpoints and Ollama.
type Client interface {
	GenerateCompletion(
		ctx context.Context,
		prompt string,
		opts ...GenerateOption,
	) (string, error)
	GenerateCompletionWithFormat(
		ctx context.Context,
		name string,
		description string,
		prompt string,
		out any,
		opts ...GenerateOption,
	) error
	GenerateChat(
		ctx context.Context,
		messages []ChatMessage,
		opts ...GenerateOption,
	) (string, error)

	GenerateEmbedding(ctx context.Context, input string) ([]float32, error)
	GenerateImageDescription(
		ctx context.Context,
		prompt string,
		image ImagePayload,
	) (string, error)

	ResetMetrics()
	GetMetrics() ModelMetrics
}

// EmbedAll embeds texts one provider call per text, preserving order.
// onTick, if non-nil, is invoked after each successful embedding. Provider
// errors are surfaced unchanged with the index of the failed item, so the
// caller may retry only the tail.
func EmbedAll(ctx context.Context, client Client, texts []string, onTick func(done, total int)) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for i, text := range texts {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		vec, err := client.GenerateEmbedding(ctx, text)
		if err != nil {
			return out, &EmbedError{Index: i, Err: err}
		}
		out = append(out, vec)
		if onTick != nil {
			onTick(i+1, len(texts))
		}
	}
	return out, nil
}

// EmbedError reports which input of a batch failed so callers can resume
// from the tail.
type EmbedError struct {
	Index int
	Err   error
}

func (e *EmbedError) Error() string {
	return e.Err.Error()
}

func (e *EmbedError) Unwrap() error {
	return e.Err
}
