// Package aitest provides a scriptable ai.Client double for tests.
package aitest

import (
	"context"
	"errors"
	"sync"

	"github.com/hydroluxe/prodkb/backend/pkg/ai"
)

// Client implements ai.Client with canned replies. Zero value is usable:
// every call fails with ErrNotScripted.
type Client struct {
	mu sync.Mutex

	// CompletionFn, when set, handles GenerateCompletion and receives the
	// prompt plus resolved options.
	CompletionFn func(prompt string, opts ai.GenerateOptions) (string, error)
	// FormatFn, when set, handles GenerateCompletionWithFormat; it should
	// fill out or return an error.
	FormatFn func(name, prompt string, out any) error
	// ChatFn handles GenerateChat.
	ChatFn func(messages []ai.ChatMessage, opts ai.GenerateOptions) (string, error)
	// EmbedFn handles GenerateEmbedding.
	EmbedFn func(input string) ([]float32, error)
	// VisionFn handles GenerateImageDescription.
	VisionFn func(prompt string, image ai.ImagePayload) (string, error)

	// Calls counts invocations per method name.
	Calls map[string]int
}

// ErrNotScripted is returned by any method without a configured handler.
var ErrNotScripted = errors.New("aitest: call not scripted")

func (c *Client) count(method string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Calls == nil {
		c.Calls = map[string]int{}
	}
	c.Calls[method]++
}

// CallCount returns how many times method was invoked.
func (c *Client) CallCount(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Calls[method]
}

func (c *Client) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	c.count("GenerateCompletion")
	options := ai.GenerateOptions{}
	for _, o := range opts {
		o(&options)
	}
	if c.CompletionFn == nil {
		return "", ErrNotScripted
	}
	return c.CompletionFn(prompt, options)
}

func (c *Client) GenerateCompletionWithFormat(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error {
	c.count("GenerateCompletionWithFormat")
	if c.FormatFn == nil {
		return ErrNotScripted
	}
	return c.FormatFn(name, prompt, out)
}

func (c *Client) GenerateChat(ctx context.Context, messages []ai.ChatMessage, opts ...ai.GenerateOption) (string, error) {
	c.count("GenerateChat")
	options := ai.GenerateOptions{}
	for _, o := range opts {
		o(&options)
	}
	if c.ChatFn == nil {
		return "", ErrNotScripted
	}
	return c.ChatFn(messages, options)
}

func (c *Client) GenerateEmbedding(ctx context.Context, input string) ([]float32, error) {
	c.count("GenerateEmbedding")
	if c.EmbedFn == nil {
		return nil, ErrNotScripted
	}
	return c.EmbedFn(input)
}

func (c *Client) GenerateImageDescription(ctx context.Context, prompt string, image ai.ImagePayload) (string, error) {
	c.count("GenerateImageDescription")
	if c.VisionFn == nil {
		return "", ErrNotScripted
	}
	return c.VisionFn(prompt, image)
}

func (c *Client) ResetMetrics() {}

func (c *Client) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }
