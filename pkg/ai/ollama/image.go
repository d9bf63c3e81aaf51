package ollama

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/hydroluxe/prodkb/backend/pkg/ai"
)

// GenerateImageDescription sends a vision chat request with a base64 image
// and returns the model's textual description.
func (c *Client) GenerateImageDescription(
	ctx context.Context,
	prompt string,
	image ai.ImagePayload,
) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(image.Base64)
	if err != nil {
		return "", err
	}

	stream := false
	req := &api.ChatRequest{
		Model: c.visionModel,
		Messages: []api.Message{
			{Role: "system", Content: prompt},
			{
				Role:   "user",
				Images: []api.ImageData{raw},
			},
		},
		Stream:  &stream,
		Options: map[string]any{"temperature": 0.0},
	}

	rCtx, cancel := context.WithTimeout(ctx, time.Duration(c.timeoutSec)*time.Second)
	defer cancel()

	if err := c.reqSem.Acquire(rCtx, 1); err != nil {
		return "", err
	}
	defer c.reqSem.Release(1)

	var final api.ChatResponse
	if err := c.API.Chat(rCtx, req, func(cr api.ChatResponse) error {
		final.Message.Content += cr.Message.Content
		if cr.Done {
			final.Done = true
			final.Metrics = cr.Metrics
		}
		return nil
	}); err != nil {
		return "", err
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens:  final.Metrics.PromptEvalCount,
		OutputTokens: final.Metrics.EvalCount,
		TotalTokens:  final.Metrics.PromptEvalCount + final.Metrics.EvalCount,
		DurationMs:   final.Metrics.TotalDuration.Milliseconds(),
	})

	return final.Message.Content, nil
}
