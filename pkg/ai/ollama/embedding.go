package ollama

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/hydroluxe/prodkb/backend/pkg/ai"
)

// GenerateEmbedding creates a vector embedding for the input text using the
// configured embedding model on Ollama.
func (c *Client) GenerateEmbedding(ctx context.Context, input string) ([]float32, error) {
	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("empty embedding input")
	}

	rCtx, cancel := context.WithTimeout(ctx, time.Duration(c.timeoutSec)*time.Second)
	defer cancel()

	if err := c.reqSem.Acquire(rCtx, 1); err != nil {
		return nil, err
	}
	defer c.reqSem.Release(1)

	res, err := c.API.Embed(rCtx, &api.EmbedRequest{
		Model: c.embeddingModel,
		Input: input,
	})
	if err != nil {
		return nil, err
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens: res.PromptEvalCount,
		TotalTokens: res.PromptEvalCount,
		DurationMs:  res.TotalDuration.Milliseconds(),
	})

	if len(res.Embeddings) != 1 {
		return nil, fmt.Errorf("embedding response size mismatch: got %d want 1", len(res.Embeddings))
	}
	out := make([]float32, 0, len(res.Embeddings[0]))
	for _, v := range res.Embeddings[0] {
		out = append(out, float32(v))
	}
	return out, nil
}
