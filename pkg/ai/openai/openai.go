package openai

import (
	"sync"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"

	"github.com/hydroluxe/prodkb/backend/pkg/ai"
)

// Client talks to an OpenAI-compatible endpoint. Separate underlying
// clients are kept for chat/vision and embeddings so the two concerns can
// point at different deployments.
type Client struct {
	chatModel      string
	visionModel    string
	embeddingModel string

	chatURL string
	chatKey string

	timeoutSec int

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	embeddingSem *semaphore.Weighted
	visionSem    *semaphore.Weighted

	ChatClient      *openai.Client
	EmbeddingClient *openai.Client
}

// NewClientParams configures a Client. ChatURL/ChatKey also serve the
// vision model; EmbeddingURL/EmbeddingKey may point elsewhere.
type NewClientParams struct {
	ChatModel      string
	VisionModel    string
	EmbeddingModel string

	ChatURL      string
	ChatKey      string
	EmbeddingURL string
	EmbeddingKey string

	// TimeoutSec bounds each call's wall clock; 0 means 60.
	TimeoutSec int
	// EmbeddingParallel / VisionParallel cap in-flight provider requests;
	// 0 means 4.
	EmbeddingParallel int64
	VisionParallel    int64
}

func NewClient(params NewClientParams) *Client {
	timeout := params.TimeoutSec
	if timeout <= 0 {
		timeout = 60
	}
	embedParallel := params.EmbeddingParallel
	if embedParallel <= 0 {
		embedParallel = 4
	}
	visionParallel := params.VisionParallel
	if visionParallel <= 0 {
		visionParallel = 4
	}

	return &Client{
		chatModel:      params.ChatModel,
		visionModel:    params.VisionModel,
		embeddingModel: params.EmbeddingModel,

		chatURL: params.ChatURL,
		chatKey: params.ChatKey,

		timeoutSec: timeout,

		embeddingSem: semaphore.NewWeighted(embedParallel),
		visionSem:    semaphore.NewWeighted(visionParallel),

		ChatClient:      newOpenAIClient(params.ChatURL, params.ChatKey),
		EmbeddingClient: newOpenAIClient(params.EmbeddingURL, params.EmbeddingKey),
	}
}

func newOpenAIClient(baseURL string, apiKey string) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(options...)
	return &client
}

func (c *Client) modifyMetrics(delta ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics.InputTokens += delta.InputTokens
	c.metrics.OutputTokens += delta.OutputTokens
	c.metrics.TotalTokens += delta.TotalTokens
	c.metrics.DurationMs += delta.DurationMs
}

// ResetMetrics zeroes the accumulated counters.
func (c *Client) ResetMetrics() {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics = ai.ModelMetrics{}
}

// GetMetrics returns a copy of the accumulated counters.
func (c *Client) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}
