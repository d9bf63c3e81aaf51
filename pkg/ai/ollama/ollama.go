package ollama

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"

	"github.com/hydroluxe/prodkb/backend/pkg/ai"
)

// Client implements ai.Client against a locally-hosted Ollama server.
type Client struct {
	chatModel      string
	visionModel    string
	embeddingModel string

	timeoutSec int

	reqSem *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	API *api.Client
}

type NewClientParams struct {
	ChatModel      string
	VisionModel    string
	EmbeddingModel string

	BaseURL string
	APIKey  string

	TimeoutSec            int
	MaxConcurrentRequests int64
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewClient connects to the Ollama server at BaseURL (default server when
// empty) and uses the configured models for chat, vision and embeddings.
func NewClient(params NewClientParams) (*Client, error) {
	var (
		u   *url.URL
		err error
	)
	if params.BaseURL != "" {
		u, err = url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	httpClient := http.DefaultClient
	if params.APIKey != "" {
		httpClient = &http.Client{
			Transport: &headerTransport{
				headers: map[string]string{
					"Authorization": "Bearer " + params.APIKey,
				},
				rt: http.DefaultTransport,
			},
		}
	}

	timeout := params.TimeoutSec
	if timeout <= 0 {
		timeout = 120
	}
	parallel := params.MaxConcurrentRequests
	if parallel <= 0 {
		parallel = 2
	}

	return &Client{
		chatModel:      params.ChatModel,
		visionModel:    params.VisionModel,
		embeddingModel: params.EmbeddingModel,

		timeoutSec: timeout,

		reqSem: semaphore.NewWeighted(parallel),

		API: api.NewClient(u, httpClient),
	}, nil
}

func (c *Client) modifyMetrics(delta ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics.InputTokens += delta.InputTokens
	c.metrics.OutputTokens += delta.OutputTokens
	c.metrics.TotalTokens += delta.TotalTokens
	c.metrics.DurationMs += delta.DurationMs
}

func (c *Client) ResetMetrics() {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics = ai.ModelMetrics{}
}

func (c *Client) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}
