package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/todmy/reasoning-engine/internal/errors"
)

const (
	defaultBaseURL       = "https://openrouter.ai/api/v1"
	defaultBatchSize     = 100
	defaultMaxConcurrent = 5
	defaultTimeout       = 30 * time.Second
)

// Embedder turns texts into vectors, one per text in input order
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// Client generates embeddings through an OpenAI-compatible /embeddings endpoint
type Client struct {
	httpClient    *http.Client
	baseURL       string
	apiKey        string
	model         string
	batchSize     int
	maxConcurrent int
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithModel sets the embedding model
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBatchSize sets the number of texts per request
func WithBatchSize(size int) ClientOption {
	return func(c *Client) {
		if size > 0 {
			c.batchSize = size
		}
	}
}

// WithMaxConcurrent sets the max concurrent requests
func WithMaxConcurrent(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxConcurrent = n
		}
	}
}

// WithTimeout sets the HTTP client timeout
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a new embedding client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient:    &http.Client{Timeout: defaultTimeout},
		baseURL:       defaultBaseURL,
		apiKey:        apiKey,
		model:         DefaultModel,
		batchSize:     defaultBatchSize,
		maxConcurrent: defaultMaxConcurrent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.model
}

// Dimension returns the vector size of the configured model
func (c *Client) Dimension() int {
	return GetEmbeddingDimension(c.model)
}

// EmbedTexts embeds texts in batches, at most maxConcurrent requests in flight
func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxConcurrent)

	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		g.Go(func() error {
			vectors, err := c.embedBatch(gctx, batch)
			if err != nil {
				return fmt.Errorf("batch at %d: %w", start, err)
			}
			copy(results[start:], vectors)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, errors.ExternalServiceError("embeddings", err)
	}
	return results, nil
}

// EmbedText embeds a single text
func (c *Client) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return embedOne(ctx, c, text)
}

func embedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	results, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 || results[0] == nil {
		return nil, errors.ExternalServiceError("embeddings", fmt.Errorf("no embedding returned"))
	}
	return results[0], nil
}

func (c *Client) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embeddingRequest{Model: c.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(raw))
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(raw, &embResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	// Data may arrive out of order
	vectors := make([][]float32, len(texts))
	for _, d := range embResp.Data {
		if d.Index >= 0 && d.Index < len(vectors) {
			vectors[d.Index] = d.Embedding
		}
	}
	return vectors, nil
}
