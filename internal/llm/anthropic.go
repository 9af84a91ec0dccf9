package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const anthropicVersion = "2023-06-01"

// AnthropicConfig holds Anthropic Messages API settings
type AnthropicConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

// DefaultAnthropicConfig returns default configuration
func DefaultAnthropicConfig() AnthropicConfig {
	return AnthropicConfig{
		BaseURL:     "https://api.anthropic.com/v1",
		Model:       "claude-3-sonnet-20240229",
		Timeout:     60 * time.Second,
		MaxTokens:   2000,
		Temperature: 0.3,
	}
}

// Anthropic calls the Anthropic Messages API over HTTP
type Anthropic struct {
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
}

// NewAnthropic creates a client, filling unset fields from DefaultAnthropicConfig
func NewAnthropic(config AnthropicConfig) *Anthropic {
	defaults := DefaultAnthropicConfig()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.Model == "" {
		config.Model = defaults.Model
	}
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = defaults.MaxTokens
	}
	if config.Temperature == 0 {
		config.Temperature = defaults.Temperature
	}

	return &Anthropic{
		apiKey:      config.APIKey,
		baseURL:     config.BaseURL,
		model:       config.Model,
		maxTokens:   config.MaxTokens,
		temperature: config.Temperature,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

func (a *Anthropic) Name() string { return "anthropic" }

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Temperature float64   `json:"temperature"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Complete sends req as a single user message
func (a *Anthropic) Complete(ctx context.Context, req Request) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = a.maxTokens
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = a.temperature
	}

	body, err := json.Marshal(messagesRequest{
		Model:       a.model,
		MaxTokens:   maxTokens,
		System:      req.System,
		Temperature: temperature,
		Messages: []message{
			{Role: "user", Content: req.Prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var mr messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	for _, block := range mr.Content {
		if block.Type == "" || block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("empty response")
}
