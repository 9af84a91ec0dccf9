package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// OpenAIConfig holds Chat Completions settings
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout     time.Duration
	MaxRetries  int
	MaxTokens   int
	Temperature float64
}

// OpenAI is a Backend over the official openai-go client
type OpenAI struct {
	client      openai.Client
	model       string
	maxTokens   int
	temperature float64
}

// NewOpenAI creates the client. An empty BaseURL uses the public endpoint.
func NewOpenAI(config OpenAIConfig) *OpenAI {
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(config.MaxRetries),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(config.Timeout))
	}

	model := config.Model
	if model == "" {
		model = "gpt-4"
	}

	return &OpenAI{
		client:      openai.NewClient(opts...),
		model:       model,
		maxTokens:   config.MaxTokens,
		temperature: config.Temperature,
	}
}

func (o *OpenAI) Name() string { return "openai" }

// Complete sends an optional system message followed by the prompt
func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	temperature := req.Temperature
	if temperature == 0 {
		temperature = o.temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = o.maxTokens
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.model),
		Messages:    messages,
		Temperature: openai.Float(temperature),
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response")
	}
	return resp.Choices[0].Message.Content, nil
}
