package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"golang.org/x/sync/semaphore"
)

const localTemperature = 0.7

// LocalConfig selects an Ollama-served model
type LocalConfig struct {
	ServerURL string
	Model     string
}

// Ollama generates continuations through langchaingo's Ollama driver
type Ollama struct {
	model llms.Model
}

// NewOllama connects lazily; no request is made until Generate.
func NewOllama(config LocalConfig) (*Ollama, error) {
	if config.Model == "" {
		return nil, fmt.Errorf("local model name is required")
	}

	opts := []ollama.Option{ollama.WithModel(config.Model)}
	if config.ServerURL != "" {
		opts = append(opts, ollama.WithServerURL(config.ServerURL))
	}

	model, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}
	return &Ollama{model: model}, nil
}

// Generate samples a continuation of at most maxLength tokens
func (o *Ollama) Generate(ctx context.Context, prompt string, maxLength int) (string, error) {
	opts := []llms.CallOption{llms.WithTemperature(localTemperature)}
	if maxLength > 0 {
		opts = append(opts, llms.WithMaxTokens(maxLength))
	}

	text, err := llms.GenerateFromSinglePrompt(ctx, o.model, prompt, opts...)
	if err != nil {
		return "", fmt.Errorf("local generation: %w", err)
	}
	return text, nil
}

// Serialized bounds concurrent access to a LocalModel whose handle is not reentrant
type Serialized struct {
	model LocalModel
	sem   *semaphore.Weighted
}

// Serialize wraps m so that at most n Generate calls run at once
func Serialize(m LocalModel, n int64) *Serialized {
	if n < 1 {
		n = 1
	}
	return &Serialized{model: m, sem: semaphore.NewWeighted(n)}
}

// Generate waits for a slot or for ctx to end
func (s *Serialized) Generate(ctx context.Context, prompt string, maxLength int) (string, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer s.sem.Release(1)

	return s.model.Generate(ctx, prompt, maxLength)
}
