package llm

import (
	"strings"

	"go.uber.org/zap"

	"github.com/todmy/reasoning-engine/internal/config"
)

// Backends are the process-wide generation handles. Nil fields are unavailable.
type Backends struct {
	Primary   Backend
	Secondary Backend
	Local     LocalModel
}

// NewBackends builds every backend whose credentials are present in cfg
func NewBackends(cfg config.LLMConfig, logger *zap.Logger) (Backends, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var b Backends

	if key := strings.TrimSpace(cfg.Anthropic.APIKey); key != "" {
		b.Primary = NewAnthropic(AnthropicConfig{
			APIKey:      key,
			BaseURL:     cfg.Anthropic.BaseURL,
			Model:       cfg.Anthropic.Model,
			Timeout:     cfg.GenerationTimeout,
			MaxTokens:   cfg.Anthropic.MaxTokens,
			Temperature: cfg.Anthropic.Temperature,
		})
		logger.Info("llm: anthropic backend configured", zap.String("model", cfg.Anthropic.Model))
	} else {
		logger.Debug("llm: ANTHROPIC_API_KEY not set; primary backend unavailable")
	}

	if key := strings.TrimSpace(cfg.OpenAI.APIKey); key != "" {
		b.Secondary = NewOpenAI(OpenAIConfig{
			APIKey:      key,
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.OpenAI.Model,
			Timeout:     cfg.GenerationTimeout,
			MaxTokens:   cfg.OpenAI.MaxTokens,
			Temperature: cfg.OpenAI.Temperature,
		})
		logger.Info("llm: openai backend configured", zap.String("model", cfg.OpenAI.Model))
	} else {
		logger.Debug("llm: OPENAI_API_KEY not set; secondary backend unavailable")
	}

	if model := strings.TrimSpace(cfg.Local.Model); model != "" {
		local, err := NewOllama(LocalConfig{ServerURL: cfg.Local.ServerURL, Model: model})
		if err != nil {
			return Backends{}, err
		}
		b.Local = Serialize(local, int64(cfg.Local.MaxConcurrent))
		logger.Info("llm: local model configured",
			zap.String("model", model),
			zap.String("server_url", cfg.Local.ServerURL),
			zap.Int("max_concurrent", cfg.Local.MaxConcurrent),
		)
	} else {
		logger.Warn("llm: OLLAMA_MODEL not set; local generation unavailable")
	}

	return b, nil
}

// Configured lists the names of the available backends
func (b Backends) Configured() []string {
	names := []string{}
	if b.Primary != nil {
		names = append(names, b.Primary.Name())
	}
	if b.Secondary != nil {
		names = append(names, b.Secondary.Name())
	}
	if b.Local != nil {
		names = append(names, "local")
	}
	return names
}
