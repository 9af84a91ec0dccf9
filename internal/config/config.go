package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/todmy/reasoning-engine/internal/errors"
)

// Config is the complete service configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	LLM        LLMConfig        `yaml:"llm"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Reasoning  ReasoningConfig  `yaml:"reasoning"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ServerConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig is optional; an empty URL runs the service without the archive and accounts.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenDuration time.Duration `yaml:"token_duration"`
}

// LLMConfig configures the generation backends. A backend without credentials is unavailable.
type LLMConfig struct {
	GenerationTimeout time.Duration   `yaml:"generation_timeout"`
	Anthropic         AnthropicConfig `yaml:"anthropic"`
	OpenAI            OpenAIConfig    `yaml:"openai"`
	Local             LocalConfig     `yaml:"local"`
}

type AnthropicConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

type OpenAIConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// LocalConfig points at an Ollama server. An empty model disables the local generator.
type LocalConfig struct {
	ServerURL     string `yaml:"server_url"`
	Model         string `yaml:"model"`
	MaxConcurrent int    `yaml:"max_concurrent"`
}

type EmbeddingsConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type ReasoningConfig struct {
	DefaultMaxSteps      int  `yaml:"default_max_steps"`
	MaxStepsLimit        int  `yaml:"max_steps_limit"`
	FallbackOnEmptyParse bool `yaml:"fallback_on_empty_parse"`
	HeuristicFallback    bool `yaml:"heuristic_fallback"`
	NetworkConcurrency   int  `yaml:"network_concurrency"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// DefaultJWTSecret is the development signing key. It is rejected once accounts are enabled.
const DefaultJWTSecret = "change-me-in-production"

// Default returns the configuration used when nothing else is set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			AllowedOrigins: []string{"http://localhost:*", "https://*"},
		},
		Auth: AuthConfig{
			JWTSecret:     DefaultJWTSecret,
			TokenDuration: 24 * time.Hour,
		},
		LLM: LLMConfig{
			GenerationTimeout: 60 * time.Second,
			Anthropic: AnthropicConfig{
				BaseURL:     "https://api.anthropic.com/v1",
				Model:       "claude-3-sonnet-20240229",
				MaxTokens:   2000,
				Temperature: 0.3,
			},
			OpenAI: OpenAIConfig{
				Model:       "gpt-4",
				MaxTokens:   2000,
				Temperature: 0.3,
			},
			Local: LocalConfig{
				ServerURL:     "http://localhost:11434",
				MaxConcurrent: 1,
			},
		},
		Embeddings: EmbeddingsConfig{
			BaseURL: "https://openrouter.ai/api/v1",
			Model:   "openai/text-embedding-3-small",
		},
		Reasoning: ReasoningConfig{
			DefaultMaxSteps:    5,
			MaxStepsLimit:      20,
			NetworkConcurrency: 4,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads an optional YAML file, applies environment overrides and validates the result.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrap(err, "failed to parse config file")
			}
		case os.IsNotExist(err):
		default:
			return nil, errors.Wrap(err, "failed to read config file")
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.Server.Port = getEnvOrDefault("PORT", c.Server.Port)
	c.Database.URL = getEnvOrDefault("DATABASE_URL", c.Database.URL)

	c.Auth.JWTSecret = getEnvOrDefault("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.TokenDuration = getEnvDurationOrDefault("TOKEN_DURATION", c.Auth.TokenDuration)

	c.LLM.GenerationTimeout = getEnvDurationOrDefault("GENERATION_TIMEOUT", c.LLM.GenerationTimeout)
	c.LLM.Anthropic.APIKey = getEnvOrDefault("ANTHROPIC_API_KEY", c.LLM.Anthropic.APIKey)
	c.LLM.Anthropic.Model = getEnvOrDefault("ANTHROPIC_MODEL", c.LLM.Anthropic.Model)
	c.LLM.OpenAI.APIKey = getEnvOrDefault("OPENAI_API_KEY", c.LLM.OpenAI.APIKey)
	c.LLM.OpenAI.Model = getEnvOrDefault("OPENAI_MODEL", c.LLM.OpenAI.Model)
	c.LLM.OpenAI.BaseURL = getEnvOrDefault("OPENAI_BASE_URL", c.LLM.OpenAI.BaseURL)
	c.LLM.Local.ServerURL = getEnvOrDefault("OLLAMA_URL", c.LLM.Local.ServerURL)
	c.LLM.Local.Model = getEnvOrDefault("OLLAMA_MODEL", c.LLM.Local.Model)
	c.LLM.Local.MaxConcurrent = getEnvIntOrDefault("LOCAL_MAX_CONCURRENT", c.LLM.Local.MaxConcurrent)

	c.Embeddings.APIKey = getEnvOrDefault("OPENROUTER_API_KEY", c.Embeddings.APIKey)
	c.Embeddings.Model = getEnvOrDefault("EMBEDDING_MODEL", c.Embeddings.Model)

	c.Reasoning.DefaultMaxSteps = getEnvIntOrDefault("REASONING_MAX_STEPS", c.Reasoning.DefaultMaxSteps)
	c.Reasoning.FallbackOnEmptyParse = getEnvBoolOrDefault("FALLBACK_ON_EMPTY_PARSE", c.Reasoning.FallbackOnEmptyParse)
	c.Reasoning.HeuristicFallback = getEnvBoolOrDefault("HEURISTIC_FALLBACK", c.Reasoning.HeuristicFallback)
	c.Reasoning.NetworkConcurrency = getEnvIntOrDefault("NETWORK_CONCURRENCY", c.Reasoning.NetworkConcurrency)

	c.Logging.Level = getEnvOrDefault("LOG_LEVEL", c.Logging.Level)
	c.Logging.Development = getEnvBoolOrDefault("LOG_DEVELOPMENT", c.Logging.Development)
}

// Validate checks ranges that the rest of the service relies on
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if c.LLM.GenerationTimeout <= 0 {
		return errors.ConfigInvalid("generation timeout must be positive")
	}
	if c.Reasoning.MaxStepsLimit < 1 {
		return errors.ConfigInvalid("max steps limit must be at least 1")
	}
	if c.Reasoning.DefaultMaxSteps < 1 || c.Reasoning.DefaultMaxSteps > c.Reasoning.MaxStepsLimit {
		return errors.ConfigInvalid(fmt.Sprintf("default max steps must be between 1 and %d", c.Reasoning.MaxStepsLimit))
	}
	if c.Reasoning.NetworkConcurrency < 1 {
		return errors.ConfigInvalid("network concurrency must be at least 1")
	}
	if c.LLM.Local.MaxConcurrent < 1 {
		return errors.ConfigInvalid("local max concurrent must be at least 1")
	}
	if c.Auth.TokenDuration <= 0 {
		return errors.ConfigInvalid("token duration must be positive")
	}
	if c.Database.URL != "" {
		secret := strings.TrimSpace(c.Auth.JWTSecret)
		if secret == "" || secret == DefaultJWTSecret {
			return errors.ConfigInvalid("JWT_SECRET must be set when DATABASE_URL enables accounts")
		}
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
