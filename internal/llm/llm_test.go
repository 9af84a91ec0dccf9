package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/todmy/reasoning-engine/internal/config"
)

type stubBackend struct {
	text  string
	err   error
	delay time.Duration
}

func (s *stubBackend) Name() string { return "stub" }

func (s *stubBackend) Complete(ctx context.Context, req Request) (string, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.text, s.err
}

func TestCall_Unavailable(t *testing.T) {
	res := Call(context.Background(), nil, Request{Prompt: "p"}, time.Second)
	assert.Equal(t, StatusUnavailable, res.Status)
	assert.ErrorIs(t, res.Err, ErrNotConfigured)
	assert.False(t, res.OK())
}

func TestCall_OKAndFailed(t *testing.T) {
	res := Call(context.Background(), &stubBackend{text: "Step 1: [PREMISE] - x"}, Request{}, time.Second)
	require.True(t, res.OK())
	assert.Equal(t, "stub", res.Provider)
	assert.Equal(t, "Step 1: [PREMISE] - x", res.Text)

	res = Call(context.Background(), &stubBackend{err: errors.New("rate limited")}, Request{}, time.Second)
	assert.Equal(t, StatusFailed, res.Status)
	assert.EqualError(t, res.Err, "rate limited")
	assert.False(t, res.TimedOut())
}

func TestCall_TimeoutIsFailure(t *testing.T) {
	res := Call(context.Background(), &stubBackend{text: "late", delay: time.Second}, Request{}, 20*time.Millisecond)
	assert.Equal(t, StatusFailed, res.Status)
	assert.True(t, res.TimedOut())
}

func TestGenerate_NilModel(t *testing.T) {
	res := Generate(context.Background(), nil, "prompt", 10, time.Second)
	assert.Equal(t, StatusUnavailable, res.Status)
}

func TestAnthropic_Complete(t *testing.T) {
	var got messagesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"REASONING CHAIN:\nStep 1: [PREMISE] - A"}]}`))
	}))
	defer srv.Close()

	client := NewAnthropic(AnthropicConfig{APIKey: "test-key", BaseURL: srv.URL, Model: "claude-test"})
	text, err := client.Complete(context.Background(), Request{Prompt: "analyze", MaxTokens: 2000, Temperature: 0.3})
	require.NoError(t, err)

	assert.Contains(t, text, "Step 1: [PREMISE] - A")
	assert.Equal(t, "claude-test", got.Model)
	assert.Equal(t, 2000, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "analyze", got.Messages[0].Content)
}

func TestAnthropic_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewAnthropic(AnthropicConfig{APIKey: "k", BaseURL: srv.URL})
	_, err := client.Complete(context.Background(), Request{Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestOpenAI_Complete(t *testing.T) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": "1. Alternative explanation"}
			}]
		}`))
	}))
	defer srv.Close()

	client := NewOpenAI(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/", Model: "gpt-4"})
	text, err := client.Complete(context.Background(), Request{
		System:      "You are an expert logician and critical thinking assistant.",
		Prompt:      "counter",
		MaxTokens:   500,
		Temperature: 0.3,
	})
	require.NoError(t, err)
	assert.Equal(t, "1. Alternative explanation", text)

	assert.Equal(t, "gpt-4", body["model"])
	messages, ok := body["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]interface{})["role"])
	assert.Equal(t, "user", messages[1].(map[string]interface{})["role"])
}

type fakeLLM struct {
	reply string
	opts  llms.CallOptions
}

func (f *fakeLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, opt := range options {
		opt(&f.opts)
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestOllama_GeneratePassesBudget(t *testing.T) {
	fake := &fakeLLM{reply: "1. Premise: water boils at 100C"}
	local := &Ollama{model: fake}

	text, err := local.Generate(context.Background(), "prompt", 230)
	require.NoError(t, err)
	assert.Equal(t, "1. Premise: water boils at 100C", text)
	assert.Equal(t, 230, fake.opts.MaxTokens)
	assert.InDelta(t, localTemperature, fake.opts.Temperature, 1e-9)
}

type countingModel struct {
	active  int32
	maxSeen int32
}

func (c *countingModel) Generate(ctx context.Context, prompt string, maxLength int) (string, error) {
	n := atomic.AddInt32(&c.active, 1)
	for {
		seen := atomic.LoadInt32(&c.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&c.maxSeen, seen, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	atomic.AddInt32(&c.active, -1)
	return prompt, nil
}

func TestSerialize_LimitsConcurrency(t *testing.T) {
	model := &countingModel{}
	serialized := Serialize(model, 1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := serialized.Generate(context.Background(), "p", 10)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&model.maxSeen))
}

func TestSerialize_ContextCancelled(t *testing.T) {
	serialized := Serialize(&countingModel{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := serialized.Generate(ctx, "p", 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewBackends(t *testing.T) {
	cfg := config.Default().LLM
	b, err := NewBackends(cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, b.Primary)
	assert.Nil(t, b.Secondary)
	assert.Nil(t, b.Local)
	assert.Empty(t, b.Configured())

	cfg.Anthropic.APIKey = "a"
	cfg.OpenAI.APIKey = "o"
	cfg.Local.Model = "llama3"
	b, err = NewBackends(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"anthropic", "openai", "local"}, b.Configured())
}

func TestAnthropic_UsesConfiguredSettings(t *testing.T) {
	var got messagesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"ok"}]}`))
	}))
	defer srv.Close()

	client := NewAnthropic(AnthropicConfig{APIKey: "k", BaseURL: srv.URL, MaxTokens: 1200, Temperature: 0.5})
	_, err := client.Complete(context.Background(), Request{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, 1200, got.MaxTokens)
	assert.InDelta(t, 0.5, got.Temperature, 1e-9)

	_, err = client.Complete(context.Background(), Request{Prompt: "p", MaxTokens: 800, Temperature: 0.1})
	require.NoError(t, err)
	assert.Equal(t, 800, got.MaxTokens)
	assert.InDelta(t, 0.1, got.Temperature, 1e-9)
}

func TestOpenAI_UsesConfiguredSettings(t *testing.T) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-2",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "ok"}}]
		}`))
	}))
	defer srv.Close()

	client := NewOpenAI(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/", MaxTokens: 1500, Temperature: 0.6})
	_, err := client.Complete(context.Background(), Request{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, float64(1500), body["max_tokens"])
	assert.InDelta(t, 0.6, body["temperature"], 1e-9)
}
