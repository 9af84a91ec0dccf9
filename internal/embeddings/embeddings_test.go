package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/todmy/reasoning-engine/internal/errors"
)

// newEmbeddingServer answers with vector {len(text), index} for every input, in reverse order
func newEmbeddingServer(t *testing.T, requests *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(requests, 1)
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var resp embeddingResponse
		for i := len(req.Input) - 1; i >= 0; i-- {
			resp.Data = append(resp.Data, embeddingData{
				Index:     i,
				Embedding: []float32{float32(len(req.Input[i])), float32(i)},
			})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestClient_EmbedTextsPreservesOrder(t *testing.T) {
	var requests int32
	srv := newEmbeddingServer(t, &requests)
	defer srv.Close()

	c := NewClient("key", WithBaseURL(srv.URL), WithBatchSize(2), WithMaxConcurrent(2))
	got, err := c.EmbedTexts(context.Background(), []string{"a", "bb", "ccc", "dddd", "eeeee"})
	require.NoError(t, err)

	require.Len(t, got, 5)
	for i, v := range got {
		assert.Equal(t, float32(i+1), v[0])
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&requests))
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient("key", WithBaseURL(srv.URL)).EmbedText(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeExternalService, apperrors.GetCode(err))
	assert.Contains(t, err.Error(), "429")
}

func TestCachedClient_OnlyEmbedsMisses(t *testing.T) {
	var requests int32
	srv := newEmbeddingServer(t, &requests)
	defer srv.Close()

	cache := NewMemoryCache(0)
	c := NewCachedClient(NewClient("key", WithBaseURL(srv.URL)), cache, nil)

	first, err := c.EmbedTexts(context.Background(), []string{"one", "three"})
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Len())

	second, err := c.EmbedTexts(context.Background(), []string{"three", "fourteen", "one"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&requests))
	assert.Equal(t, first[1], second[0])
	assert.Equal(t, first[0], second[2])
	assert.Equal(t, float32(8), second[1][0])

	_, err = c.EmbedTexts(context.Background(), []string{"one", "three", "fourteen"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&requests))
}

func TestMemoryCache_Bounded(t *testing.T) {
	cache := NewMemoryCache(1)
	require.NoError(t, cache.SetMulti(context.Background(), map[string][]float32{"a": {1}}))
	require.NoError(t, cache.SetMulti(context.Background(), map[string][]float32{"b": {2}, "a": {3}}))

	got, err := cache.GetMulti(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]float32{"a": {3}}, got)
}

func TestGenerateCacheKey(t *testing.T) {
	k := GenerateCacheKey(DefaultModel, "text")
	assert.Len(t, k, 16)
	assert.Equal(t, k, GenerateCacheKey(DefaultModel, "text"))
	assert.NotEqual(t, k, GenerateCacheKey(ModelTextEmbedding3Large, "text"))
	assert.Equal(t, DimTextEmbedding3Large, GetEmbeddingDimension(ModelTextEmbedding3Large))
}
