package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"go.uber.org/zap"
)

// Cache stores embeddings by key
type Cache interface {
	// GetMulti returns the entries found for keys
	GetMulti(ctx context.Context, keys []string) (map[string][]float32, error)
	SetMulti(ctx context.Context, embeddings map[string][]float32) error
}

// GenerateCacheKey creates a cache key from model and text
func GenerateCacheKey(model, text string) string {
	h := sha256.Sum256([]byte(model + ":" + text))
	return hex.EncodeToString(h[:])[:16]
}

// MemoryCache is an in-process Cache holding at most maxEntries vectors.
// When full, new entries are dropped.
type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string][]float32
	maxEntries int
}

// NewMemoryCache creates a cache; maxEntries <= 0 means unbounded
func NewMemoryCache(maxEntries int) *MemoryCache {
	return &MemoryCache{entries: make(map[string][]float32), maxEntries: maxEntries}
}

func (m *MemoryCache) GetMulti(ctx context.Context, keys []string) (map[string][]float32, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	found := make(map[string][]float32)
	for _, k := range keys {
		if v, ok := m.entries[k]; ok {
			found[k] = v
		}
	}
	return found, nil
}

func (m *MemoryCache) SetMulti(ctx context.Context, embeddings map[string][]float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range embeddings {
		if _, ok := m.entries[k]; !ok && m.maxEntries > 0 && len(m.entries) >= m.maxEntries {
			continue
		}
		m.entries[k] = v
	}
	return nil
}

// Len returns the number of cached vectors
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// CachedClient wraps a Client with caching. Cache failures are logged and
// treated as misses.
type CachedClient struct {
	client *Client
	cache  Cache
	logger *zap.Logger
}

// NewCachedClient creates a new cached embedding client
func NewCachedClient(client *Client, cache Cache, logger *zap.Logger) *CachedClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedClient{client: client, cache: cache, logger: logger}
}

// Dimension returns the vector size of the wrapped client's model
func (c *CachedClient) Dimension() int {
	return c.client.Dimension()
}

// EmbedTexts returns cached vectors and embeds only the misses
func (c *CachedClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	keys := make([]string, len(texts))
	for i, text := range texts {
		keys[i] = GenerateCacheKey(c.client.Model(), text)
	}

	cached, err := c.cache.GetMulti(ctx, keys)
	if err != nil {
		c.logger.Warn("embedding cache read failed", zap.Error(err))
		cached = map[string][]float32{}
	}

	var missTexts []string
	var missIdx []int
	for i, key := range keys {
		if _, ok := cached[key]; !ok {
			missTexts = append(missTexts, texts[i])
			missIdx = append(missIdx, i)
		}
	}

	results := make([][]float32, len(texts))
	for i, key := range keys {
		results[i] = cached[key]
	}
	if len(missTexts) == 0 {
		return results, nil
	}

	fresh, err := c.client.EmbedTexts(ctx, missTexts)
	if err != nil {
		return nil, err
	}

	toCache := make(map[string][]float32, len(fresh))
	for i, idx := range missIdx {
		results[idx] = fresh[i]
		if fresh[i] != nil {
			toCache[keys[idx]] = fresh[i]
		}
	}
	if err := c.cache.SetMulti(ctx, toCache); err != nil {
		c.logger.Warn("embedding cache write failed", zap.Error(err))
	}

	return results, nil
}

// EmbedText embeds a single text
func (c *CachedClient) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return embedOne(ctx, c, text)
}
