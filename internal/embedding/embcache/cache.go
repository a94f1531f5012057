// Package embcache caches embeddings in Redis so re-ingesting unchanged
// chunks costs no provider tokens.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/redis/rueidis"
	"go.uber.org/zap"

	"github.com/Arthursca/multi-agent-medico/internal/domain"
	"github.com/Arthursca/multi-agent-medico/internal/metrics"
)

const cacheKeyPrefix = "medico:emb_cache:"

// CachedEmbedder is a caching decorator over an embedding provider.
type CachedEmbedder struct {
	inner  domain.Embedder
	client rueidis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// New creates a caching decorator. Vectors are stored as little-endian
// float32 blobs keyed by sha256 of the text.
func New(inner domain.Embedder, client rueidis.Client, ttl time.Duration, logger *zap.Logger) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, client: client, ttl: ttl, logger: logger}
}

// Embed returns a cached embedding or calls the inner embedder. Cache
// failures are logged and degrade to a provider call, never to an error.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return c.inner.Embed(ctx, text)
	}
	key := cacheKey(text)

	if vec, ok := c.getFromCache(ctx, key); ok {
		metrics.EmbeddingCacheTotal.WithLabelValues("hit").Inc()
		return vec, nil
	}
	metrics.EmbeddingCacheTotal.WithLabelValues("miss").Inc()

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.putToCache(ctx, key, vec)
	return vec, nil
}

func cacheKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}

func (c *CachedEmbedder) getFromCache(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.client.Do(ctx, c.client.B().Get().Key(key).Build()).AsBytes()
	if err != nil {
		if !rueidis.IsRedisNil(err) {
			c.logger.Warn("Failed to get cached embedding", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	vec, err := bytesToVector(data)
	if err != nil {
		c.logger.Warn("Failed to parse cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return vec, true
}

func (c *CachedEmbedder) putToCache(ctx context.Context, key string, vec []float32) {
	if len(vec) == 0 {
		return
	}
	cmd := c.client.B().Set().Key(key).
		Value(rueidis.BinaryString(vectorToBytes(vec))).
		Ex(c.ttl).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		c.logger.Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
	}
}

func vectorToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid vector blob length %d", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
