package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

const embeddingKeyPrefix = "query_embedding:"

// EmbeddingCache memoizes query embeddings. Identical query texts map to the
// same vector for a fixed provider and model, so a cache hit saves a remote
// embedding call on repeated questions.
type EmbeddingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewEmbeddingCache wraps a connected Redis client. A non-positive ttl
// disables expiry.
func NewEmbeddingCache(client *redis.Client, ttl time.Duration) *EmbeddingCache {
	return &EmbeddingCache{client: client, ttl: ttl}
}

// Get returns the cached vector for the query text, or false on a miss.
// Cache errors are treated as misses; the caller re-embeds.
func (c *EmbeddingCache) Get(ctx context.Context, query string) ([]float32, bool) {
	raw, err := c.client.Get(ctx, cacheKey(query)).Bytes()
	if err != nil {
		// redis.Nil is an ordinary miss; anything else degrades to one.
		return nil, false
	}

	var vector []float32
	if err := json.Unmarshal(raw, &vector); err != nil {
		return nil, false
	}
	return vector, true
}

// Set stores the vector for the query text.
func (c *EmbeddingCache) Set(ctx context.Context, query string, vector []float32) error {
	payload, err := json.Marshal(vector)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(query), payload, c.ttl).Err()
}

func cacheKey(query string) string {
	sum := sha256.Sum256([]byte(query))
	return embeddingKeyPrefix + hex.EncodeToString(sum[:])
}
