package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedProvider wraps a Provider with a redis cache keyed by a hash of the
// input text. Cache failures fall through to the backend: a dead redis must
// never fail an embedding call.
type CachedProvider struct {
	backend Provider
	rdb     *redis.Client
	ttl     time.Duration
}

func NewCachedProvider(backend Provider, rdb *redis.Client, ttl time.Duration) Provider {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedProvider{
		backend: backend,
		rdb:     rdb,
		ttl:     ttl,
	}
}

func (c *CachedProvider) Dimensions() int {
	return c.backend.Dimensions()
}

func (c *CachedProvider) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("embed:%d:%s", c.backend.Dimensions(), hex.EncodeToString(sum[:]))
}

func (c *CachedProvider) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if vec, ok := c.lookup(ctx, text); ok {
			vectors[i] = vec
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return vectors, nil
	}

	fresh, err := c.backend.EmbedTexts(ctx, missing)
	if err != nil {
		return nil, err
	}

	for j, vec := range fresh {
		vectors[missingIdx[j]] = vec
		c.store(ctx, missing[j], vec)
	}
	return vectors, nil
}

func (c *CachedProvider) lookup(ctx context.Context, text string) ([]float32, bool) {
	raw, err := c.rdb.Get(ctx, c.cacheKey(text)).Bytes()
	if err != nil {
		return nil, false
	}
	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil {
		return nil, false
	}
	return vec, true
}

func (c *CachedProvider) store(ctx context.Context, text string, vec []float32) {
	raw, err := json.Marshal(vec)
	if err != nil {
		return
	}
	// Best effort; errors are ignored and the next call re-embeds.
	c.rdb.Set(ctx, c.cacheKey(text), raw, c.ttl)
}
