package receipt

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/dgraph-io/ristretto/v2"

	"spendtrack/internal/core"
)

// CachedExtractor memoizes another Extractor by image digest. Failed
// extractions are not cached.
type CachedExtractor struct {
	next  Extractor
	cache *ristretto.Cache[string, core.ParsedTransaction]
}

// NewCachedExtractor wraps next with a cache holding up to size results.
func NewCachedExtractor(next Extractor, size int64) (*CachedExtractor, error) {
	if size <= 0 {
		size = 1000
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, core.ParsedTransaction]{
		NumCounters: size * 10,
		MaxCost:     size,
		BufferItems: 64,
		// Each entry costs 1; MaxCost is an entry count.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create receipt cache: %w", err)
	}
	return &CachedExtractor{next: next, cache: c}, nil
}

var _ Extractor = (*CachedExtractor)(nil)

func (c *CachedExtractor) Extract(ctx context.Context, img []byte) (core.ParsedTransaction, error) {
	sum := sha256.Sum256(img)
	key := hex.EncodeToString(sum[:])
	if p, ok := c.cache.Get(key); ok {
		return p, nil
	}
	p, err := c.next.Extract(ctx, img)
	if err != nil {
		return core.ParsedTransaction{}, err
	}
	c.cache.Set(key, p, 1)
	c.cache.Wait()
	return p, nil
}

func (c *CachedExtractor) Close() {
	c.cache.Close()
}
