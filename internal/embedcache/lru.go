package embedcache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type lruStore struct {
	cache *expirable.LRU[string, []float32]
}

// NewLRUStore returns nil when size or ttl disables the cache.
func NewLRUStore(size int, ttl time.Duration) Store {
	if size <= 0 || ttl <= 0 {
		return nil
	}
	return &lruStore{cache: expirable.NewLRU[string, []float32](size, nil, ttl)}
}

func (l *lruStore) Name() string {
	return "lru"
}

func (l *lruStore) Get(ctx context.Context, key Key) ([]float32, bool, error) {
	values, ok := l.cache.Get(key.String())
	return values, ok, nil
}

func (l *lruStore) Save(ctx context.Context, key Key, values []float32) error {
	l.cache.Add(key.String(), values)
	return nil
}
