package embedcache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int
	err   error
}

func (c *countingEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []float32{float32(len(text)), 1}, nil
}

func (c *countingEmbedder) ModelName() string {
	return "counting"
}

type mapStore struct {
	mu   sync.Mutex
	data map[string][]float32
}

func newMapStore() *mapStore {
	return &mapStore{data: map[string][]float32{}}
}

func (m *mapStore) Name() string { return "map" }

func (m *mapStore) Get(ctx context.Context, key Key) ([]float32, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key.String()]
	return v, ok, nil
}

func (m *mapStore) Save(ctx context.Context, key Key, values []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key.String()] = values
	return nil
}

func TestWrapWithoutStores(t *testing.T) {
	e := &countingEmbedder{}
	require.Same(t, e, Wrap(e))
	require.Same(t, e, Wrap(e, NewLRUStore(0, time.Minute)))
}

func TestLRUCacheHit(t *testing.T) {
	e := &countingEmbedder{}
	cached := Wrap(e, NewLRUStore(10, time.Minute))
	ctx := context.Background()

	a, err := cached.Embed(ctx, "hello", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	a[0] = 99 // callers must not be able to corrupt the cache
	b, err := cached.Embed(ctx, "hello", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Equal(t, []float32{5, 1}, b)
	require.Equal(t, 1, e.calls)

	_, err = cached.Embed(ctx, "hello", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.Equal(t, 2, e.calls)
	require.Equal(t, "counting", cached.ModelName())
}

func TestLowerStoreHitFillsUpper(t *testing.T) {
	e := &countingEmbedder{}
	upper, lower := newMapStore(), newMapStore()
	key := NewKey("counting", "RETRIEVAL_QUERY", "abc")
	require.NoError(t, lower.Save(context.Background(), key, []float32{7}))

	cached := Wrap(e, upper, lower)
	got, err := cached.Embed(context.Background(), "abc", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.Equal(t, []float32{7}, got)
	require.Equal(t, 0, e.calls)
	v, ok, _ := upper.Get(context.Background(), key)
	require.True(t, ok)
	require.Equal(t, []float32{7}, v)
}

func TestEmbedErrorNotCached(t *testing.T) {
	e := &countingEmbedder{err: errors.New("down")}
	store := newMapStore()
	cached := Wrap(e, store)
	_, err := cached.Embed(context.Background(), "x", "")
	require.Error(t, err)
	require.Empty(t, store.data)
}

func TestNewKey(t *testing.T) {
	k := NewKey(" ", "T", "text")
	require.Equal(t, "unknown", k.ModelName)
	require.Len(t, k.ContentHash, 64)
	require.Equal(t, "embed:unknown:T:"+k.ContentHash, k.String())
}
