// Package cachebackend wraps an inner Backend with a read cache that
// memoizes Get/BatchGet results for the wrapper's lifetime. It never
// observes writes made through it or through any other handle, so it must
// only be used by short-lived, read-heavy sessions. Grounded on the
// teacher's wrap-an-inner-store idiom (generic/store/memory.go's TxMemory).
package cachebackend

import (
	"context"
	"sync"

	"github.com/dskart/payment-engine/backend"
)

type Backend struct {
	inner backend.Backend

	mu    sync.Mutex
	cache map[string][]byte
	miss  map[string]bool
}

// New wraps inner with a point-in-time read memoization layer.
func New(inner backend.Backend) *Backend {
	return &Backend{
		inner: inner,
		cache: make(map[string][]byte),
		miss:  make(map[string]bool),
	}
}

func (b *Backend) Get(ctx context.Context, key []byte) ([]byte, error) {
	b.mu.Lock()
	if v, ok := b.cache[string(key)]; ok {
		b.mu.Unlock()
		return v, nil
	}
	if b.miss[string(key)] {
		b.mu.Unlock()
		return nil, nil
	}
	b.mu.Unlock()

	v, err := b.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	if v == nil {
		b.miss[string(key)] = true
	} else {
		b.cache[string(key)] = v
	}
	b.mu.Unlock()
	return v, nil
}

func (b *Backend) BatchGet(ctx context.Context, keys [][]byte) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	var toFetch [][]byte

	b.mu.Lock()
	for _, k := range keys {
		if v, ok := b.cache[string(k)]; ok {
			out[string(k)] = v
		} else if !b.miss[string(k)] {
			toFetch = append(toFetch, k)
		}
	}
	b.mu.Unlock()

	if len(toFetch) == 0 {
		return out, nil
	}

	fetched, err := b.inner.BatchGet(ctx, toFetch)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	for _, k := range toFetch {
		if v, ok := fetched[string(k)]; ok {
			b.cache[string(k)] = v
			out[string(k)] = v
		} else {
			b.miss[string(k)] = true
		}
	}
	b.mu.Unlock()
	return out, nil
}

// Sorted-set reads and every write pass straight through: the cache only
// memoizes point Get/BatchGet results.

func (b *Backend) ZAdd(ctx context.Context, setKey, member []byte, score float64) error {
	return b.inner.ZAdd(ctx, setKey, member, score)
}

func (b *Backend) ZRem(ctx context.Context, setKey, member []byte) error {
	return b.inner.ZRem(ctx, setKey, member)
}

func (b *Backend) ZRangeByScore(ctx context.Context, setKey []byte, min, max float64, limit int) ([][]byte, error) {
	return b.inner.ZRangeByScore(ctx, setKey, min, max, limit)
}

func (b *Backend) ZRevRangeByScore(ctx context.Context, setKey []byte, min, max float64, limit int) ([][]byte, error) {
	return b.inner.ZRevRangeByScore(ctx, setKey, min, max, limit)
}

func (b *Backend) AtomicWrite(ctx context.Context, batch *backend.WriteBatch) (bool, error) {
	return b.inner.AtomicWrite(ctx, batch)
}
