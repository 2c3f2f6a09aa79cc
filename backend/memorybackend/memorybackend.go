// Package memorybackend is the in-process hash-backed Backend variant: the
// deployment used by tests and simple single-node deployments. Grounded on
// the teacher's RWMutex-guarded map store (generic/store/memory.go).
package memorybackend

import (
	"context"
	"sort"
	"sync"

	"github.com/dskart/payment-engine/backend"
)

type member struct {
	value []byte
	score float64
}

// Backend is a sync.RWMutex-guarded in-memory Backend.
type Backend struct {
	mu         sync.RWMutex
	values     map[string][]byte
	sortedSets map[string]map[string]member
}

func New() *Backend {
	return &Backend{
		values:     make(map[string][]byte),
		sortedSets: make(map[string]map[string]member),
	}
}

func (b *Backend) Get(_ context.Context, key []byte) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.values[string(key)]
	if !ok {
		return nil, nil
	}
	return cloneBytes(v), nil
}

func (b *Backend) BatchGet(_ context.Context, keys [][]byte) (map[string][]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := b.values[string(k)]; ok {
			out[string(k)] = cloneBytes(v)
		}
	}
	return out, nil
}

func (b *Backend) ZAdd(_ context.Context, setKey, m []byte, score float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.zAddLocked(setKey, m, score)
	return nil
}

func (b *Backend) zAddLocked(setKey, m []byte, score float64) {
	set, ok := b.sortedSets[string(setKey)]
	if !ok {
		set = make(map[string]member)
		b.sortedSets[string(setKey)] = set
	}
	set[string(m)] = member{value: cloneBytes(m), score: score}
}

func (b *Backend) ZRem(_ context.Context, setKey, m []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.zRemLocked(setKey, m)
	return nil
}

func (b *Backend) zRemLocked(setKey, m []byte) {
	if set, ok := b.sortedSets[string(setKey)]; ok {
		delete(set, string(m))
	}
}

func (b *Backend) ZRangeByScore(_ context.Context, setKey []byte, min, max float64, limit int) ([][]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.rangeByScore(setKey, min, max, limit, false), nil
}

func (b *Backend) ZRevRangeByScore(_ context.Context, setKey []byte, min, max float64, limit int) ([][]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.rangeByScore(setKey, min, max, limit, true), nil
}

func (b *Backend) rangeByScore(setKey []byte, min, max float64, limit int, descending bool) [][]byte {
	set := b.sortedSets[string(setKey)]
	matched := make([]member, 0, len(set))
	for _, m := range set {
		if m.score >= min && m.score <= max {
			matched = append(matched, m)
		}
	}
	if descending {
		sort.Slice(matched, func(i, j int) bool { return matched[i].score > matched[j].score })
	} else {
		sort.Slice(matched, func(i, j int) bool { return matched[i].score < matched[j].score })
	}
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	out := make([][]byte, len(matched))
	for i, m := range matched {
		out[i] = cloneBytes(m.value)
	}
	return out
}

// AtomicWrite applies every op in batch or none of them. SetIfAbsent
// preconditions are checked against the current state before anything is
// mutated, so a failing precondition leaves the store untouched.
func (b *Backend) AtomicWrite(_ context.Context, batch *backend.WriteBatch) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, op := range batch.Ops() {
		if op.Kind == backend.OpSetIfAbsent {
			if _, exists := b.values[string(op.Key)]; exists {
				return false, nil
			}
		}
	}

	for _, op := range batch.Ops() {
		switch op.Kind {
		case backend.OpSet, backend.OpSetIfAbsent:
			b.values[string(op.Key)] = cloneBytes(op.Value)
		case backend.OpZAdd:
			b.zAddLocked(op.SetKey, op.Member, op.Score)
		case backend.OpZRem:
			b.zRemLocked(op.SetKey, op.Member)
		}
	}
	return true, nil
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
