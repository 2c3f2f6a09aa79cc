/*
Package store is the typed repository layer over backend.Backend: it
serializes and compresses domain records, composes the multi-key atomic
writes each domain operation requires, and surfaces a Contention result
distinct from transport errors.

KEY CONCEPTS IN THIS FILE (store.go):
  - Store: thin wrapper holding a backend.Backend.
  - TimeMicrosecondScore: the sort-score convention every index uses.
  - getByScore: the generic range-read helper shared by every "list X in a
    time range" operation; members may be inline-encoded values or 20-byte
    ids resolved with a follow-up BatchGet.

SEE ALSO:
  - client.go, transaction.go, dispute.go: the domain operations
  - keys.go: the persisted key layout
  - errors.go: Contention / Other error taxonomy
*/
package store

import (
	"context"
	"time"

	"github.com/dskart/payment-engine/backend"
	"github.com/dskart/payment-engine/backend/cachebackend"
	"github.com/dskart/payment-engine/model"
)

// Store is a thin typed layer over a Backend. It is cheap to copy and share
// across goroutines; the Backend owns whatever connection state matters.
type Store struct {
	backend backend.Backend
}

func New(b backend.Backend) *Store {
	return &Store{backend: b}
}

// WithBackend returns a Store sharing everything except the backend,
// letting callers layer a cachebackend or a relaxed-read backend without
// touching the write path (spec §4.5 — writes never take either).
func (s *Store) WithBackend(b backend.Backend) *Store {
	return &Store{backend: b}
}

// WithReadCache layers a memoizing cache in front of reads that lasts as
// long as the returned Store. Never
// used on a write path: writes go through the underlying Store directly.
func (s *Store) WithReadCache() *Store {
	return s.WithBackend(cachebackend.New(s.backend))
}

// relaxedReadBackend is satisfied by backends (currently dynamobackend) that
// can trade read consistency for throughput on the query surface.
type relaxedReadBackend interface {
	WithEventuallyConsistentReads() backend.Backend
}

// WithEventuallyConsistentReads relaxes reads on backends that support it;
// on backends without a relaxed-read mode it is a no-op, since every
// concrete Backend already serves consistent reads by default.
func (s *Store) WithEventuallyConsistentReads() *Store {
	if relaxed, ok := s.backend.(relaxedReadBackend); ok {
		return s.WithBackend(relaxed.WithEventuallyConsistentReads())
	}
	return s
}

// TimeMicrosecondScore converts a revision time into the sorted-set score
// every index uses. Open Question (a): wall-clock ordering is subject to
// clock skew between writers; acceptable here since no global ordering
// across clients is promised (spec §9).
func TimeMicrosecondScore(t time.Time) float64 {
	return float64(t.Unix())*1_000_000 + float64(t.Nanosecond()/1000)
}

func serialize(v any) ([]byte, error) {
	buf, err := model.Encode(v)
	if err != nil {
		return nil, wrapSerialization(err)
	}
	return buf, nil
}

func deserialize[T any](buf []byte) (T, error) {
	var v T
	if err := model.Decode(buf, &v); err != nil {
		return v, wrapSerialization(err)
	}
	return v, nil
}

// getByScore resolves the members of a sorted set in the requested score
// range. A member is either an inline-encoded T or a 20-byte model.ID; ids
// are resolved with a single follow-up BatchGet against
// "{typeKeyPrefix}:{id}". limit < 0 takes the last |limit| in descending
// order; limit == 0 is unlimited.
func getByScore[T any](ctx context.Context, b backend.Backend, setKey []byte, min, max float64, limit int, typeKeyPrefix string) ([]T, error) {
	var values [][]byte
	var err error
	if limit < 0 {
		values, err = b.ZRevRangeByScore(ctx, setKey, min, max, -limit)
	} else {
		values, err = b.ZRangeByScore(ctx, setKey, min, max, limit)
	}
	if err != nil {
		return nil, wrapOther(err)
	}

	resolved := make([]*T, len(values))
	var idKeys [][]byte
	var idPositions []int
	for i, v := range values {
		if len(v) == model.Length {
			var id model.ID
			copy(id[:], v)
			idKeys = append(idKeys, buildKey([]byte(typeKeyPrefix), id.Bytes()))
			idPositions = append(idPositions, i)
			continue
		}
		decoded, derr := deserialize[T](v)
		if derr != nil {
			return nil, derr
		}
		resolved[i] = &decoded
	}

	if len(idKeys) > 0 {
		fetched, ferr := b.BatchGet(ctx, idKeys)
		if ferr != nil {
			return nil, wrapOther(ferr)
		}
		for j, pos := range idPositions {
			raw, ok := fetched[string(idKeys[j])]
			if !ok {
				continue
			}
			decoded, derr := deserialize[T](raw)
			if derr != nil {
				return nil, derr
			}
			resolved[pos] = &decoded
		}
	}

	out := make([]T, 0, len(resolved))
	for _, m := range resolved {
		if m != nil {
			out = append(out, *m)
		}
	}
	return out, nil
}

func getByTimeRange[T any](ctx context.Context, b backend.Backend, setKey []byte, min, max time.Time, limit int, typeKeyPrefix string) ([]T, error) {
	return getByScore[T](ctx, b, setKey, TimeMicrosecondScore(min), TimeMicrosecondScore(max), limit, typeKeyPrefix)
}

// DistantPast and DistantFuture bound an "all time" range read, the same
// sentinel values original_source/src/app/mod.rs uses for "get everything".
func DistantPast() time.Time {
	return time.Unix(-2208988800, 0).UTC()
}

func DistantFuture() time.Time {
	return time.Unix(7258118400, 0).UTC()
}
