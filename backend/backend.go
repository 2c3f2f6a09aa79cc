/*
Package backend defines the byte-level key-value vocabulary the store layer
is built on, plus the concrete backends that implement it.

PURPOSE:
  A Backend exposes gets, batch gets, sorted-set membership, and a single
  atomic multi-op write that either wholly commits or reports a conflict.
  Nothing above this layer knows whether it's talking to an in-process map,
  Redis, DynamoDB, or SQLite.

KEY CONCEPTS IN THIS FILE (backend.go):
  - Backend: the narrow interface every concrete variant implements.
  - Op / OpKind: the atomic-write vocabulary (set, set-if-absent, zadd, zrem).
  - WriteBatch: a builder that accumulates ops for a single AtomicWrite call.

FAILURE SEMANTICS:
  AtomicWrite's boolean return is the conflict channel: a false result means
  a set-if-absent precondition lost a race, never a transport failure. Any
  non-nil error is a genuine I/O/transport problem. The Store layer is the
  only thing that turns committed=false into a Contention result.

SEE ALSO:
  - memorybackend, redisbackend, dynamobackend, sqlitebackend: concrete
    variants
  - cachebackend: the read-memoizing wrapper
  - store package: the typed layer built on top of Backend
*/
package backend

import "context"

// OpKind identifies the kind of mutation a single Op performs within an
// atomic write.
type OpKind int

const (
	OpSet OpKind = iota
	OpSetIfAbsent
	OpZAdd
	OpZRem
)

// Op is one step of an atomic multi-key write. Only the fields relevant to
// Kind are populated.
type Op struct {
	Kind OpKind

	Key   []byte
	Value []byte

	SetKey []byte
	Member []byte
	Score  float64
}

// WriteBatch accumulates the ops for a single AtomicWrite call. Grounded on
// the keyvaluestore AtomicWriteOperation builder: each call appends one op
// and returns the batch so calls can be chained.
type WriteBatch struct {
	ops []Op
}

func NewWriteBatch() *WriteBatch {
	return &WriteBatch{}
}

// Set unconditionally overwrites key.
func (b *WriteBatch) Set(key, value []byte) *WriteBatch {
	b.ops = append(b.ops, Op{Kind: OpSet, Key: key, Value: value})
	return b
}

// SetIfAbsent writes key only if it does not already exist; if it does, the
// whole atomic write reports committed=false.
func (b *WriteBatch) SetIfAbsent(key, value []byte) *WriteBatch {
	b.ops = append(b.ops, Op{Kind: OpSetIfAbsent, Key: key, Value: value})
	return b
}

// ZAdd adds member to setKey's sorted set with the given score, overwriting
// any existing score for that member.
func (b *WriteBatch) ZAdd(setKey, member []byte, score float64) *WriteBatch {
	b.ops = append(b.ops, Op{Kind: OpZAdd, SetKey: setKey, Member: member, Score: score})
	return b
}

// ZRem removes member from setKey's sorted set.
func (b *WriteBatch) ZRem(setKey, member []byte) *WriteBatch {
	b.ops = append(b.ops, Op{Kind: OpZRem, SetKey: setKey, Member: member})
	return b
}

// Ops returns the accumulated operations in submission order.
func (b *WriteBatch) Ops() []Op {
	return b.ops
}

// Backend is the narrow key-value vocabulary every concrete storage variant
// implements. A nil byte slice (with a nil error) from Get means "absent".
type Backend interface {
	Get(ctx context.Context, key []byte) ([]byte, error)

	// BatchGet resolves every key in a single round trip. Absent keys are
	// simply missing from the result map.
	BatchGet(ctx context.Context, keys [][]byte) (map[string][]byte, error)

	ZAdd(ctx context.Context, setKey, member []byte, score float64) error
	ZRem(ctx context.Context, setKey, member []byte) error

	// ZRangeByScore returns members in ascending score order; ZRevRangeByScore
	// in descending order. limit <= 0 means unlimited.
	ZRangeByScore(ctx context.Context, setKey []byte, min, max float64, limit int) ([][]byte, error)
	ZRevRangeByScore(ctx context.Context, setKey []byte, min, max float64, limit int) ([][]byte, error)

	// AtomicWrite applies every op in batch or none of them. committed=false
	// means a SetIfAbsent precondition failed, not a transport error.
	AtomicWrite(ctx context.Context, batch *WriteBatch) (committed bool, err error)
}
