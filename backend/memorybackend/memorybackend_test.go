package memorybackend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dskart/payment-engine/backend"
)

func TestSetIfAbsentReportsContentionWithoutMutating(t *testing.T) {
	ctx := context.Background()
	b := New()

	batch := backend.NewWriteBatch().SetIfAbsent([]byte("k"), []byte("v1"))
	committed, err := b.AtomicWrite(ctx, batch)
	require.NoError(t, err)
	require.True(t, committed)

	batch2 := backend.NewWriteBatch().SetIfAbsent([]byte("k"), []byte("v2"))
	committed, err = b.AtomicWrite(ctx, batch2)
	require.NoError(t, err)
	require.False(t, committed)

	v, err := b.Get(ctx, []byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), v, "a failed precondition must not mutate the store")
}

func TestAtomicWriteAppliesAllOrNothing(t *testing.T) {
	ctx := context.Background()
	b := New()

	batch := backend.NewWriteBatch().
		Set([]byte("a"), []byte("1")).
		SetIfAbsent([]byte("b"), []byte("2")).
		ZAdd([]byte("set"), []byte("m1"), 1.0)
	committed, err := b.AtomicWrite(ctx, batch)
	require.NoError(t, err)
	require.True(t, committed)

	members, err := b.ZRangeByScore(ctx, []byte("set"), 0, 10, 0)
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("m1")}, members)
}

func TestZRangeByScoreOrdering(t *testing.T) {
	ctx := context.Background()
	b := New()

	require.NoError(t, b.ZAdd(ctx, []byte("s"), []byte("a"), 3))
	require.NoError(t, b.ZAdd(ctx, []byte("s"), []byte("b"), 1))
	require.NoError(t, b.ZAdd(ctx, []byte("s"), []byte("c"), 2))

	asc, err := b.ZRangeByScore(ctx, []byte("s"), 0, 10, 0)
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("b"), []byte("c"), []byte("a")}, asc)

	desc, err := b.ZRevRangeByScore(ctx, []byte("s"), 0, 10, 0)
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("a"), []byte("c"), []byte("b")}, desc)

	limited, err := b.ZRevRangeByScore(ctx, []byte("s"), 0, 10, 1)
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("a")}, limited)
}

func TestBatchGetOnlyReturnsPresentKeys(t *testing.T) {
	ctx := context.Background()
	b := New()
	require.NoError(t, b.ZAdd(ctx, []byte("ignored"), []byte("x"), 1))

	batch := backend.NewWriteBatch().Set([]byte("present"), []byte("v"))
	_, err := b.AtomicWrite(ctx, batch)
	require.NoError(t, err)

	out, err := b.BatchGet(ctx, [][]byte{[]byte("present"), []byte("absent")})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, []byte("v"), out["present"])
}
