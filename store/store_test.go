package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/dskart/payment-engine/backend/memorybackend"
	"github.com/dskart/payment-engine/model"
	"github.com/dskart/payment-engine/store"
)

func newTestStore() *store.Store {
	return store.New(memorybackend.New())
}

func TestAddClientThenGetByID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	available := decimal.NewFromFloat(10)
	c := model.NewClient(1, &available)
	require.NoError(t, s.AddClient(ctx, c))

	got, err := s.GetClientByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, c.ID, got.ID)
	require.True(t, got.Available.Equal(available))
}

func TestAddClientTwiceReportsContention(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	c := model.NewClient(1, nil)
	require.NoError(t, s.AddClient(ctx, c))
	require.ErrorIs(t, s.AddClient(ctx, c), store.ErrContention)
}

func TestGetClientByIDMissingReturnsNilNil(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	got, err := s.GetClientByID(ctx, 99)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestGetClientsByTimeRangeOrdersByRevisionTime(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	base := time.Now().UTC()
	c1 := model.NewClient(1, nil)
	c1.RevisionTime = base
	c2 := model.NewClient(2, nil)
	c2.RevisionTime = base.Add(time.Second)

	require.NoError(t, s.AddClient(ctx, c1))
	require.NoError(t, s.AddClient(ctx, c2))

	clients, err := s.GetClientsByTimeRange(ctx, store.DistantPast(), store.DistantFuture(), 0)
	require.NoError(t, err)
	require.Len(t, clients, 2)
	require.Equal(t, uint16(1), clients[0].ID)
	require.Equal(t, uint16(2), clients[1].ID)
}

func TestProcessTransactionThenGetByID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	c := model.NewClient(1, nil)
	tx := model.TransactionFromCSV(model.CSVTransaction{
		RecordType: model.Deposit,
		Client:     1,
		Tx:         100,
		Amount:     decimalPtr(5),
	})
	c = c.WithPatch(model.ClientPatch{Available: decimalPtr(5)})

	require.NoError(t, s.ProcessTransaction(ctx, c, tx))

	got, err := s.GetTransactionByID(ctx, 100)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, uint32(100), got.Tx)
	require.True(t, got.Amount.Equal(decimal.NewFromInt(5)))
}

func TestProcessTransactionDuplicateTxReportsContention(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	c := model.NewClient(1, nil)
	tx := model.TransactionFromCSV(model.CSVTransaction{RecordType: model.Deposit, Client: 1, Tx: 1, Amount: decimalPtr(1)})
	require.NoError(t, s.ProcessTransaction(ctx, c, tx))

	// Same transaction id processed again (e.g. a racing duplicate row)
	// must collide on its revision-1 key.
	c2 := c.WithPatch(model.ClientPatch{Available: decimalPtr(2)})
	require.ErrorIs(t, s.ProcessTransaction(ctx, c2, tx), store.ErrContention)
}

func TestGetClientTransactionsByTimeRangeFiltersByClient(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	c1 := model.NewClient(1, nil)
	c2 := model.NewClient(2, nil)

	tx1 := model.TransactionFromCSV(model.CSVTransaction{RecordType: model.Deposit, Client: 1, Tx: 1, Amount: decimalPtr(1)})
	tx2 := model.TransactionFromCSV(model.CSVTransaction{RecordType: model.Deposit, Client: 2, Tx: 2, Amount: decimalPtr(1)})

	require.NoError(t, s.ProcessTransaction(ctx, c1, tx1))
	require.NoError(t, s.ProcessTransaction(ctx, c2, tx2))

	got, err := s.GetClientTransactionsByTimeRange(ctx, 1, store.DistantPast(), store.DistantFuture(), 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, uint32(1), got[0].Tx)
}

func TestProcessDisputeThenGetByReferenceTxID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	c := model.NewClient(1, nil)
	tx := model.TransactionFromCSV(model.CSVTransaction{RecordType: model.Deposit, Client: 1, Tx: 1, Amount: decimalPtr(5)})
	require.NoError(t, s.ProcessTransaction(ctx, c, tx))

	d := model.NewDispute(tx)
	held := decimalPtr(5)
	c2 := c.WithPatch(model.ClientPatch{Available: decimalPtr(0), Held: held})
	require.NoError(t, s.ProcessDispute(ctx, c2, d))

	got, err := s.GetDisputeByReferenceTxID(ctx, tx.Tx)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, d.ID, got.ID)
	require.False(t, got.IsDeleted)
}

func TestRemoveDisputeTombstonesWithoutFreeingReferencePointer(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	c := model.NewClient(1, nil)
	tx := model.TransactionFromCSV(model.CSVTransaction{RecordType: model.Deposit, Client: 1, Tx: 1, Amount: decimalPtr(5)})
	require.NoError(t, s.ProcessTransaction(ctx, c, tx))

	d := model.NewDispute(tx)
	c2 := c.WithPatch(model.ClientPatch{Available: decimalPtr(0), Held: decimalPtr(5)})
	require.NoError(t, s.ProcessDispute(ctx, c2, d))

	resolved := d.WithPatch(true)
	c3 := c2.WithPatch(model.ClientPatch{Available: decimalPtr(5), Held: decimalPtr(0)})
	require.NoError(t, s.RemoveDispute(ctx, c3, resolved))

	got, err := s.GetDisputeByReferenceTxID(ctx, tx.Tx)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.True(t, got.IsDeleted)

	// A transaction whose prior dispute was resolved can be disputed again;
	// the reference pointer simply moves to the newly opened dispute.
	reopened := model.NewDispute(tx)
	c4 := c3.WithPatch(model.ClientPatch{Available: decimalPtr(0), Held: decimalPtr(5)})
	require.NoError(t, s.ProcessDispute(ctx, c4, reopened))

	got2, err := s.GetDisputeByReferenceTxID(ctx, tx.Tx)
	require.NoError(t, err)
	require.NotNil(t, got2)
	require.Equal(t, reopened.ID, got2.ID)
	require.False(t, got2.IsDeleted)
}

func decimalPtr(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}
