package ledger_test

import (
	"context"
	"log"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/dskart/payment-engine/backend/memorybackend"
	"github.com/dskart/payment-engine/ledger"
	"github.com/dskart/payment-engine/model"
	"github.com/dskart/payment-engine/store"
)

func newTestSession(t *testing.T) ledger.Session {
	t.Helper()
	s := store.New(memorybackend.New())
	app := ledger.NewApp(s)
	return app.NewSession(log.Default())
}

func tx(recordType model.RecordType, client uint16, id uint32, amount float64) model.Transaction {
	var amountPtr *decimal.Decimal
	if amount != 0 {
		d := decimal.NewFromFloat(amount)
		amountPtr = &d
	}
	return model.TransactionFromCSV(model.CSVTransaction{
		RecordType: recordType,
		Client:     client,
		Tx:         id,
		Amount:     amountPtr,
	})
}

func TestDepositCreatesClientOnFirstSight(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t)

	require.NoError(t, s.ProcessTransaction(ctx, tx(model.Deposit, 1, 1, 10)))

	client, err := s.GetClientByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, client)
	require.True(t, client.Available.Equal(decimal.NewFromInt(10)))
}

func TestWithdrawalInsufficientFundsIsUserError(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t)

	require.NoError(t, s.ProcessTransaction(ctx, tx(model.Deposit, 1, 1, 5)))
	err := s.ProcessTransaction(ctx, tx(model.Withdrawal, 1, 2, 10))
	require.True(t, ledger.IsUserError(err))

	client, getErr := s.GetClientByID(ctx, 1)
	require.NoError(t, getErr)
	require.True(t, client.Available.Equal(decimal.NewFromInt(5)), "failed withdrawal must not touch balance")
}

func TestWithdrawalReducesAvailable(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t)

	require.NoError(t, s.ProcessTransaction(ctx, tx(model.Deposit, 1, 1, 10)))
	require.NoError(t, s.ProcessTransaction(ctx, tx(model.Withdrawal, 1, 2, 4)))

	client, err := s.GetClientByID(ctx, 1)
	require.NoError(t, err)
	require.True(t, client.Available.Equal(decimal.NewFromInt(6)))
}

func TestDisputeMovesFundsFromAvailableToHeld(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t)

	require.NoError(t, s.ProcessTransaction(ctx, tx(model.Deposit, 1, 1, 10)))
	require.NoError(t, s.ProcessTransaction(ctx, tx(model.Dispute, 1, 1, 0)))

	client, err := s.GetClientByID(ctx, 1)
	require.NoError(t, err)
	require.True(t, client.Available.IsZero())
	require.True(t, client.Held.Equal(decimal.NewFromInt(10)))
	require.True(t, client.Total.Equal(decimal.NewFromInt(10)))
}

func TestDisputeUnknownTxIsUserError(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t)

	err := s.ProcessTransaction(ctx, tx(model.Dispute, 1, 999, 0))
	require.True(t, ledger.IsUserError(err))
}

func TestDisputeTwiceIsUserError(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t)

	require.NoError(t, s.ProcessTransaction(ctx, tx(model.Deposit, 1, 1, 10)))
	require.NoError(t, s.ProcessTransaction(ctx, tx(model.Dispute, 1, 1, 0)))
	err := s.ProcessTransaction(ctx, tx(model.Dispute, 1, 1, 0))
	require.True(t, ledger.IsUserError(err))
}

func TestResolveRestoresAvailable(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t)

	require.NoError(t, s.ProcessTransaction(ctx, tx(model.Deposit, 1, 1, 10)))
	require.NoError(t, s.ProcessTransaction(ctx, tx(model.Dispute, 1, 1, 0)))
	require.NoError(t, s.ProcessTransaction(ctx, tx(model.Resolve, 1, 1, 0)))

	client, err := s.GetClientByID(ctx, 1)
	require.NoError(t, err)
	require.True(t, client.Available.Equal(decimal.NewFromInt(10)))
	require.True(t, client.Held.IsZero())
	require.False(t, client.Locked)
}

func TestResolveWithoutDisputeIsUserError(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t)

	require.NoError(t, s.ProcessTransaction(ctx, tx(model.Deposit, 1, 1, 10)))
	err := s.ProcessTransaction(ctx, tx(model.Resolve, 1, 1, 0))
	require.True(t, ledger.IsUserError(err))
}

func TestChargebackLocksClientAndRemovesHeld(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t)

	require.NoError(t, s.ProcessTransaction(ctx, tx(model.Deposit, 1, 1, 10)))
	require.NoError(t, s.ProcessTransaction(ctx, tx(model.Dispute, 1, 1, 0)))
	require.NoError(t, s.ProcessTransaction(ctx, tx(model.Chargeback, 1, 1, 0)))

	client, err := s.GetClientByID(ctx, 1)
	require.NoError(t, err)
	require.True(t, client.Available.IsZero())
	require.True(t, client.Held.IsZero())
	require.True(t, client.Locked)
}

func TestTransactionOnLockedClientIsUserError(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t)

	require.NoError(t, s.ProcessTransaction(ctx, tx(model.Deposit, 1, 1, 10)))
	require.NoError(t, s.ProcessTransaction(ctx, tx(model.Dispute, 1, 1, 0)))
	require.NoError(t, s.ProcessTransaction(ctx, tx(model.Chargeback, 1, 1, 0)))

	err := s.ProcessTransaction(ctx, tx(model.Deposit, 1, 2, 1))
	require.True(t, ledger.IsUserError(err))
}

func TestDuplicateTransactionIDIsNotRetriedForever(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t)

	require.NoError(t, s.ProcessTransaction(ctx, tx(model.Deposit, 1, 1, 10)))
	// A second, distinct deposit record that reuses tx id 1 collides on the
	// transaction's own revision-1 key every retry attempt and exhausts the
	// bounded retry loop.
	err := s.ProcessTransaction(ctx, tx(model.Deposit, 1, 1, 5))
	require.True(t, ledger.IsUserError(err))
}

// TestConcurrentDepositsDoNotLoseUpdates fires N concurrent deposits against
// the same client. Every deposit races every other one on the client's
// current and revision keys, so each ProcessTransaction call must actually
// exercise the bounded contention-retry loop rather than assuming its first
// attempt wins.
func TestConcurrentDepositsDoNotLoseUpdates(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t)

	const n = 20
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.ProcessTransaction(ctx, tx(model.Deposit, 1, uint32(i+1), 1))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	client, err := s.GetClientByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, client)
	require.True(t, client.Available.Equal(decimal.NewFromInt(n)), "expected %d, got %s", n, client.Available)
}
