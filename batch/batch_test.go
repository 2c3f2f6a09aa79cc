package batch_test

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/dskart/payment-engine/backend/memorybackend"
	"github.com/dskart/payment-engine/batch"
	"github.com/dskart/payment-engine/ledger"
	"github.com/dskart/payment-engine/store"
)

func newTestSession() ledger.Session {
	s := store.New(memorybackend.New())
	app := ledger.NewApp(s)
	return app.NewSession(log.Default())
}

func TestProcessAndExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestSession()

	input := strings.NewReader(
		"type, client, tx, amount\n" +
			"deposit, 1, 1, 10.0\n" +
			"deposit, 2, 2, 5.0\n" +
			"deposit, 1, 3, 2.0\n" +
			"withdrawal, 1, 4, 3.0\n" +
			"dispute, 1, 3,\n",
	)
	require.NoError(t, batch.Process(ctx, s, input))

	var out bytes.Buffer
	require.NoError(t, batch.Export(ctx, s, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Equal(t, "client,available,held,total,locked", lines[0])
	require.Len(t, lines, 3) // header + client 1 + client 2
}

func TestProcessSkipsUserErrorRowsAndContinues(t *testing.T) {
	ctx := context.Background()
	s := newTestSession()

	input := strings.NewReader(
		"type,client,tx,amount\n" +
			"withdrawal,1,1,10.0\n" + // insufficient funds: user error, skipped
			"deposit,1,2,4.0\n",
	)
	require.NoError(t, batch.Process(ctx, s, input))

	client, err := s.GetClientByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, client)
	require.True(t, client.Available.Equal(decimal.NewFromInt(4)))
}

func TestProcessAbortsOnUnknownRecordType(t *testing.T) {
	ctx := context.Background()
	s := newTestSession()

	input := strings.NewReader(
		"type,client,tx,amount\n" +
			"teleport,1,1,10.0\n",
	)
	require.Error(t, batch.Process(ctx, s, input))
}
