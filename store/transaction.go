package store

import (
	"context"
	"time"

	"github.com/dskart/payment-engine/backend"
	"github.com/dskart/payment-engine/model"
)

// ProcessTransaction commits a client balance change together with the
// first-class deposit/withdrawal record it was caused by, as one atomic
// multi-key write: the client current-key is overwritten, the client
// revision-key is set-if-absent (its absence proves no other writer won the
// race for that revision number), and the transaction is inserted into the
// global and per-client transaction indexes.
func (s *Store) ProcessTransaction(ctx context.Context, client model.Client, transaction model.Transaction) error {
	serializedClient, err := serialize(client)
	if err != nil {
		return err
	}
	clientID := model.IDFromUint16(client.ID)

	serializedTx, err := serialize(transaction)
	if err != nil {
		return err
	}
	txID := model.IDFromUint32(transaction.Tx)

	batch := backend.NewWriteBatch().
		ZAdd([]byte(ClientsSetKey), clientID.Bytes(), TimeMicrosecondScore(client.RevisionTime)).
		Set(clientKey(clientID), serializedClient).
		SetIfAbsent(clientRevisionKey(clientID, client.RevisionNumber), serializedClient).
		ZAdd([]byte(TransactionsSetKey), txID.Bytes(), TimeMicrosecondScore(transaction.CreationTime)).
		SetIfAbsent(transactionKey(txID), serializedTx).
		SetIfAbsent(transactionRevisionKey(txID, transaction.RevisionNumber), serializedTx).
		ZAdd(transactionsClientSetKey(clientID), txID.Bytes(), TimeMicrosecondScore(transaction.CreationTime))

	committed, err := s.backend.AtomicWrite(ctx, batch)
	if err != nil {
		return wrapOther(err)
	}
	if !committed {
		return ErrContention
	}
	return nil
}

func (s *Store) GetTransactionByID(ctx context.Context, txID uint32) (*model.Transaction, error) {
	id := model.IDFromUint32(txID)
	raw, err := s.backend.Get(ctx, transactionKey(id))
	if err != nil {
		return nil, wrapOther(err)
	}
	if raw == nil {
		return nil, nil
	}
	tx, err := deserialize[model.Transaction](raw)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// GetTransactionRevision resolves a specific historical revision of a
// transaction. Every transaction has exactly one revision (transactions are
// never mutated after creation), so this only ever resolves revision 1, but
// it exists for symmetry with GetClientRevision on the admin read surface.
func (s *Store) GetTransactionRevision(ctx context.Context, txID uint32, revision uint32) (*model.Transaction, error) {
	id := model.IDFromUint32(txID)
	raw, err := s.backend.Get(ctx, transactionRevisionKey(id, revision))
	if err != nil {
		return nil, wrapOther(err)
	}
	if raw == nil {
		return nil, nil
	}
	tx, err := deserialize[model.Transaction](raw)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (s *Store) GetClientTransactionsByTimeRange(ctx context.Context, clientID uint16, min, max time.Time, limit int) ([]model.Transaction, error) {
	id := model.IDFromUint16(clientID)
	return getByTimeRange[model.Transaction](ctx, s.backend, transactionsClientSetKey(id), min, max, limit, TransactionKey)
}
