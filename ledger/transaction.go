package ledger

import (
	"context"

	"github.com/dskart/payment-engine/model"
	"github.com/dskart/payment-engine/store"
)

func (s Session) GetTransactionByID(ctx context.Context, id uint32) (*model.Transaction, error) {
	tx, err := s.store.GetTransactionByID(ctx, id)
	if err != nil {
		return nil, sanitize(s.logger, err)
	}
	return tx, nil
}

// GetTransactionRevision resolves a transaction's nth revision, for the
// admin/maintenance read surface.
func (s Session) GetTransactionRevision(ctx context.Context, id uint32, revision uint32) (*model.Transaction, error) {
	tx, err := s.store.GetTransactionRevision(ctx, id, revision)
	if err != nil {
		return nil, sanitize(s.logger, err)
	}
	return tx, nil
}

func (s Session) GetAllClientTransactions(ctx context.Context, clientID uint16) ([]model.Transaction, error) {
	txs, err := s.store.GetClientTransactionsByTimeRange(ctx, clientID, store.DistantPast(), store.DistantFuture(), 0)
	if err != nil {
		return nil, sanitize(s.logger, err)
	}
	return txs, nil
}
