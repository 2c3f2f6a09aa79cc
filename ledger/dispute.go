package ledger

import (
	"context"

	"github.com/dskart/payment-engine/model"
)

func (s Session) GetDisputeByReferenceTxID(ctx context.Context, txID uint32) (*model.Dispute, error) {
	d, err := s.store.GetDisputeByReferenceTxID(ctx, txID)
	if err != nil {
		return nil, sanitize(s.logger, err)
	}
	return d, nil
}
