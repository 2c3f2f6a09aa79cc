package store

import (
	"context"

	"github.com/dskart/payment-engine/backend"
	"github.com/dskart/payment-engine/model"
)

// ProcessDispute opens a dispute: the client's held/available split moves in
// the same atomic write as the dispute's first revision.
// reference_tx_dispute:{tx} is overwritten unconditionally to point at the
// newly opened dispute — a transaction whose prior dispute was resolved or
// charged back can be disputed again, so this pointer always tracks
// whichever dispute is (or most recently was) open. The caller is
// responsible for having checked, via GetDisputeByReferenceTxID, that no
// dispute is currently open before calling this.
func (s *Store) ProcessDispute(ctx context.Context, client model.Client, dispute model.Dispute) error {
	serializedClient, err := serialize(client)
	if err != nil {
		return err
	}
	clientID := model.IDFromUint16(client.ID)

	serializedDispute, err := serialize(dispute)
	if err != nil {
		return err
	}

	batch := backend.NewWriteBatch().
		ZAdd([]byte(ClientsSetKey), clientID.Bytes(), TimeMicrosecondScore(client.RevisionTime)).
		Set(clientKey(clientID), serializedClient).
		SetIfAbsent(clientRevisionKey(clientID, client.RevisionNumber), serializedClient).
		Set(disputeKey(dispute.ID), serializedDispute).
		SetIfAbsent(disputeRevisionKey(dispute.ID, dispute.RevisionNumber), serializedDispute).
		ZAdd(clientDisputesSetKey(clientID), dispute.ID.Bytes(), TimeMicrosecondScore(dispute.CreationTime)).
		Set(referenceTxDisputeKey(model.IDFromUint32(dispute.ReferencedTx.Tx)), dispute.ID.Bytes())

	committed, err := s.backend.AtomicWrite(ctx, batch)
	if err != nil {
		return wrapOther(err)
	}
	if !committed {
		return ErrContention
	}
	return nil
}

// RemoveDispute commits a resolve or chargeback: the client's balance move,
// the dispute's tombstoned revision, and its removal from the per-client
// dispute index land in the same atomic write. reference_tx_dispute:{tx} is
// left pointing at this now-tombstoned dispute; a later ProcessDispute call
// against the same tx overwrites it.
func (s *Store) RemoveDispute(ctx context.Context, client model.Client, dispute model.Dispute) error {
	serializedClient, err := serialize(client)
	if err != nil {
		return err
	}
	clientID := model.IDFromUint16(client.ID)

	serializedDispute, err := serialize(dispute)
	if err != nil {
		return err
	}

	batch := backend.NewWriteBatch().
		ZAdd([]byte(ClientsSetKey), clientID.Bytes(), TimeMicrosecondScore(client.RevisionTime)).
		Set(clientKey(clientID), serializedClient).
		SetIfAbsent(clientRevisionKey(clientID, client.RevisionNumber), serializedClient).
		Set(disputeKey(dispute.ID), serializedDispute).
		SetIfAbsent(disputeRevisionKey(dispute.ID, dispute.RevisionNumber), serializedDispute).
		ZRem(clientDisputesSetKey(clientID), dispute.ID.Bytes())

	committed, err := s.backend.AtomicWrite(ctx, batch)
	if err != nil {
		return wrapOther(err)
	}
	if !committed {
		return ErrContention
	}
	return nil
}

// GetDisputeByReferenceTxID follows the permanent tx->dispute pointer, then
// resolves the current dispute record. A transaction that was never
// disputed returns (nil, nil).
func (s *Store) GetDisputeByReferenceTxID(ctx context.Context, txID uint32) (*model.Dispute, error) {
	tx := model.IDFromUint32(txID)
	rawID, err := s.backend.Get(ctx, referenceTxDisputeKey(tx))
	if err != nil {
		return nil, wrapOther(err)
	}
	if rawID == nil {
		return nil, nil
	}
	var disputeID model.ID
	copy(disputeID[:], rawID)

	raw, err := s.backend.Get(ctx, disputeKey(disputeID))
	if err != nil {
		return nil, wrapOther(err)
	}
	if raw == nil {
		return nil, nil
	}
	dispute, err := deserialize[model.Dispute](raw)
	if err != nil {
		return nil, err
	}
	return &dispute, nil
}
