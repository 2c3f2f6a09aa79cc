/*
process.go is the state machine the rest of the package exists to serve:
ProcessTransaction auto-creates a client on first sight, dispatches on
record type, and runs the whole client-read-then-write cycle at most three
times in all, starting it again whenever a concurrent writer wins the race on
the same client.

This mirrors the rest of the system's retry convention: Contention is never
surfaced to a caller directly, it is absorbed here until either a revision
succeeds or the attempts run out, at which point it becomes a UserError
("transaction contention") rather than an internal failure.
*/
package ledger

import (
	"context"

	"github.com/dskart/payment-engine/model"
)

const maxContentionRetries = 3

// ProcessTransaction applies a single deposit, withdrawal, dispute,
// resolve, or chargeback record. A missing client is created with a zero
// balance on first reference. UserError results (insufficient funds, a
// dispute referencing an unknown or currently disputed transaction, a locked
// account) are returned to the caller rather than retried; only Contention
// triggers another attempt.
func (s Session) ProcessTransaction(ctx context.Context, transaction model.Transaction) error {
	for attempt := 0; attempt < maxContentionRetries; attempt++ {
		client, err := s.getOrCreateClient(ctx, transaction.Client)
		if err != nil {
			if IsContention(err) {
				continue
			}
			return err
		}
		if client.Locked {
			return newUserError("client is locked")
		}

		var opErr error
		switch transaction.RecordType {
		case model.Deposit:
			opErr = s.deposit(ctx, *client, transaction)
		case model.Withdrawal:
			opErr = s.withdrawal(ctx, *client, transaction)
		case model.Dispute:
			opErr = s.dispute(ctx, *client, transaction)
		case model.Resolve:
			opErr = s.resolve(ctx, *client, transaction)
		case model.Chargeback:
			opErr = s.chargeback(ctx, *client, transaction)
		default:
			return newUserError("unknown record type %q", transaction.RecordType)
		}

		if opErr == nil {
			return nil
		}
		if IsContention(opErr) {
			continue
		}
		return opErr
	}
	return newUserError("transaction contention")
}

func (s Session) getOrCreateClient(ctx context.Context, clientID uint16) (*model.Client, error) {
	existing, err := s.GetClientByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	newClient := model.NewClient(clientID, nil)
	if err := s.AddClient(ctx, newClient); err != nil {
		return nil, err
	}
	return &newClient, nil
}

func (s Session) deposit(ctx context.Context, client model.Client, transaction model.Transaction) error {
	available := client.Available.Add(transaction.Amount)
	clientRevision := client.WithPatch(model.ClientPatch{Available: &available})
	return sanitize(s.logger, s.store.ProcessTransaction(ctx, clientRevision, transaction))
}

func (s Session) withdrawal(ctx context.Context, client model.Client, transaction model.Transaction) error {
	available := client.Available.Sub(transaction.Amount)
	if available.IsNegative() {
		return newUserError("not enough funds available")
	}
	clientRevision := client.WithPatch(model.ClientPatch{Available: &available})
	return sanitize(s.logger, s.store.ProcessTransaction(ctx, clientRevision, transaction))
}

func (s Session) dispute(ctx context.Context, client model.Client, disputeTx model.Transaction) error {
	referencedTx, err := s.GetTransactionByID(ctx, disputeTx.Tx)
	if err != nil {
		return err
	}
	if referencedTx == nil {
		return newUserError("dispute referenced tx does not exist, skipping")
	}

	existing, err := s.GetDisputeByReferenceTxID(ctx, disputeTx.Tx)
	if err != nil {
		return err
	}
	if existing != nil && !existing.IsDeleted {
		return newUserError("tx is already under dispute, skipping")
	}

	available := client.Available.Sub(referencedTx.Amount)
	held := client.Held.Add(referencedTx.Amount)
	clientRevision := client.WithPatch(model.ClientPatch{Available: &available, Held: &held})

	newDispute := model.NewDispute(*referencedTx)
	return sanitize(s.logger, s.store.ProcessDispute(ctx, clientRevision, newDispute))
}

func (s Session) resolve(ctx context.Context, client model.Client, resolveTx model.Transaction) error {
	dispute, err := s.GetDisputeByReferenceTxID(ctx, resolveTx.Tx)
	if err != nil {
		return err
	}
	if dispute == nil {
		return newUserError("resolve tx is not disputed, skipping")
	}
	if dispute.IsDeleted {
		return newUserError("resolve tx is no longer disputed, skipping")
	}

	available := client.Available.Add(dispute.ReferencedTx.Amount)
	held := client.Held.Sub(dispute.ReferencedTx.Amount)
	clientRevision := client.WithPatch(model.ClientPatch{Available: &available, Held: &held})
	disputeRevision := dispute.WithPatch(true)

	return sanitize(s.logger, s.store.RemoveDispute(ctx, clientRevision, disputeRevision))
}

func (s Session) chargeback(ctx context.Context, client model.Client, chargebackTx model.Transaction) error {
	dispute, err := s.GetDisputeByReferenceTxID(ctx, chargebackTx.Tx)
	if err != nil {
		return err
	}
	if dispute == nil {
		return newUserError("chargeback tx is not disputed, skipping")
	}
	if dispute.IsDeleted {
		return newUserError("chargeback tx is no longer disputed, skipping")
	}

	held := client.Held.Sub(dispute.ReferencedTx.Amount)
	locked := true
	clientRevision := client.WithPatch(model.ClientPatch{Held: &held, Locked: &locked})
	disputeRevision := dispute.WithPatch(true)

	return sanitize(s.logger, s.store.RemoveDispute(ctx, clientRevision, disputeRevision))
}
