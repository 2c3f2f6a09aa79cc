package model

import "time"

// Dispute is the state of an open claim against a previously stored deposit.
// Disputes are tombstoned (IsDeleted) rather than erased so the chain of
// revisions remains intact after a resolve or chargeback.
type Dispute struct {
	ID           ID
	ReferencedTx Transaction
	IsDeleted    bool

	CreationTime   time.Time
	RevisionNumber uint32
	RevisionTime   time.Time
}

// NewDispute opens a dispute against referencedTx with a fresh random id.
func NewDispute(referencedTx Transaction) Dispute {
	now := time.Now().UTC()
	return Dispute{
		ID:             NewRandomID(),
		ReferencedTx:   referencedTx,
		IsDeleted:      false,
		CreationTime:   now,
		RevisionNumber: 1,
		RevisionTime:   now,
	}
}

// WithPatch produces the next dispute revision, setting the tombstone flag.
func (d Dispute) WithPatch(isDeleted bool) Dispute {
	d.RevisionNumber++
	d.RevisionTime = time.Now().UTC()
	d.IsDeleted = isDeleted
	return d
}
