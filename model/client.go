package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Client is a payer's account: available funds, funds held by open
// disputes, and the locked flag a chargeback sets permanently.
type Client struct {
	ID        uint16
	Available decimal.Decimal
	Held      decimal.Decimal
	Total     decimal.Decimal
	Locked    bool

	CreationTime   time.Time
	RevisionNumber uint32
	RevisionTime   time.Time
}

// CSVClient is the four-column account shape the batch driver writes to its
// output sink: client,available,held,total,locked.
type CSVClient struct {
	Client    uint16
	Available decimal.Decimal
	Held      decimal.Decimal
	Total     decimal.Decimal
	Locked    bool
}

func CSVClientFromClient(c Client) CSVClient {
	return CSVClient{
		Client:    c.ID,
		Available: c.Available,
		Held:      c.Held,
		Total:     c.Total,
		Locked:    c.Locked,
	}
}

// ClientPatch carries the fields a balance-changing operation wants to
// update. Nil fields are left unchanged by WithPatch.
type ClientPatch struct {
	Available *decimal.Decimal
	Held      *decimal.Decimal
	Locked    *bool
}

// NewClient creates the first revision of a client account, zero-balanced
// unless an initial available amount is supplied.
func NewClient(id uint16, available *decimal.Decimal) Client {
	now := time.Now().UTC()
	c := Client{
		ID:             id,
		Available:      decimal.Zero,
		Held:           decimal.Zero,
		Locked:         false,
		CreationTime:   now,
		RevisionNumber: 1,
		RevisionTime:   now,
	}
	if available != nil {
		c.Available = *available
	}
	c.Total = c.Available.Add(c.Held)
	return c
}

// WithPatch produces the next revision: increments revision_number, stamps
// revision_time, applies the patch, and recomputes total = available + held.
func (c Client) WithPatch(p ClientPatch) Client {
	c.RevisionNumber++
	c.RevisionTime = time.Now().UTC()
	if p.Available != nil {
		c.Available = *p.Available
	}
	if p.Held != nil {
		c.Held = *p.Held
	}
	if p.Locked != nil {
		c.Locked = *p.Locked
	}
	c.Total = c.Available.Add(c.Held)
	return c
}
