package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordType is the kind of ledger record a CSV row or HTTP request carries.
type RecordType string

const (
	Deposit    RecordType = "deposit"
	Withdrawal RecordType = "withdrawal"
	Dispute    RecordType = "dispute"
	Resolve    RecordType = "resolve"
	Chargeback RecordType = "chargeback"
)

// CSVTransaction is the flexible-column shape a batch row deserializes into:
// amount is absent for the three control record types.
type CSVTransaction struct {
	RecordType RecordType
	Client     uint16
	Tx         uint32
	Amount     *decimal.Decimal
}

// Transaction is the persisted, immutable record of an attempted movement.
// Only deposit and withdrawal transactions are stored under the transaction
// key space; dispute/resolve/chargeback are control messages that reference
// one by Tx and are never independently persisted here.
type Transaction struct {
	RecordType RecordType
	Client     uint16
	Tx         uint32
	Amount     decimal.Decimal

	CreationTime   time.Time
	RevisionNumber uint32
	RevisionTime   time.Time
}

// TransactionFromCSV fills in the creation/revision fields a freshly read
// CSV row doesn't carry, defaulting a missing amount to zero.
func TransactionFromCSV(csvTx CSVTransaction) Transaction {
	now := time.Now().UTC()
	amount := decimal.Zero
	if csvTx.Amount != nil {
		amount = *csvTx.Amount
	}
	return Transaction{
		RecordType:     csvTx.RecordType,
		Client:         csvTx.Client,
		Tx:             csvTx.Tx,
		Amount:         amount,
		CreationTime:   now,
		RevisionNumber: 1,
		RevisionTime:   now,
	}
}
