package store

import (
	"bytes"
	"strconv"

	"github.com/dskart/payment-engine/model"
)

// Key name constants, matching the persisted key layout byte-for-byte:
// client:{id}, client_revision:{id}:{n}, transaction:{tx},
// transaction_revision:{tx}:{n}, dispute:{disp_id},
// dispute_revision:{disp_id}:{n}, reference_tx_dispute:{tx}. Sorted-set
// keys: clients, transactions, transactions:client:{id}, client_disputes:{id}.
const (
	ClientsSetKey          = "clients"
	ClientKey              = "client"
	ClientRevisionKey      = "client_revision"
	TransactionsSetKey     = "transactions"
	TransactionKey         = "transaction"
	TransactionRevisionKey = "transaction_revision"
	DisputeKey             = "dispute"
	DisputeRevisionKey     = "dispute_revision"
	ReferenceTxDisputeKey  = "reference_tx_dispute"
	ClientDisputesSetKey   = "client_disputes"
)

var keySeparator = []byte(":")

func buildKey(parts ...[]byte) []byte {
	return bytes.Join(parts, keySeparator)
}

func clientKey(id model.ID) []byte {
	return buildKey([]byte(ClientKey), id.Bytes())
}

func clientRevisionKey(id model.ID, revision uint32) []byte {
	return buildKey([]byte(ClientRevisionKey), id.Bytes(), revisionSuffix(revision))
}

func transactionKey(tx model.ID) []byte {
	return buildKey([]byte(TransactionKey), tx.Bytes())
}

func transactionRevisionKey(tx model.ID, revision uint32) []byte {
	return buildKey([]byte(TransactionRevisionKey), tx.Bytes(), revisionSuffix(revision))
}

func disputeKey(id model.ID) []byte {
	return buildKey([]byte(DisputeKey), id.Bytes())
}

func disputeRevisionKey(id model.ID, revision uint32) []byte {
	return buildKey([]byte(DisputeRevisionKey), id.Bytes(), revisionSuffix(revision))
}

func referenceTxDisputeKey(tx model.ID) []byte {
	return buildKey([]byte(ReferenceTxDisputeKey), tx.Bytes())
}

func transactionsClientSetKey(clientID model.ID) []byte {
	return buildKey([]byte(TransactionsSetKey), []byte(ClientKey), clientID.Bytes())
}

func clientDisputesSetKey(clientID model.ID) []byte {
	return buildKey([]byte(ClientDisputesSetKey), clientID.Bytes())
}

func revisionSuffix(revision uint32) []byte {
	return []byte(strconv.FormatUint(uint64(revision), 10))
}
