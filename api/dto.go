/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the
  internal model package (decimal.Decimal, model.ID, time.Time) from the
  external wire contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: uses these types
  - model/*.go: the internal types these wrap
*/
package api

import (
	"time"

	"github.com/dskart/payment-engine/model"
)

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ClientDTO represents a client account in API responses.
type ClientDTO struct {
	Client         uint16 `json:"client"`
	Available      string `json:"available"`
	Held           string `json:"held"`
	Total          string `json:"total"`
	Locked         bool   `json:"locked"`
	RevisionNumber uint32 `json:"revision_number"`
	RevisionTime   string `json:"revision_time"`
}

func toClientDTO(c model.Client) ClientDTO {
	return ClientDTO{
		Client:         c.ID,
		Available:      c.Available.String(),
		Held:           c.Held.String(),
		Total:          c.Total.String(),
		Locked:         c.Locked,
		RevisionNumber: c.RevisionNumber,
		RevisionTime:   c.RevisionTime.Format(time.RFC3339Nano),
	}
}

func toClientDTOs(clients []model.Client) []ClientDTO {
	dtos := make([]ClientDTO, len(clients))
	for i, c := range clients {
		dtos[i] = toClientDTO(c)
	}
	return dtos
}

// TransactionDTO represents a stored deposit/withdrawal record.
type TransactionDTO struct {
	RecordType     string `json:"type"`
	Client         uint16 `json:"client"`
	Tx             uint32 `json:"tx"`
	Amount         string `json:"amount"`
	CreationTime   string `json:"creation_time"`
	RevisionNumber uint32 `json:"revision_number"`
	RevisionTime   string `json:"revision_time"`
}

func toTransactionDTO(tx model.Transaction) TransactionDTO {
	return TransactionDTO{
		RecordType:     string(tx.RecordType),
		Client:         tx.Client,
		Tx:             tx.Tx,
		Amount:         tx.Amount.String(),
		CreationTime:   tx.CreationTime.Format(time.RFC3339Nano),
		RevisionNumber: tx.RevisionNumber,
		RevisionTime:   tx.RevisionTime.Format(time.RFC3339Nano),
	}
}

func toTransactionDTOs(txs []model.Transaction) []TransactionDTO {
	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx)
	}
	return dtos
}

// DisputeDTO represents a dispute's current revision.
type DisputeDTO struct {
	ID             string `json:"id"`
	ReferencedTx   uint32 `json:"referenced_tx"`
	IsDeleted      bool   `json:"is_deleted"`
	CreationTime   string `json:"creation_time"`
	RevisionNumber uint32 `json:"revision_number"`
	RevisionTime   string `json:"revision_time"`
}

func toDisputeDTO(d model.Dispute) DisputeDTO {
	return DisputeDTO{
		ID:             d.ID.String(),
		ReferencedTx:   d.ReferencedTx.Tx,
		IsDeleted:      d.IsDeleted,
		CreationTime:   d.CreationTime.Format(time.RFC3339Nano),
		RevisionNumber: d.RevisionNumber,
		RevisionTime:   d.RevisionTime.Format(time.RFC3339Nano),
	}
}

// TransactionRequest is the body POST /transactions accepts: the same
// five record types a CSV row carries, for callers that drive the engine
// over HTTP one record at a time instead of a batch file.
type TransactionRequest struct {
	RecordType string   `json:"type"`
	Client     uint16   `json:"client"`
	Tx         uint32   `json:"tx"`
	Amount     *float64 `json:"amount,omitempty"`
}
