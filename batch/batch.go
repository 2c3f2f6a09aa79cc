/*
Package batch is the CSV boundary adapter: it turns a stream of transaction
rows into ledger.Session.ProcessTransaction calls, and turns the resulting
client set back into the four-column CSV output shape. Ported from
original_source/src/cmd/process_csv.rs and the process_csv/output_all_accounts
methods original_source/src/app/process_transaction.rs defines on Session.

Column parsing and a user error's "log and keep going" handling both belong
here, not in ledger: the engine only ever sees one transaction at a time and
has no notion of "the rest of the file".
*/
package batch

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dskart/payment-engine/ledger"
	"github.com/dskart/payment-engine/model"
)

// Process reads header-led CSV rows (type,client,tx,amount; case-insensitive
// and trimmed, amount optional) from r and applies each as a transaction in
// order. A user error is logged against that row and the batch continues; a
// malformed row or any other error aborts it.
func Process(ctx context.Context, s ledger.Session, r io.Reader) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // flexible: amount column may be absent
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("batch: reading header: %w", err)
	}
	columns, err := indexColumns(header)
	if err != nil {
		return err
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("batch: reading row: %w", err)
		}

		csvTx, err := parseRow(record, columns)
		if err != nil {
			return err
		}

		transaction := model.TransactionFromCSV(csvTx)
		if err := s.ProcessTransaction(ctx, transaction); err != nil {
			if ledger.IsUserError(err) {
				log.Printf("batch: skipping %s for client %d, tx %d: %v", csvTx.RecordType, csvTx.Client, csvTx.Tx, err)
				continue
			}
			return err
		}
	}
	return nil
}

// Export writes every known client to w in the fixed
// client,available,held,total,locked shape. Row order is unspecified.
func Export(ctx context.Context, s ledger.Session, w io.Writer) error {
	clients, err := s.GetAllClients(ctx)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"client", "available", "held", "total", "locked"}); err != nil {
		return fmt.Errorf("batch: writing header: %w", err)
	}
	for _, c := range clients {
		row := []string{
			strconv.FormatUint(uint64(c.ID), 10),
			c.Available.String(),
			c.Held.String(),
			c.Total.String(),
			strconv.FormatBool(c.Locked),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("batch: writing row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

type columnIndex struct {
	recordType, client, tx, amount int
}

func indexColumns(header []string) (columnIndex, error) {
	idx := columnIndex{-1, -1, -1, -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "type":
			idx.recordType = i
		case "client":
			idx.client = i
		case "tx":
			idx.tx = i
		case "amount":
			idx.amount = i
		}
	}
	if idx.recordType < 0 || idx.client < 0 || idx.tx < 0 {
		return idx, fmt.Errorf("batch: header missing required column (type, client, tx)")
	}
	return idx, nil
}

func parseRow(record []string, columns columnIndex) (model.CSVTransaction, error) {
	recordType := model.RecordType(strings.ToLower(strings.TrimSpace(record[columns.recordType])))
	switch recordType {
	case model.Deposit, model.Withdrawal, model.Dispute, model.Resolve, model.Chargeback:
	default:
		return model.CSVTransaction{}, fmt.Errorf("batch: unknown record type %q", recordType)
	}

	clientID, err := strconv.ParseUint(strings.TrimSpace(record[columns.client]), 10, 16)
	if err != nil {
		return model.CSVTransaction{}, fmt.Errorf("batch: invalid client id: %w", err)
	}
	txID, err := strconv.ParseUint(strings.TrimSpace(record[columns.tx]), 10, 32)
	if err != nil {
		return model.CSVTransaction{}, fmt.Errorf("batch: invalid tx id: %w", err)
	}

	csvTx := model.CSVTransaction{
		RecordType: recordType,
		Client:     uint16(clientID),
		Tx:         uint32(txID),
	}

	if columns.amount >= 0 && columns.amount < len(record) {
		raw := strings.TrimSpace(record[columns.amount])
		if raw != "" {
			amount, err := decimal.NewFromString(raw)
			if err != nil {
				return model.CSVTransaction{}, fmt.Errorf("batch: invalid amount: %w", err)
			}
			csvTx.Amount = &amount
		}
	}

	return csvTx, nil
}
