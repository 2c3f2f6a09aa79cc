/*
handlers.go - HTTP API handlers for the payment engine

PURPOSE:
  Exposes ledger.Session over REST. Handles HTTP request/response and JSON
  serialization; all business logic lives in the ledger package.

ENDPOINTS:
  Clients:
    GET  /clients                        List all clients
    GET  /clients/{id}                   Get one client
    GET  /clients/{id}/revisions/{n}     Get a client's nth revision

  Transactions:
    POST /transactions                   Submit a transaction record
    GET  /transactions/{id}               Get a transaction by id
    GET  /transactions/{id}/revisions/{n} Get a transaction's nth revision
    GET  /clients/{id}/transactions       List a client's transactions

  Disputes:
    GET  /transactions/{id}/dispute       Get the dispute referencing a tx

  Operations:
    GET  /healthz                         Liveness check

ERROR HANDLING:
  Every ledger.SanitizedError.Kind maps to one HTTP status; see
  statusForKind. 500s never leak an internal cause in the response body
  (the cause was already logged by the ledger layer).

SEE ALSO:
  - dto.go: request/response shapes
  - server.go: router setup
*/
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"github.com/dskart/payment-engine/ledger"
	"github.com/dskart/payment-engine/model"
)

// requestLogger tags every internal-error log line this request's session
// produces with chi's request id, so a 500 response can be traced back to
// its cause in the process log.
func requestLogger(r *http.Request) *log.Logger {
	return log.New(os.Stderr, "["+middleware.GetReqID(r.Context())+"] ", log.LstdFlags)
}

// Handler holds the dependencies every HTTP handler needs.
type Handler struct {
	App *ledger.App
}

func NewHandler(app *ledger.App) *Handler {
	return &Handler{App: app}
}

func (h *Handler) session(r *http.Request) ledger.Session {
	return h.App.NewSession(requestLogger(r))
}

// HealthCheck reports the process is up and able to serve requests.
// GET /healthz
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// ListClients returns every client.
// GET /clients
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.session(r).GetAllClients(r.Context())
	if err != nil {
		writeSanitizedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTOs(clients))
}

// GetClient returns a single client by id.
// GET /clients/{id}
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	id, err := parseUint16Param(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid client id", err)
		return
	}

	client, sessErr := h.session(r).GetClientByID(r.Context(), id)
	if sessErr != nil {
		writeSanitizedError(w, sessErr)
		return
	}
	if client == nil {
		writeError(w, http.StatusNotFound, "client not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTO(*client))
}

// GetClientRevision returns a client as of a specific revision.
// GET /clients/{id}/revisions/{n}
func (h *Handler) GetClientRevision(w http.ResponseWriter, r *http.Request) {
	id, err := parseUint16Param(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid client id", err)
		return
	}
	revision, err := parseUint32Param(r, "revision")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid revision number", err)
		return
	}

	client, sessErr := h.session(r).GetClientRevision(r.Context(), id, revision)
	if sessErr != nil {
		writeSanitizedError(w, sessErr)
		return
	}
	if client == nil {
		writeError(w, http.StatusNotFound, "revision not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTO(*client))
}

// GetClientTransactions lists a client's transactions.
// GET /clients/{id}/transactions
func (h *Handler) GetClientTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := parseUint16Param(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid client id", err)
		return
	}

	txs, sessErr := h.session(r).GetAllClientTransactions(r.Context(), id)
	if sessErr != nil {
		writeSanitizedError(w, sessErr)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTOs(txs))
}

// GetTransaction returns a single transaction by id.
// GET /transactions/{id}
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseUint32Param(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction id", err)
		return
	}

	tx, sessErr := h.session(r).GetTransactionByID(r.Context(), id)
	if sessErr != nil {
		writeSanitizedError(w, sessErr)
		return
	}
	if tx == nil {
		writeError(w, http.StatusNotFound, "transaction not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(*tx))
}

// GetTransactionRevision returns a transaction as of a specific revision.
// Since transactions are never mutated after creation, only revision 1
// ever exists; this exists for symmetry with the client revision endpoint
// and to surface a clean 404 for any other revision number.
// GET /transactions/{id}/revisions/{n}
func (h *Handler) GetTransactionRevision(w http.ResponseWriter, r *http.Request) {
	id, err := parseUint32Param(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction id", err)
		return
	}
	revision, err := parseUint32Param(r, "revision")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid revision number", err)
		return
	}

	tx, sessErr := h.session(r).GetTransactionRevision(r.Context(), id, revision)
	if sessErr != nil {
		writeSanitizedError(w, sessErr)
		return
	}
	if tx == nil {
		writeError(w, http.StatusNotFound, "revision not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(*tx))
}

// GetDisputeForTransaction returns the dispute referencing a transaction,
// if any is currently or was ever open.
// GET /transactions/{id}/dispute
func (h *Handler) GetDisputeForTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseUint32Param(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction id", err)
		return
	}

	dispute, sessErr := h.session(r).GetDisputeByReferenceTxID(r.Context(), id)
	if sessErr != nil {
		writeSanitizedError(w, sessErr)
		return
	}
	if dispute == nil {
		writeError(w, http.StatusNotFound, "no dispute for this transaction", nil)
		return
	}
	writeJSON(w, http.StatusOK, toDisputeDTO(*dispute))
}

// SubmitTransaction applies a single transaction record, the HTTP
// equivalent of one CSV row.
// POST /transactions
func (h *Handler) SubmitTransaction(w http.ResponseWriter, r *http.Request) {
	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	csvTx := model.CSVTransaction{
		RecordType: model.RecordType(req.RecordType),
		Client:     req.Client,
		Tx:         req.Tx,
	}
	if req.Amount != nil {
		amount := decimal.NewFromFloat(*req.Amount)
		csvTx.Amount = &amount
	}

	transaction := model.TransactionFromCSV(csvTx)
	if err := h.session(r).ProcessTransaction(r.Context(), transaction); err != nil {
		writeSanitizedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "applied"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeSanitizedError maps a ledger.SanitizedError's Kind onto the HTTP
// status contract: NotFound->404, Unauthorized->403,
// IncorrectRevisionNumber->409, UserError->400, everything else->500. A
// non-SanitizedError is treated as an internal error.
func writeSanitizedError(w http.ResponseWriter, err error) {
	se, ok := err.(*ledger.SanitizedError)
	if !ok {
		writeError(w, http.StatusInternalServerError, "an internal error has occurred", nil)
		return
	}

	switch se.Kind {
	case ledger.KindNotFound:
		writeError(w, http.StatusNotFound, se.Message, nil)
	case ledger.KindUnauthorized:
		writeError(w, http.StatusForbidden, se.Message, nil)
	case ledger.KindIncorrectRevisionNumber:
		writeError(w, http.StatusConflict, se.Message, nil)
	case ledger.KindUserError:
		writeError(w, http.StatusBadRequest, se.Message, nil)
	default: // KindContention, KindInternalError
		writeError(w, http.StatusInternalServerError, se.Message, nil)
	}
}

func parseUint16Param(r *http.Request, name string) (uint16, error) {
	v, err := strconv.ParseUint(chi.URLParam(r, name), 10, 16)
	return uint16(v), err
}

func parseUint32Param(r *http.Request, name string) (uint32, error) {
	v, err := strconv.ParseUint(chi.URLParam(r, name), 10, 32)
	return uint32(v), err
}
