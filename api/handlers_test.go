package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dskart/payment-engine/api"
	"github.com/dskart/payment-engine/backend/memorybackend"
	"github.com/dskart/payment-engine/ledger"
	"github.com/dskart/payment-engine/store"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	s := store.New(memorybackend.New())
	app := ledger.NewApp(s)
	return api.NewRouter(api.NewHandler(app))
}

func submit(t *testing.T, router http.Handler, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSubmitTransactionThenGetClient(t *testing.T) {
	router := newTestRouter(t)

	rec := submit(t, router, map[string]any{"type": "deposit", "client": 1, "tx": 1, "amount": 10.0})
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/clients/1", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var dto api.ClientDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	require.Equal(t, uint16(1), dto.Client)
	require.Equal(t, "10", dto.Available)
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "OK", rec.Body.String())
}

func TestGetClientMissingIsNotFound(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/clients/99", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetClientInvalidIDIsBadRequest(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/clients/not-a-number", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWithdrawalInsufficientFundsIsBadRequest(t *testing.T) {
	router := newTestRouter(t)

	rec := submit(t, router, map[string]any{"type": "deposit", "client": 1, "tx": 1, "amount": 5.0})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = submit(t, router, map[string]any{"type": "withdrawal", "client": 1, "tx": 2, "amount": 10.0})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Error)
}

func TestDisputeThenGetDisputeForTransaction(t *testing.T) {
	router := newTestRouter(t)

	require.Equal(t, http.StatusOK, submit(t, router, map[string]any{"type": "deposit", "client": 1, "tx": 1, "amount": 10.0}).Code)
	require.Equal(t, http.StatusOK, submit(t, router, map[string]any{"type": "dispute", "client": 1, "tx": 1}).Code)

	req := httptest.NewRequest(http.MethodGet, "/transactions/1/dispute", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var dto api.DisputeDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	require.Equal(t, uint32(1), dto.ReferencedTx)
	require.False(t, dto.IsDeleted)

	req = httptest.NewRequest(http.MethodGet, "/clients/1", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	var client api.ClientDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &client))
	require.Equal(t, "0", client.Available)
	require.Equal(t, "10", client.Held)
}

func TestGetTransactionRevision(t *testing.T) {
	router := newTestRouter(t)
	require.Equal(t, http.StatusOK, submit(t, router, map[string]any{"type": "deposit", "client": 1, "tx": 1, "amount": 10.0}).Code)

	req := httptest.NewRequest(http.MethodGet, "/transactions/1/revisions/1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/transactions/1/revisions/2", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListClients(t *testing.T) {
	router := newTestRouter(t)
	require.Equal(t, http.StatusOK, submit(t, router, map[string]any{"type": "deposit", "client": 1, "tx": 1, "amount": 10.0}).Code)
	require.Equal(t, http.StatusOK, submit(t, router, map[string]any{"type": "deposit", "client": 2, "tx": 2, "amount": 5.0}).Code)

	req := httptest.NewRequest(http.MethodGet, "/clients", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var dtos []api.ClientDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dtos))
	require.Len(t, dtos, 2)
}
