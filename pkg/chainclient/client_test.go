package chainclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBlockByNumber(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/feeder_gateway/get_block", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("blockNumber"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"block_number": 100,
			"block_hash":   "0xabc",
			"status":       "ACCEPTED_ON_L2",
			"timestamp":    1700000000,
			"transactions": []map[string]interface{}{
				{
					"transaction_hash":      "0xtx0",
					"type":                  "INVOKE_FUNCTION",
					"contract_address":      "0xc1",
					"entry_point_selector":  "0xsel",
					"entry_point_type":      "EXTERNAL",
					"calldata":              []string{"1", "2"},
				},
			},
		})
	}))
	defer server.Close()

	client := New(server.URL, server.URL, time.Second)
	block, rawTxs, err := client.GetBlockByNumber(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), block.ID)
	assert.Equal(t, "0xabc", block.Hash)

	txs, err := DecodeTransactions(100, rawTxs)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "0xtx0", txs[0].Hash)
	assert.Equal(t, []string{"1", "2"}, txs[0].Calldata)
}

func TestGetBlockByNumberNotFoundIsBadRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := New(server.URL, server.URL, time.Second)
	_, _, err := client.GetBlockByNumber(context.Background(), 999999)
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestGetBlockByNumberRetriesOnceOn5xx(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"block_number": 1, "block_hash": "0x1"})
	}))
	defer server.Close()

	client := New(server.URL, server.URL, time.Second)
	block, _, err := client.GetBlockByNumber(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, uint64(1), block.ID)
}

func TestDecodeTransactionsDeployUsesConstructorCalldata(t *testing.T) {
	raw := json.RawMessage(`[{
		"transaction_hash": "0xdeploy",
		"type": "DEPLOY",
		"contract_address": "0xnew",
		"constructor_calldata": ["5", "6"]
	}]`)

	txs, err := DecodeTransactions(1, raw)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Nil(t, txs[0].Calldata)
	assert.Equal(t, []string{"5", "6"}, txs[0].ConstructorCalldata)
}
