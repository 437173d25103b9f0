// Package chainclient talks to the L2 feeder gateway and gateway HTTP
// APIs: fetching blocks and transaction statuses, and calling read-only
// contract views used by the interpreter's metadata enrichment step.
package chainclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fluence-xyz/indexer/pkg/types"
)

// ErrBadRequest means the feeder gateway rejected the request outright
// (most commonly: block not produced yet). The crawler treats this as a
// signal to back off rather than a fatal error.
var ErrBadRequest = errors.New("chainclient: bad request")

// Client is a minimal feeder-gateway/gateway HTTP client. Its GET calls
// (blocks, transaction status) retry a transient failure (network error
// or 5xx) once internally, mirroring the single-retry policy the
// original service configured on its feeder gateway client; a 4xx
// response is never retried, since it means the requested resource
// doesn't exist rather than that the request failed in flight. The POST
// calls (AddTransaction, CallContract) are not retried.
type Client struct {
	feederGatewayURL string
	gatewayURL       string
	httpClient       *http.Client
}

// New creates a Client. timeout bounds every individual HTTP round trip
// (not the sum of the internal retry).
func New(feederGatewayURL, gatewayURL string, timeout time.Duration) *Client {
	return &Client{
		feederGatewayURL: feederGatewayURL,
		gatewayURL:       gatewayURL,
		httpClient:       &http.Client{Timeout: timeout},
	}
}

func (c *Client) getJSON(ctx context.Context, baseURL, path string, query url.Values, out interface{}) error {
	u := baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			resp.Body.Close()
			return fmt.Errorf("%w: %s returned %d", ErrBadRequest, path, resp.StatusCode)
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("%s returned %d", path, resp.StatusCode)
			continue
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		return err
	}
	return lastErr
}

// feederBlock mirrors the subset of the feeder gateway's get_block
// response this indexer cares about.
type feederBlock struct {
	BlockNumber       uint64          `json:"block_number"`
	BlockHash         string          `json:"block_hash"`
	Status            string          `json:"status"`
	Timestamp         int64           `json:"timestamp"`
	Transactions      json.RawMessage `json:"transactions"`
	TransactionReceipts json.RawMessage `json:"transaction_receipts"`
}

func (c *Client) fetchBlock(ctx context.Context, query url.Values) (*types.Block, json.RawMessage, error) {
	var fb feederBlock
	if err := c.getJSON(ctx, c.feederGatewayURL, "/feeder_gateway/get_block", query, &fb); err != nil {
		return nil, nil, err
	}
	raw, err := json.Marshal(fb)
	if err != nil {
		return nil, nil, err
	}
	return &types.Block{
		ID:        fb.BlockNumber,
		Hash:      fb.BlockHash,
		Status:    fb.Status,
		Timestamp: time.Unix(fb.Timestamp, 0).UTC(),
		Document:  raw,
	}, fb.Transactions, nil
}

// GetBlockByNumber fetches block n and the raw transaction list found in
// its feeder gateway document.
func (c *Client) GetBlockByNumber(ctx context.Context, n uint64) (*types.Block, json.RawMessage, error) {
	return c.fetchBlock(ctx, url.Values{"blockNumber": {strconv.FormatUint(n, 10)}})
}

// GetLatestBlock fetches the chain tip.
func (c *Client) GetLatestBlock(ctx context.Context) (*types.Block, json.RawMessage, error) {
	return c.fetchBlock(ctx, nil)
}

// GetBlockByHash fetches a block by its hash. The crawler uses this
// once, at startup, to resolve a caller-supplied --thru hash to a block
// number before seeding the forward/backfill cursors (§4.4 step 1).
func (c *Client) GetBlockByHash(ctx context.Context, hash string) (*types.Block, json.RawMessage, error) {
	return c.fetchBlock(ctx, url.Values{"blockHash": {hash}})
}

// InvokeFunction is the gateway's add_transaction request shape for an
// authenticated L2 invocation (§6). Signature is empty for calls that
// only read; Signature Verifier-authenticated paths fill it in before
// this ever reaches the gateway.
type InvokeFunction struct {
	ContractAddress    string   `json:"contract_address"`
	EntryPointSelector string   `json:"entry_point_selector"`
	Calldata           []string `json:"calldata"`
	Signature          []string `json:"signature"`
}

// AddTransaction submits an invocation to the gateway and returns the
// resulting transaction hash. This is the one write path this indexer
// has onto the chain; everything else is read-only.
func (c *Client) AddTransaction(ctx context.Context, invoke InvokeFunction) (string, error) {
	payload, err := json.Marshal(invoke)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL+"/gateway/add_transaction", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return "", fmt.Errorf("%w: add_transaction returned %d", ErrBadRequest, resp.StatusCode)
	}
	if resp.StatusCode >= 500 {
		return "", fmt.Errorf("add_transaction returned %d", resp.StatusCode)
	}

	var out struct {
		TransactionHash string `json:"transaction_hash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.TransactionHash, nil
}

// GetTransactionStatus fetches the on-chain status of a transaction by
// hash. The purge pass does not call it; it decides on a block's hash
// and status alone.
func (c *Client) GetTransactionStatus(ctx context.Context, hash string) (string, error) {
	var out struct {
		Status string `json:"tx_status"`
	}
	err := c.getJSON(ctx, c.feederGatewayURL, "/feeder_gateway/get_transaction_status", url.Values{"transactionHash": {hash}}, &out)
	if err != nil {
		return "", err
	}
	return out.Status, nil
}

// CallContract performs a read-only contract call, used by the
// interpreter's metadata enrichment to read facade view functions
// (name, symbol, decimals, tokenURI) directly from the contract.
func (c *Client) CallContract(ctx context.Context, contractAddress, selector string, calldata []string) ([]string, error) {
	body := map[string]interface{}{
		"contract_address":     contractAddress,
		"entry_point_selector": selector,
		"calldata":             calldata,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.feederGatewayURL+"/feeder_gateway/call_contract", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, fmt.Errorf("%w: call_contract returned %d", ErrBadRequest, resp.StatusCode)
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("call_contract returned %d", resp.StatusCode)
	}

	var out struct {
		Result []string `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Result, nil
}
