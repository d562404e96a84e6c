// Package ledger provides read and confirmation access to the chain-resident
// pet registry. Controller changes are signed and broadcast by wallets on the
// client side; this gateway only verifies who controls a record and waits for
// broadcast transactions to be mined.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"petledger/contracts/registry"
	"petledger/internal/platform/config"
)

// Errors callers branch on. The coordinator maps these onto the domain error
// taxonomy (not_found vs chain_error, retryable vs fatal).
var (
	ErrRecordNotFound      = errors.New("ledger: record not registered")
	ErrReverted            = errors.New("ledger: transaction reverted")
	ErrConfirmationTimeout = errors.New("ledger: confirmation timed out")
)

// Confirmation reports a mined transaction.
type Confirmation struct {
	TxHash      string
	BlockNumber uint64
}

// Client is a JSON-RPC client for an EVM-style node hosting the registry.
type Client struct {
	rpcURL       string
	registryAddr string
	pollInterval time.Duration
	httpClient   *http.Client
}

// NewClient builds a ledger client from config.
func NewClient(cfg config.LedgerConfig) (*Client, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("ledger: RPC URL required")
	}
	if cfg.RegistryAddress == "" {
		return nil, fmt.Errorf("ledger: registry contract address required")
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = 2 * time.Second
	}
	return &Client{
		rpcURL:       cfg.RPCURL,
		registryAddr: cfg.RegistryAddress,
		pollInterval: poll,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int    `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call performs one JSON-RPC round trip.
func (c *Client) call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: 1})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}
	return rpcResp.Result, nil
}

// GetDIDDocument reads the on-chain document for a record. Returns
// ErrRecordNotFound when the registry has no entry for the DID.
func (c *Client) GetDIDDocument(ctx context.Context, recordDID string) (registry.DIDDocument, error) {
	callObj := map[string]string{
		"to":   c.registryAddr,
		"data": registry.GetDIDDocumentCalldata(recordDID),
	}
	result, err := c.call(ctx, "eth_call", []any{callObj, "latest"})
	if err != nil {
		return registry.DIDDocument{}, fmt.Errorf("getDIDDocument: %w", err)
	}

	var hexData string
	if err := json.Unmarshal(result, &hexData); err != nil {
		return registry.DIDDocument{}, fmt.Errorf("getDIDDocument: decode result: %w", err)
	}
	doc, err := registry.ParseDIDDocument(hexData)
	if err != nil {
		return registry.DIDDocument{}, fmt.Errorf("getDIDDocument: %w", err)
	}
	if !doc.Exists {
		return registry.DIDDocument{}, ErrRecordNotFound
	}
	return doc, nil
}

// GetController returns the current controller address for a record.
func (c *Client) GetController(ctx context.Context, recordDID string) (string, error) {
	doc, err := c.GetDIDDocument(ctx, recordDID)
	if err != nil {
		return "", err
	}
	return doc.Controller, nil
}

// receipt is the subset of eth_getTransactionReceipt we rely on. Absent
// fields are detected explicitly rather than decoded into zero values.
type receipt struct {
	Status      *string `json:"status"`
	BlockNumber *string `json:"blockNumber"`
}

// WaitForConfirmation polls for the transaction receipt until mined or the
// timeout elapses. A revert is fatal (ErrReverted); a timeout is retryable
// (ErrConfirmationTimeout) and leaves the transfer state untouched upstream.
func (c *Client) WaitForConfirmation(ctx context.Context, txHash string, timeout time.Duration) (Confirmation, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		conf, mined, err := c.checkReceipt(ctx, txHash)
		if err != nil {
			if ctx.Err() != nil {
				return Confirmation{}, ErrConfirmationTimeout
			}
			return Confirmation{}, err
		}
		if mined {
			return conf, nil
		}

		select {
		case <-ctx.Done():
			return Confirmation{}, ErrConfirmationTimeout
		case <-ticker.C:
		}
	}
}

func (c *Client) checkReceipt(ctx context.Context, txHash string) (Confirmation, bool, error) {
	result, err := c.call(ctx, "eth_getTransactionReceipt", []any{txHash})
	if err != nil {
		return Confirmation{}, false, fmt.Errorf("getTransactionReceipt: %w", err)
	}
	if len(result) == 0 || string(result) == "null" {
		return Confirmation{}, false, nil // not mined yet
	}

	var r receipt
	if err := json.Unmarshal(result, &r); err != nil {
		return Confirmation{}, false, fmt.Errorf("decode receipt: %w", err)
	}
	if r.Status == nil || r.BlockNumber == nil {
		return Confirmation{}, false, fmt.Errorf("receipt missing status or blockNumber")
	}
	if *r.Status == "0x0" {
		return Confirmation{}, false, ErrReverted
	}

	block, err := parseHexUint(*r.BlockNumber)
	if err != nil {
		return Confirmation{}, false, fmt.Errorf("parse blockNumber: %w", err)
	}
	return Confirmation{TxHash: txHash, BlockNumber: block}, true, nil
}

func parseHexUint(s string) (uint64, error) {
	return strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
}
