package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petledger/internal/platform/config"
)

const (
	testRegistry   = "0x00000000000000000000000000000000000000aa"
	testController = "0xcccccccccccccccccccccccccccccccccccccccc"
	testOwner      = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

// didDocumentResult encodes the registry return tuple for eth_call responses.
func didDocumentResult(owner, controller string, exists bool) string {
	pad := func(s string) string {
		s = strings.TrimPrefix(s, "0x")
		return strings.Repeat("0", 64-len(s)) + s
	}
	existsWord := pad("0")
	if exists {
		existsWord = pad("1")
	}
	return "0x" + pad(owner) + pad(controller) + pad("64") + pad("c8") + existsWord
}

type rpcCall struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(config.LedgerConfig{
		RPCURL:          srv.URL,
		RegistryAddress: testRegistry,
		PollInterval:    5 * time.Millisecond,
	})
	require.NoError(t, err)
	return client, srv
}

func TestNewClientRequiresEndpoints(t *testing.T) {
	_, err := NewClient(config.LedgerConfig{RegistryAddress: testRegistry})
	require.ErrorContains(t, err, "RPC URL required")

	_, err = NewClient(config.LedgerConfig{RPCURL: "http://localhost:8545"})
	require.ErrorContains(t, err, "registry contract address required")
}

func writeResult(w http.ResponseWriter, result any) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"result":  result,
	})
}

func TestGetDIDDocument(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var call rpcCall
		require.NoError(t, json.NewDecoder(r.Body).Decode(&call))
		require.Equal(t, "eth_call", call.Method)

		callObj := call.Params[0].(map[string]any)
		assert.Equal(t, testRegistry, callObj["to"])
		assert.True(t, strings.HasPrefix(callObj["data"].(string), "0x"))

		writeResult(w, didDocumentResult(testOwner, testController, true))
	})

	doc, err := client.GetDIDDocument(context.Background(), "did:pet:abc")
	require.NoError(t, err)
	assert.Equal(t, testController, doc.Controller)
	assert.Equal(t, testOwner, doc.BiometricOwner)
	assert.True(t, doc.Exists)
}

func TestGetDIDDocumentNotRegistered(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, didDocumentResult(strings.Repeat("0", 40), strings.Repeat("0", 40), false))
	})

	_, err := client.GetDIDDocument(context.Background(), "did:pet:missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestGetController(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, didDocumentResult(testOwner, testController, true))
	})

	controller, err := client.GetController(context.Background(), "did:pet:abc")
	require.NoError(t, err)
	assert.Equal(t, testController, controller)
}

func TestWaitForConfirmationMined(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			writeResult(w, nil) // pending
			return
		}
		writeResult(w, map[string]string{"status": "0x1", "blockNumber": "0x3e8"})
	})

	conf, err := client.WaitForConfirmation(context.Background(), "0xTX1", time.Second)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), conf.BlockNumber)
	assert.Equal(t, "0xTX1", conf.TxHash)
	assert.GreaterOrEqual(t, calls, 3)
}

func TestWaitForConfirmationRevert(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, map[string]string{"status": "0x0", "blockNumber": "0x3e8"})
	})

	_, err := client.WaitForConfirmation(context.Background(), "0xTX1", time.Second)
	assert.ErrorIs(t, err, ErrReverted)
}

func TestWaitForConfirmationTimeout(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, nil) // never mined
	})

	_, err := client.WaitForConfirmation(context.Background(), "0xTX1", 30*time.Millisecond)
	assert.ErrorIs(t, err, ErrConfirmationTimeout)
}

func TestRPCErrorSurfaces(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      1,
			"error":   map[string]any{"code": -32000, "message": "header not found"},
		})
	})

	_, err := client.GetDIDDocument(context.Background(), "did:pet:abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header not found")
}

func TestReceiptMissingFields(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, map[string]string{"status": "0x1"}) // no blockNumber
	})

	_, err := client.WaitForConfirmation(context.Background(), "0xTX1", time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing status or blockNumber")
}
