package biometric

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petledger/internal/platform/config"
	dErrors "petledger/pkg/domain-errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.OracleConfig{BaseURL: srv.URL, Timeout: time.Second})
}

func TestCompareMatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/compare", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "did:pet:abc", req["recordDid"])
		assert.Equal(t, "uploads/img-1.jpg", req["imageKey"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":           true,
			"similarity":        72,
			"verificationProof": "proof-token-1",
		})
	})

	result, err := client.Compare(context.Background(), "did:pet:abc", "uploads/img-1.jpg")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, float64(72), result.Similarity)
	assert.Equal(t, "proof-token-1", result.Proof)
}

func TestCompareNoMatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":    false,
			"similarity": 40,
		})
	})

	result, err := client.Compare(context.Background(), "did:pet:abc", "uploads/img-2.jpg")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, float64(40), result.Similarity)
	assert.Empty(t, result.Proof)
}

func TestCompareMissingFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"similarity": 90}) // no success flag
	})

	_, err := client.Compare(context.Background(), "did:pet:abc", "uploads/img.jpg")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
}

func TestCompareSimilarityOutOfRange(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "similarity": 140})
	})

	_, err := client.Compare(context.Background(), "did:pet:abc", "uploads/img.jpg")
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
}

func TestCompareSuccessWithoutProof(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "similarity": 88})
	})

	_, err := client.Compare(context.Background(), "did:pet:abc", "uploads/img.jpg")
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := client.Compare(ctx, "did:pet:abc", "uploads/img.jpg")
		require.Error(t, err)
	}

	// Circuit is now open: calls fail fast with unavailable.
	_, err := client.Compare(ctx, "did:pet:abc", "uploads/img.jpg")
	assert.True(t, dErrors.Is(err, dErrors.CodeUnavailable))
}
