// Package biometric calls the external comparison oracle that matches an
// uploaded image against a record's registered template. The oracle decides
// match/no-match; this client only validates the response shape and reports
// the score. Calls are guarded by a circuit breaker so a flapping oracle
// fails fast instead of stalling transfers.
package biometric

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"petledger/internal/platform/config"
	dErrors "petledger/pkg/domain-errors"
	"petledger/pkg/platform/circuit"
)

// MatchThreshold is the similarity percentage at or above which the oracle
// reports success. Mirrored here only for documentation and tests; the
// oracle's success flag is authoritative.
const MatchThreshold = 50

// Result is the strict boundary type for an oracle comparison.
type Result struct {
	Success    bool
	Similarity float64
	Proof      string
}

// wire types; pointers so absent fields are detectable.
type compareRequest struct {
	RecordDID string `json:"recordDid"`
	ImageKey  string `json:"imageKey"`
}

type compareResponse struct {
	Success    *bool    `json:"success"`
	Similarity *float64 `json:"similarity"`
	Proof      string   `json:"verificationProof"`
	Error      string   `json:"error"`
}

// Client calls the biometric oracle over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *circuit.Breaker
}

func NewClient(cfg config.OracleConfig) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    circuit.New("biometric_oracle"),
	}
}

// Compare submits an image key for comparison against the record's template.
// Infrastructure failures (transport, malformed responses) trip the breaker;
// a clean "no match" result does not.
func (c *Client) Compare(ctx context.Context, recordDID, imageKey string) (Result, error) {
	if c.breaker.IsOpen() {
		return Result{}, dErrors.New(dErrors.CodeUnavailable, "biometric oracle unavailable")
	}

	result, err := c.compare(ctx, recordDID, imageKey)
	if err != nil {
		c.breaker.RecordFailure()
		return Result{}, err
	}
	c.breaker.RecordSuccess()
	return result, nil
}

func (c *Client) compare(ctx context.Context, recordDID, imageKey string) (Result, error) {
	body, err := json.Marshal(compareRequest{RecordDID: recordDID, ImageKey: imageKey})
	if err != nil {
		return Result{}, fmt.Errorf("marshal compare request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/compare", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("create compare request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("call oracle: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read oracle response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("oracle returned status %d: %s", resp.StatusCode, respBody)
	}

	var decoded compareResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return Result{}, fmt.Errorf("decode oracle response: %w", err)
	}
	// The oracle's contract is loosely typed JSON; validate at the boundary
	// rather than letting zero values masquerade as scores.
	if decoded.Success == nil || decoded.Similarity == nil {
		return Result{}, dErrors.New(dErrors.CodeValidation, "oracle response missing success or similarity")
	}
	if *decoded.Similarity < 0 || *decoded.Similarity > 100 {
		return Result{}, dErrors.Newf(dErrors.CodeValidation, "oracle similarity out of range: %v", *decoded.Similarity)
	}
	if *decoded.Success && decoded.Proof == "" {
		return Result{}, dErrors.New(dErrors.CodeValidation, "oracle reported success without verification proof")
	}

	return Result{
		Success:    *decoded.Success,
		Similarity: *decoded.Similarity,
		Proof:      decoded.Proof,
	}, nil
}
