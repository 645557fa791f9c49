package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPReranker calls a cross-encoder scoring service over HTTP. The
// service loads the model once at its own startup; this client is cheap
// and safe to share.
type HTTPReranker struct {
	baseURL string
	client  *http.Client
}

// NewHTTPReranker creates a reranker client and verifies the service is
// reachable. Returns an error when the service cannot be probed so the
// caller can fall back to no reranking.
func NewHTTPReranker(ctx context.Context, baseURL string) (*HTTPReranker, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("reranker URL is empty")
	}
	r := &HTTPReranker{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/healthz", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build reranker probe: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reranker unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reranker probe returned %d", resp.StatusCode)
	}
	return r, nil
}

type scoreRequest struct {
	Query    string   `json:"query"`
	Passages []string `json:"passages"`
}

type scoreResponse struct {
	Scores []float64 `json:"scores"`
}

// Rerank scores every passage against the query and returns the top-k
// ordered by raw score descending.
func (r *HTTPReranker) Rerank(ctx context.Context, query string, passages []string, topK int) ([]Scored, error) {
	if len(passages) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(scoreRequest{Query: query, Passages: passages})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/score", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("rerank service returned %d: %s", resp.StatusCode, payload)
	}

	var out scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode rerank response: %w", err)
	}
	if len(out.Scores) != len(passages) {
		return nil, fmt.Errorf("rerank score count mismatch: got %d, want %d", len(out.Scores), len(passages))
	}

	scored := make([]Scored, len(passages))
	for i, s := range out.Scores {
		scored[i] = Scored{
			Index:      i,
			Body:       passages[i],
			RawScore:   s,
			Normalized: Sigmoid(s),
		}
	}
	return rankScores(scored, topK), nil
}
