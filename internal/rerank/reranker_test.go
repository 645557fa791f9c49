package rerank

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigmoid(t *testing.T) {
	assert.InDelta(t, 0.5, Sigmoid(0), 1e-9)
	assert.Greater(t, Sigmoid(2.0), 0.85)
	assert.Less(t, Sigmoid(-2.0), 0.15)
	// Monotonic
	assert.Greater(t, Sigmoid(1.0), Sigmoid(0.5))
}

func TestRankScores_OrdersByRawScoreDescending(t *testing.T) {
	scores := []Scored{
		{Index: 0, RawScore: -1.2},
		{Index: 1, RawScore: 3.4},
		{Index: 2, RawScore: 0.5},
	}
	ranked := rankScores(scores, 0)
	assert.Equal(t, []int{1, 2, 0}, []int{ranked[0].Index, ranked[1].Index, ranked[2].Index})
}

func TestRankScores_TiesKeepInputOrder(t *testing.T) {
	scores := []Scored{
		{Index: 0, RawScore: 1.0},
		{Index: 1, RawScore: 1.0},
		{Index: 2, RawScore: 2.0},
	}
	ranked := rankScores(scores, 0)
	assert.Equal(t, 2, ranked[0].Index)
	assert.Equal(t, 0, ranked[1].Index)
	assert.Equal(t, 1, ranked[2].Index)
}

func TestRankScores_Truncates(t *testing.T) {
	scores := []Scored{{RawScore: 1}, {RawScore: 2}, {RawScore: 3}}
	assert.Len(t, rankScores(scores, 2), 2)
}

func newScoringServer(t *testing.T, scores []float64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/score", func(w http.ResponseWriter, r *http.Request) {
		var req scoreRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Passages, len(scores))
		_ = json.NewEncoder(w).Encode(scoreResponse{Scores: scores})
	})
	return httptest.NewServer(mux)
}

func TestHTTPReranker_Rerank(t *testing.T) {
	srv := newScoringServer(t, []float64{-0.5, 2.1, 0.3})
	defer srv.Close()

	r, err := NewHTTPReranker(context.Background(), srv.URL)
	require.NoError(t, err)

	scored, err := r.Rerank(context.Background(), "新入社員の挑戦", []string{"a", "b", "c"}, 2)
	require.NoError(t, err)
	require.Len(t, scored, 2)

	assert.Equal(t, "b", scored[0].Body)
	assert.Equal(t, 2.1, scored[0].RawScore)
	assert.InDelta(t, Sigmoid(2.1), scored[0].Normalized, 1e-9)
	assert.Equal(t, "c", scored[1].Body)
}

func TestHTTPReranker_EmptyInput(t *testing.T) {
	srv := newScoringServer(t, nil)
	defer srv.Close()

	r, err := NewHTTPReranker(context.Background(), srv.URL)
	require.NoError(t, err)

	scored, err := r.Rerank(context.Background(), "q", nil, 5)
	require.NoError(t, err)
	assert.Empty(t, scored)
}

func TestNewHTTPReranker_UnreachableFails(t *testing.T) {
	_, err := NewHTTPReranker(context.Background(), "http://127.0.0.1:1")
	assert.Error(t, err)
}
