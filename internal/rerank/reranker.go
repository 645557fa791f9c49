// Package rerank provides cross-encoder reranking of (query, passage)
// pairs. The reranker is optional: when it cannot be initialized the
// callers bypass it and keep their original ordering.
package rerank

import (
	"context"
	"math"
	"sort"
)

// Scored pairs a passage body with its cross-encoder scores.
type Scored struct {
	Index      int     // position in the input slice
	Body       string  // passage body that was scored
	RawScore   float64 // cross-encoder output
	Normalized float64 // sigmoid(RawScore), in (0, 1)
}

// Reranker scores (query, passage) pairs jointly. Implementations are
// process-wide singletons safe for concurrent use.
type Reranker interface {
	// Rerank returns the top-k passages ordered by raw score
	// descending; ties keep the original input order.
	Rerank(ctx context.Context, query string, passages []string, topK int) ([]Scored, error)
}

// Sigmoid normalizes a raw cross-encoder score into (0, 1).
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// rankScores orders scored entries by raw score descending, ties broken
// by original input order, truncated to topK.
func rankScores(scores []Scored, topK int) []Scored {
	out := make([]Scored, len(scores))
	copy(out, scores)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RawScore > out[j].RawScore
	})
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}
