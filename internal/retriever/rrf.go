// Package retriever implements the hybrid content search (vector +
// trigram lanes fused by Reciprocal Rank Fusion) and the style-profile
// retriever over the document store.
package retriever

import (
	"sort"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/types"
)

// DefaultRRFK is the default RRF fusion constant.
const DefaultRRFK = 60

// fusedPassage is a passage with its combined RRF score.
type fusedPassage struct {
	Passage  types.Passage
	Score    float64
	BestRank int
}

// rrfScore is the contribution of one rank to the fused score.
func rrfScore(rank, k int) float64 {
	return 1.0 / float64(rank+k)
}

// fuse combines two ranked lists by Reciprocal Rank Fusion. Passages
// appearing in both lists sum their contributions and are deduplicated
// by identifier. Ordering is by score descending, ties by the smallest
// rank observed in either list, then by identifier ascending so the
// result is deterministic. Fusion is commutative over its inputs.
func fuse(a, b []types.RankedPassage, rrfK int) []fusedPassage {
	if rrfK <= 0 {
		rrfK = DefaultRRFK
	}

	byID := make(map[string]*fusedPassage)
	var order []string
	add := func(list []types.RankedPassage) {
		for _, rp := range list {
			f, ok := byID[rp.Passage.ID]
			if !ok {
				f = &fusedPassage{Passage: rp.Passage, BestRank: rp.Rank}
				byID[rp.Passage.ID] = f
				order = append(order, rp.Passage.ID)
			}
			f.Score += rrfScore(rp.Rank, rrfK)
			if rp.Rank < f.BestRank {
				f.BestRank = rp.Rank
			}
		}
	}
	add(a)
	add(b)

	out := make([]fusedPassage, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].BestRank != out[j].BestRank {
			return out[i].BestRank < out[j].BestRank
		}
		return out[i].Passage.ID < out[j].Passage.ID
	})
	return out
}
