package types

import "time"

// Passage is a content chunk in the reference corpus. Passages are written
// by the external ingester and never mutated here.
type Passage struct {
	ID          string            `json:"id"`
	Body        string            `json:"body"`
	Attrs       map[string]string `json:"attrs,omitempty"`
	Embedding   []float32         `json:"-"`
	Category    ArticleType       `json:"article_type"`
	Source      string            `json:"source"`
	ChunkIndex  int               `json:"chunk_index"`
	TotalChunks int               `json:"total_chunks"`
	CreatedAt   time.Time         `json:"created_at"`
}

// AttrRerankScore is the attribute key carrying the normalized
// cross-encoder score after reranking.
const AttrRerankScore = "rerank_score_normalized"

// RankedPassage pairs a passage with its 1-based rank within one
// retrieval lane.
type RankedPassage struct {
	Passage Passage
	Rank    int
}
