package retriever

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/rerank"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/types"
)

// Embedder produces query embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// DocumentSearcher is the slice of the store the hybrid searcher needs.
type DocumentSearcher interface {
	VectorSearch(ctx context.Context, queryVec []float32, category types.ArticleType, limit int) ([]types.RankedPassage, error)
	TrigramSearch(ctx context.Context, queryText string, category types.ArticleType, limit int, minSimilarity float64) ([]types.RankedPassage, error)
}

// SearchParams tune one hybrid search call.
type SearchParams struct {
	KPerSource int // results fetched from each lane
	FinalK     int // results after fusion
	RRFK       int // RRF fusion constant
	RerankTopK int // results kept after reranking
}

// DefaultSearchParams returns the production defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		KPerSource: 20,
		FinalK:     10,
		RRFK:       DefaultRRFK,
		RerankTopK: 5,
	}
}

// HybridSearcher fans out to the vector and trigram lanes, fuses by RRF,
// and optionally reranks with a cross-encoder.
type HybridSearcher struct {
	embedder Embedder
	docs     DocumentSearcher
	reranker rerank.Reranker // nil when unavailable
	params   SearchParams
}

// NewHybridSearcher wires a hybrid searcher. reranker may be nil, which
// leaves the RRF ordering untouched.
func NewHybridSearcher(embedder Embedder, docs DocumentSearcher, reranker rerank.Reranker, params SearchParams) *HybridSearcher {
	if params.KPerSource <= 0 {
		params = DefaultSearchParams()
	}
	return &HybridSearcher{
		embedder: embedder,
		docs:     docs,
		reranker: reranker,
		params:   params,
	}
}

// Search runs the full hybrid pipeline for one query. Both lanes must
// succeed; a single failing lane fails the call, because the downstream
// prompts assume full reference breadth. Two empty lanes are a valid
// empty result.
func (h *HybridSearcher) Search(ctx context.Context, queryText string, category types.ArticleType) ([]types.Passage, error) {
	queryVec, err := h.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("query embedding failed: %w", err)
	}

	var vecLane, lexLane []types.RankedPassage
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		vecLane, err = h.docs.VectorSearch(gCtx, queryVec, category, h.params.KPerSource)
		if err != nil {
			return fmt.Errorf("vector lane: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		lexLane, err = h.docs.TrigramSearch(gCtx, queryText, category, h.params.KPerSource, 0)
		if err != nil {
			return fmt.Errorf("lexical lane: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, types.NewError(types.KindRetrieval, "hybrid search lane failed", err)
	}

	fused := fuse(vecLane, lexLane, h.params.RRFK)
	if len(fused) > h.params.FinalK {
		fused = fused[:h.params.FinalK]
	}

	passages := make([]types.Passage, len(fused))
	for i, f := range fused {
		passages[i] = f.Passage
	}

	if h.reranker != nil && h.params.FinalK > h.params.RerankTopK && len(passages) > 0 {
		reranked, err := h.rerankPassages(ctx, queryText, passages)
		if err != nil {
			return nil, types.NewError(types.KindRetrieval, "rerank failed", err)
		}
		return reranked, nil
	}

	return passages, nil
}

// VectorOnly exposes the vector lane by itself.
func (h *HybridSearcher) VectorOnly(ctx context.Context, queryText string, category types.ArticleType, limit int) ([]types.Passage, error) {
	queryVec, err := h.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("query embedding failed: %w", err)
	}
	ranked, err := h.docs.VectorSearch(ctx, queryVec, category, limit)
	if err != nil {
		return nil, types.NewError(types.KindRetrieval, "vector search failed", err)
	}
	return unranked(ranked), nil
}

// LexicalOnly exposes the trigram lane by itself.
func (h *HybridSearcher) LexicalOnly(ctx context.Context, queryText string, category types.ArticleType, limit int) ([]types.Passage, error) {
	ranked, err := h.docs.TrigramSearch(ctx, queryText, category, limit, 0)
	if err != nil {
		return nil, types.NewError(types.KindRetrieval, "lexical search failed", err)
	}
	return unranked(ranked), nil
}

// rerankPassages replaces the RRF ordering with the cross-encoder one
// and records the normalized score in each passage's attribute bag.
func (h *HybridSearcher) rerankPassages(ctx context.Context, query string, passages []types.Passage) ([]types.Passage, error) {
	bodies := make([]string, len(passages))
	for i, p := range passages {
		bodies[i] = p.Body
	}

	scored, err := h.reranker.Rerank(ctx, query, bodies, h.params.RerankTopK)
	if err != nil {
		return nil, err
	}

	out := make([]types.Passage, 0, len(scored))
	for _, s := range scored {
		p := passages[s.Index]
		attrs := make(map[string]string, len(p.Attrs)+1)
		for k, v := range p.Attrs {
			attrs[k] = v
		}
		attrs[types.AttrRerankScore] = strconv.FormatFloat(s.Normalized, 'f', 6, 64)
		p.Attrs = attrs
		out = append(out, p)
	}
	return out, nil
}

func unranked(ranked []types.RankedPassage) []types.Passage {
	out := make([]types.Passage, len(ranked))
	for i, rp := range ranked {
		out[i] = rp.Passage
	}
	return out
}
