package retriever

import (
	"context"
	"fmt"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/rerank"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/types"
)

// StyleStore is the slice of the store the style retriever needs.
type StyleStore interface {
	StyleProfile(ctx context.Context, category types.ArticleType) (string, bool, error)
	StyleExcerpts(ctx context.Context, queryVec []float32, category types.ArticleType, limit int) ([]types.StyleRecord, error)
}

// StyleRetriever fetches the per-category rulebook and theme-matched
// style excerpts.
type StyleRetriever struct {
	embedder Embedder
	styles   StyleStore
	reranker rerank.Reranker // nil when unavailable
}

// NewStyleRetriever wires a style retriever. reranker may be nil.
func NewStyleRetriever(embedder Embedder, styles StyleStore, reranker rerank.Reranker) *StyleRetriever {
	return &StyleRetriever{embedder: embedder, styles: styles, reranker: reranker}
}

// RetrieveProfile returns the rulebook body for the category, or an
// empty string when the category has none. A missing rulebook is not an
// error.
func (s *StyleRetriever) RetrieveProfile(ctx context.Context, category types.ArticleType) (string, error) {
	body, ok, err := s.styles.StyleProfile(ctx, category)
	if err != nil {
		if types.IsKind(err, types.KindInvariant) {
			return "", err
		}
		return "", types.NewError(types.KindRetrieval, "style profile lookup failed", err)
	}
	if !ok {
		return "", nil
	}
	return body, nil
}

// RetrieveExcerpts returns up to topK excerpt bodies matching the theme,
// deduplicated by record id. It fetches 2*topK candidates and keeps the
// reranked top topK when a reranker is present, else the first topK.
func (s *StyleRetriever) RetrieveExcerpts(ctx context.Context, theme string, category types.ArticleType, topK int) ([]string, error) {
	if topK <= 0 {
		topK = 5
	}

	queryVec, err := s.embedder.Embed(ctx, theme)
	if err != nil {
		return nil, fmt.Errorf("theme embedding failed: %w", err)
	}

	records, err := s.styles.StyleExcerpts(ctx, queryVec, category, 2*topK)
	if err != nil {
		return nil, types.NewError(types.KindRetrieval, "style excerpt search failed", err)
	}
	records = dedupeRecords(records)
	if len(records) == 0 {
		return nil, nil
	}

	if s.reranker != nil && len(records) > 1 {
		bodies := make([]string, len(records))
		for i, r := range records {
			bodies[i] = r.Body
		}
		scored, err := s.reranker.Rerank(ctx, theme, bodies, topK)
		if err != nil {
			return nil, types.NewError(types.KindRetrieval, "excerpt rerank failed", err)
		}
		out := make([]string, 0, len(scored))
		for _, sc := range scored {
			out = append(out, sc.Body)
		}
		return out, nil
	}

	if len(records) > topK {
		records = records[:topK]
	}
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Body)
	}
	return out, nil
}

func dedupeRecords(records []types.StyleRecord) []types.StyleRecord {
	seen := make(map[string]bool, len(records))
	out := records[:0]
	for _, r := range records {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	return out
}
