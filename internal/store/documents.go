package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/types"
)

// DefaultMinSimilarity is the trigram similarity floor below which a
// passage is not considered a lexical match.
const DefaultMinSimilarity = 0.1

// VectorSearch returns up to limit passages of the category ordered by
// cosine distance to queryVec ascending, with 1-based ranks.
func (db *DB) VectorSearch(ctx context.Context, queryVec []float32, category types.ArticleType, limit int) ([]types.RankedPassage, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, body, attrs, article_type, source, chunk_index, total_chunks, created_at
		 FROM documents
		 WHERE article_type = $1
		 ORDER BY embedding <=> $2
		 LIMIT $3`,
		category, pgvector.NewVector(queryVec), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	defer rows.Close()

	return scanRankedPassages(rows)
}

// TrigramSearch returns up to limit passages of the category whose
// trigram similarity to queryText exceeds minSimilarity, ordered by
// similarity descending, with 1-based ranks.
func (db *DB) TrigramSearch(ctx context.Context, queryText string, category types.ArticleType, limit int, minSimilarity float64) ([]types.RankedPassage, error) {
	if minSimilarity <= 0 {
		minSimilarity = DefaultMinSimilarity
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, body, attrs, article_type, source, chunk_index, total_chunks, created_at
		 FROM documents
		 WHERE article_type = $1
		   AND similarity(body, $2) > $3
		 ORDER BY similarity(body, $2) DESC
		 LIMIT $4`,
		category, queryText, minSimilarity, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("trigram search failed: %w", err)
	}
	defer rows.Close()

	return scanRankedPassages(rows)
}

// scanRankedPassages scans passage rows, assigning ranks in row order.
func scanRankedPassages(rows pgx.Rows) ([]types.RankedPassage, error) {
	var out []types.RankedPassage
	rank := 0
	for rows.Next() {
		var p types.Passage
		var attrs []byte
		if err := rows.Scan(&p.ID, &p.Body, &attrs, &p.Category, &p.Source,
			&p.ChunkIndex, &p.TotalChunks, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan passage: %w", err)
		}
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &p.Attrs); err != nil {
				// Attribute bags are free-form; a bad one should not
				// sink the whole result set.
				p.Attrs = nil
			}
		}
		rank++
		out = append(out, types.RankedPassage{Passage: p, Rank: rank})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("passage rows failed: %w", err)
	}
	return out, nil
}
