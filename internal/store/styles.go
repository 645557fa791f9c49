package store

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/types"
)

// StyleProfile returns the unique style rulebook for the category, or
// ("", false) when the category has none. Observing more than one
// profile is an invariant violation.
func (db *DB) StyleProfile(ctx context.Context, category types.ArticleType) (string, bool, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT body FROM style_profiles
		 WHERE article_type = $1 AND kind = 'profile'
		 LIMIT 2`,
		category,
	)
	if err != nil {
		return "", false, fmt.Errorf("style profile lookup failed: %w", err)
	}
	defer rows.Close()

	var bodies []string
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return "", false, fmt.Errorf("failed to scan style profile: %w", err)
		}
		bodies = append(bodies, body)
	}
	if err := rows.Err(); err != nil {
		return "", false, fmt.Errorf("style profile rows failed: %w", err)
	}

	switch len(bodies) {
	case 0:
		return "", false, nil
	case 1:
		return bodies[0], true, nil
	default:
		return "", false, types.NewError(types.KindInvariant,
			fmt.Sprintf("multiple style profiles for category %s", category), nil)
	}
}

// StyleExcerpts returns up to limit excerpt records of the category
// ordered by cosine distance to queryVec ascending.
func (db *DB) StyleExcerpts(ctx context.Context, queryVec []float32, category types.ArticleType, limit int) ([]types.StyleRecord, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, article_type, kind, body, created_at, updated_at
		 FROM style_profiles
		 WHERE article_type = $1 AND kind = 'excerpt'
		 ORDER BY embedding <=> $2
		 LIMIT $3`,
		category, pgvector.NewVector(queryVec), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("style excerpt search failed: %w", err)
	}
	defer rows.Close()

	var out []types.StyleRecord
	for rows.Next() {
		var r types.StyleRecord
		if err := rows.Scan(&r.ID, &r.Category, &r.Kind, &r.Body, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan style excerpt: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("style excerpt rows failed: %w", err)
	}
	return out, nil
}
