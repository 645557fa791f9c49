package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/types"
)

// DraftRecord is one row of the generation history.
type DraftRecord struct {
	ID            uuid.UUID         `json:"id"`
	InputMaterial string            `json:"input_material"`
	Category      types.ArticleType `json:"article_type"`
	Draft         types.Draft       `json:"draft"`
	Markdown      string            `json:"markdown"`
	CreatedAt     time.Time         `json:"created_at"`
}

// DraftSummary is the lightweight listing view of a history row.
type DraftSummary struct {
	ID           uuid.UUID         `json:"id"`
	Category     types.ArticleType `json:"article_type"`
	Theme        string            `json:"theme"`
	ActualLength int               `json:"actual_length"`
	CreatedAt    time.Time         `json:"created_at"`
}

// SaveDraft appends a generation to the history and returns its id.
func (db *DB) SaveDraft(ctx context.Context, inputMaterial string, draft types.Draft, markdown string) (uuid.UUID, error) {
	content, err := json.Marshal(draft)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal draft: %w", err)
	}

	var id uuid.UUID
	err = db.pool.QueryRow(ctx,
		`INSERT INTO generated_articles (input_material, article_type, content, markdown)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		inputMaterial, draft.Category, content, markdown,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to save draft: %w", err)
	}
	return id, nil
}

// ListDrafts returns history summaries, newest first.
func (db *DB) ListDrafts(ctx context.Context, limit, offset int) ([]DraftSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, article_type, content, created_at
		 FROM generated_articles
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	defer rows.Close()

	var out []DraftSummary
	for rows.Next() {
		var s DraftSummary
		var content []byte
		if err := rows.Scan(&s.ID, &s.Category, &content, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan draft summary: %w", err)
		}
		var d types.Draft
		if err := json.Unmarshal(content, &d); err == nil {
			s.Theme = d.Theme
			s.ActualLength = d.ActualLength
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("draft rows failed: %w", err)
	}
	return out, nil
}

// GetDraft fetches one history row by id.
func (db *DB) GetDraft(ctx context.Context, id uuid.UUID) (*DraftRecord, error) {
	var rec DraftRecord
	var content []byte
	err := db.pool.QueryRow(ctx,
		`SELECT id, input_material, article_type, content, markdown, created_at
		 FROM generated_articles WHERE id = $1`,
		id,
	).Scan(&rec.ID, &rec.InputMaterial, &rec.Category, &content, &rec.Markdown, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewError(types.KindNotFound, fmt.Sprintf("draft %s not found", id), err)
		}
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	if err := json.Unmarshal(content, &rec.Draft); err != nil {
		return nil, fmt.Errorf("failed to decode stored draft %s: %w", id, err)
	}
	return &rec, nil
}

// DeleteDraft removes one history row by id.
func (db *DB) DeleteDraft(ctx context.Context, id uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM generated_articles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewError(types.KindNotFound, fmt.Sprintf("draft %s not found", id), nil)
	}
	return nil
}
