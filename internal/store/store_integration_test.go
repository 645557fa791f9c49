//go:build integration

package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/types"
)

// These tests require a running PostgreSQL database with schema.sql
// applied. Set TEST_DATABASE_URL to run them.

func getTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	db, err := Connect(context.Background(), dsn)
	require.NoError(t, err)

	ctx := context.Background()
	_, _ = db.pool.Exec(ctx, "DELETE FROM generated_articles WHERE input_material LIKE 'itest:%'")
	_, _ = db.pool.Exec(ctx, "DELETE FROM style_profiles WHERE body LIKE 'itest:%'")

	return db
}

func TestIntegration_DraftRoundTrip(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	draft := types.Draft{
		Titles:   []string{"a", "b", "c"},
		Lead:     "リード文です。",
		Sections: []types.Section{{Heading: "はじめに", Body: "本文です。"}},
		Closing:  "締めです。",
		Category: types.TypeCulture,
		Theme:    "リモートワーク",
	}
	draft.Refresh()

	id, err := db.SaveDraft(ctx, "itest: material", draft, "# rendered")
	require.NoError(t, err)

	got, err := db.GetDraft(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, draft, got.Draft)
	assert.Equal(t, "# rendered", got.Markdown)

	require.NoError(t, db.DeleteDraft(ctx, id))

	_, err = db.GetDraft(ctx, id)
	assert.True(t, types.IsKind(err, types.KindNotFound))
	assert.True(t, types.IsKind(db.DeleteDraft(ctx, id), types.KindNotFound))
}

func TestIntegration_StyleProfileUniquePerCategory(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	_, err := db.pool.Exec(ctx,
		`INSERT INTO style_profiles (article_type, kind, body) VALUES ($1, 'profile', 'itest: first')`,
		types.TypeInterview)
	require.NoError(t, err)

	// The partial unique index must reject a second rulebook.
	_, err = db.pool.Exec(ctx,
		`INSERT INTO style_profiles (article_type, kind, body) VALUES ($1, 'profile', 'itest: second')`,
		types.TypeInterview)
	assert.Error(t, err)

	// Excerpts are unrestricted.
	for i := 0; i < 2; i++ {
		_, err = db.pool.Exec(ctx,
			`INSERT INTO style_profiles (article_type, kind, body) VALUES ($1, 'excerpt', 'itest: excerpt')`,
			types.TypeInterview)
		require.NoError(t, err)
	}
}
