package verification

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/chains"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/types"
)

func composeDraft() *types.Draft {
	return &types.Draft{
		Titles: []string{"タイトル案", "b", "c"},
		Lead:   "リード文です。",
		Sections: []types.Section{
			{Level: types.LevelH2, Heading: "概要", Body: "概要の本文です。"},
			{Level: types.LevelH3, Heading: "詳細", Body: "詳細の本文です。"},
		},
		Closing: "締めです。",
	}
}

func TestComposeDraftText(t *testing.T) {
	text := ComposeDraftText(composeDraft())

	assert.True(t, strings.HasPrefix(text, "タイトル案\n"))
	assert.Contains(t, text, "リード文です。")
	assert.Contains(t, text, "## 概要\n概要の本文です。")
	assert.Contains(t, text, "### 詳細\n詳細の本文です。")
	assert.True(t, strings.HasSuffix(text, "締めです。"))
}

func TestReparseSkeleton_RoundTrip(t *testing.T) {
	d := composeDraft()
	lead, sections := ReparseSkeleton(ComposeDraftText(d))

	assert.Equal(t, "リード文です。", lead)
	require.Len(t, sections, 2)
	assert.Equal(t, types.LevelH2, sections[0].Level)
	assert.Equal(t, "概要", sections[0].Heading)
	assert.Equal(t, "概要の本文です。", sections[0].Body)
	assert.Equal(t, types.LevelH3, sections[1].Level)
	// The composed closing has no heading and folds into the last
	// section; the caller preserves the original closing.
	assert.Contains(t, sections[1].Body, "詳細の本文です。")
}

func TestReparseSkeleton_NoHeadings(t *testing.T) {
	lead, sections := ReparseSkeleton("タイトル\nリードだけの文章です。")
	assert.Equal(t, "リードだけの文章です。", lead)
	assert.Empty(t, sections)
}

func TestApplyCorrections(t *testing.T) {
	text := "これはだ。それもだ。"
	got := ApplyCorrections(text, []chains.CorrectedSection{
		{Original: "だ。", Corrected: "です。"},
		{Original: "", Corrected: "無視"},
	})
	assert.Equal(t, "これはです。それもです。", got)
}
