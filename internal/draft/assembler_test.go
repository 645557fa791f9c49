package draft

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/types"
)

func renderDraft() *types.Draft {
	d := &types.Draft{
		Titles: []string{"新サービスXをリリースしました", "Xのお知らせ", "Xはじめました"},
		Lead:   "リード文です。",
		Sections: []types.Section{
			{Level: types.LevelH2, Heading: "概要", Body: "2025-03-01にリリースします。"},
			{Level: types.LevelH3, Heading: "対象", Body: "BtoB顧客が対象です。 [要確認: 対象範囲]"},
		},
		Closing:          "締めです。",
		Category:         types.TypeAnnouncement,
		Theme:            "新サービスのリリース",
		DesiredLength:    2000,
		ConsistencyScore: 0.854,
		VerificationConfidence: 0.9,
	}
	Finalize(d)
	return d
}

func TestRenderMarkdown_BodyOrder(t *testing.T) {
	md := RenderMarkdown(renderDraft())

	idxTitles := strings.Index(md, "## タイトル案（3つ）")
	idxLead := strings.Index(md, "## リード文")
	idxBody := strings.Index(md, "## 本文")
	idxClosing := strings.Index(md, "## 締め")
	idxMeta := strings.Index(md, "### メタ情報")

	require.True(t, idxTitles >= 0 && idxLead > idxTitles && idxBody > idxLead && idxClosing > idxBody && idxMeta > idxClosing)

	assert.Contains(t, md, "1. 新サービスXをリリースしました")
	assert.Contains(t, md, "2. Xのお知らせ")
	assert.Contains(t, md, "3. Xはじめました")
	assert.Contains(t, md, "## 概要")
	assert.Contains(t, md, "### 対象")
}

func TestRenderMarkdown_Footer(t *testing.T) {
	d := renderDraft()
	md := RenderMarkdown(d)

	assert.Contains(t, md, "- 記事カテゴリ: アナウンスメント")
	assert.Contains(t, md, "- テーマ: 新サービスのリリース")
	assert.Contains(t, md, "（目標: 2000字）")
	assert.Contains(t, md, "- [要確認]タグ: 1箇所")
	// 0.854 rounds to 85
	assert.Contains(t, md, "- 文体一貫性スコア: 85%")
	assert.Contains(t, md, "- 事実検証信頼度: 90%")
	assert.Contains(t, md, "### 次のステップ")
	assert.Contains(t, md, "1. [要確認] タグがある箇所は事実確認してください")
	assert.Contains(t, md, "2. タイトルは3案から選択または調整してください")
	assert.Contains(t, md, "3. 必要に応じて文章を微調整してください")
}

func TestFinalize_RecomputesDerived(t *testing.T) {
	d := renderDraft()
	assert.Equal(t, d.CalculateLength(), d.ActualLength)
	assert.Equal(t, 1, d.TagCount)
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML("## 見出し\n\n本文です。")
	require.NoError(t, err)
	assert.Contains(t, html, "<h2>見出し</h2>")
	assert.Contains(t, html, "<p>本文です。</p>")
}
