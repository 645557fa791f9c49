// Package draft renders the final article artifact: markdown body,
// metadata footer, and an HTML view.
package draft

import (
	"fmt"
	"math"
	"strings"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/types"
)

// Finalize recomputes the draft's derived fields. Call once after the
// quality stage and before rendering.
func Finalize(d *types.Draft) {
	d.Refresh()
}

// RenderMarkdown renders the draft in the fixed external order: title
// choices, lead, sections, closing, then the metadata footer.
func RenderMarkdown(d *types.Draft) string {
	var sb strings.Builder

	sb.WriteString("## タイトル案（3つ）\n\n")
	for i, title := range d.Titles {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, title)
	}
	sb.WriteString("\n## リード文\n\n")
	sb.WriteString(d.Lead)
	sb.WriteString("\n\n## 本文\n\n")
	for _, s := range d.Sections {
		sb.WriteString(s.HeadingPrefix())
		sb.WriteString(s.Heading)
		sb.WriteString("\n\n")
		sb.WriteString(s.Body)
		sb.WriteString("\n\n")
	}
	sb.WriteString("## 締め\n\n")
	sb.WriteString(d.Closing)
	sb.WriteString("\n")
	sb.WriteString(renderFooter(d))

	return sb.String()
}

// renderFooter renders the metadata footer. Its exact shape is part of
// the external contract.
func renderFooter(d *types.Draft) string {
	return fmt.Sprintf(`
---

### メタ情報
- 記事カテゴリ: %s
- テーマ: %s
- 総文字数: 約%d字（目標: %d字）
- [要確認]タグ: %d箇所
- 文体一貫性スコア: %d%%
- 事実検証信頼度: %d%%

### 次のステップ
1. [要確認] タグがある箇所は事実確認してください
2. タイトルは3案から選択または調整してください
3. 必要に応じて文章を微調整してください
`,
		d.Category.LabelJA(),
		d.Theme,
		d.ActualLength,
		d.DesiredLength,
		d.TagCount,
		roundPercent(d.ConsistencyScore),
		roundPercent(d.VerificationConfidence),
	)
}

func roundPercent(score float64) int {
	return int(math.Round(score * 100))
}
