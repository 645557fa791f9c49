// Package observability provides human-readable progress output for the
// CLI's verbose mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/chains"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/pipeline"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/types"
)

// Printer writes formatted pipeline artifacts to a stream.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintEvent renders one pipeline event as a progress line.
func (p *Printer) PrintEvent(ev pipeline.Event) {
	switch ev.Type {
	case pipeline.EventProgress:
		fmt.Fprintf(p.w, "[%3d%%] %s\n", ev.Progress.Percentage, ev.Progress.Step)
	case pipeline.EventComplete:
		fmt.Fprintf(p.w, "[done] draft %s\n", ev.Complete.DraftID)
	case pipeline.EventError:
		fmt.Fprintf(p.w, "[fail] %s: %s\n", ev.Error.Kind, ev.Error.Message)
	}
}

// PrintStructuredInput renders the parsed brief.
func (p *Printer) PrintStructuredInput(in types.StructuredInput) {
	fmt.Fprintf(p.w, "テーマ: %s\n", in.Theme)
	fmt.Fprintf(p.w, "希望文字数: %d字\n", in.DesiredLength)
	if len(in.KeyPoints) > 0 {
		fmt.Fprintf(p.w, "キーポイント:\n")
		for _, kp := range in.KeyPoints {
			fmt.Fprintf(p.w, "  - %s\n", kp)
		}
	}
	if len(in.Keywords) > 0 {
		fmt.Fprintf(p.w, "キーワード: %s\n", strings.Join(in.Keywords, ", "))
	}
	if len(in.MissingInfo) > 0 {
		fmt.Fprintf(p.w, "不足情報: %s\n", strings.Join(in.MissingInfo, ", "))
	}
}

// PrintClassification renders the classifier verdict.
func (p *Printer) PrintClassification(c chains.Classification) {
	fmt.Fprintf(p.w, "記事タイプ: %s (%s) 確信度 %.0f%%\n", c.ArticleType, c.ArticleTypeJA, c.Confidence*100)
	if c.Reason != "" {
		fmt.Fprintf(p.w, "判定理由: %s\n", c.Reason)
	}
}

// PrintDraftSummary renders the finished draft's metadata.
func (p *Printer) PrintDraftSummary(d types.Draft) {
	fmt.Fprintf(p.w, "カテゴリ: %s / %d字 (目標 %d字)\n", d.Category.LabelJA(), d.ActualLength, d.DesiredLength)
	fmt.Fprintf(p.w, "[要確認]タグ: %d箇所, 一貫性 %.0f%%, 検証信頼度 %.0f%%\n",
		d.TagCount, d.ConsistencyScore*100, d.VerificationConfidence*100)
}
