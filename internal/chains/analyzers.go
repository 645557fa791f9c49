package chains

import (
	"context"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/llm"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/prompts"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/types"
)

const styleAnalyzerSchema = `{
	"type": "object",
	"required": ["sentence_endings", "tone"],
	"properties": {
		"sentence_endings": {"type": "array", "items": {"type": "string"}},
		"tone": {"type": "string"},
		"first_person": {"type": "string"},
		"notable_phrases": {"type": "array", "items": {"type": "string"}}
	}
}`

const structureAnalyzerSchema = `{
	"type": "object",
	"required": ["heading_patterns", "lead_patterns", "closing_patterns"],
	"properties": {
		"heading_patterns": {"type": "array", "items": {"type": "string"}},
		"lead_patterns": {"type": "array", "items": {"type": "string"}},
		"closing_patterns": {"type": "array", "items": {"type": "string"}}
	}
}`

// StyleAnalysis summarizes the writing style of the reference passages.
type StyleAnalysis struct {
	SentenceEndings []string `json:"sentence_endings"`
	Tone            string   `json:"tone"`
	FirstPerson     string   `json:"first_person"`
	NotablePhrases  []string `json:"notable_phrases"`
}

// StructureAnalysis summarizes the structural patterns of the reference
// passages.
type StructureAnalysis struct {
	HeadingPatterns []string `json:"heading_patterns"`
	LeadPatterns    []string `json:"lead_patterns"`
	ClosingPatterns []string `json:"closing_patterns"`
}

// DefaultStyleAnalysis is used when there are no reference passages to
// analyze.
func DefaultStyleAnalysis() StyleAnalysis {
	return StyleAnalysis{
		SentenceEndings: []string{"です", "ます"},
		Tone:            "フォーマル",
		FirstPerson:     "私",
	}
}

// DefaultStructureAnalysis is used when there are no reference passages
// to analyze.
func DefaultStructureAnalysis() StructureAnalysis {
	return StructureAnalysis{
		HeadingPatterns: []string{"はじめに", "本題", "まとめ"},
		LeadPatterns:    []string{"テーマの紹介から始める"},
		ClosingPatterns: []string{"CTAで締める"},
	}
}

// StyleAnalyzer extracts the style summary from reference passages.
type StyleAnalyzer struct {
	client llm.Client
	system string
	user   string
}

// NewStyleAnalyzer wires the style-analyzer chain.
func NewStyleAnalyzer(client llm.Client) *StyleAnalyzer {
	return &StyleAnalyzer{
		client: client,
		system: prompts.MustGet("analyze.json", "analyze-style-system"),
		user:   prompts.MustGet("analyze.json", "analyze-style-user"),
	}
}

// Run analyzes the style of the reference passages.
func (c *StyleAnalyzer) Run(ctx context.Context, passages []types.Passage, articleTypeJA string) (StyleAnalysis, error) {
	system := prompts.Format(c.system, map[string]string{"ArticleTypeJA": articleTypeJA})
	user := prompts.Format(c.user, map[string]string{"ReferenceArticles": joinPassages(passages)})
	return runJSON[StyleAnalysis](ctx, c.client, llm.TierLite, 0.2, system, user, styleAnalyzerSchema)
}

// StructureAnalyzer extracts the structure summary from reference
// passages.
type StructureAnalyzer struct {
	client llm.Client
	system string
	user   string
}

// NewStructureAnalyzer wires the structure-analyzer chain.
func NewStructureAnalyzer(client llm.Client) *StructureAnalyzer {
	return &StructureAnalyzer{
		client: client,
		system: prompts.MustGet("analyze.json", "analyze-structure-system"),
		user:   prompts.MustGet("analyze.json", "analyze-structure-user"),
	}
}

// Run analyzes the structure of the reference passages.
func (c *StructureAnalyzer) Run(ctx context.Context, passages []types.Passage, articleTypeJA string) (StructureAnalysis, error) {
	system := prompts.Format(c.system, map[string]string{"ArticleTypeJA": articleTypeJA})
	user := prompts.Format(c.user, map[string]string{"ReferenceArticles": joinPassages(passages)})
	return runJSON[StructureAnalysis](ctx, c.client, llm.TierLite, 0.2, system, user, structureAnalyzerSchema)
}
