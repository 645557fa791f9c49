package chains

import (
	"context"
	"strconv"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/llm"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/prompts"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/types"
)

const outlineSchema = `{
	"type": "object",
	"required": ["sections"],
	"properties": {
		"sections": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["level", "title"],
				"properties": {
					"level": {"type": "string", "enum": ["H2", "H3"]},
					"title": {"type": "string", "minLength": 1},
					"content_summary": {"type": "string"},
					"key_sources": {"type": "array", "items": {"type": "string"}},
					"target_length": {"type": "integer", "minimum": 0}
				}
			}
		},
		"total_target_length": {"type": "integer", "minimum": 0}
	}
}`

// OutlineInputs carries everything the outline chain conditions on.
type OutlineInputs struct {
	Input         types.StructuredInput
	ArticleTypeJA string
	Style         StyleAnalysis
	Structure     StructureAnalysis
	StyleProfile  string
	StyleExcerpts []string
	Passages      []types.Passage
}

// OutlineGenerator plans the article skeleton.
type OutlineGenerator struct {
	client llm.Client
	system string
	user   string
}

// NewOutlineGenerator wires the outline chain.
func NewOutlineGenerator(client llm.Client) *OutlineGenerator {
	return &OutlineGenerator{
		client: client,
		system: prompts.MustGet("outline.json", "generate-outline-system"),
		user:   prompts.MustGet("outline.json", "generate-outline-user"),
	}
}

// Run generates the outline from the brief, the analyses, and the
// retrieved style and content references.
func (c *OutlineGenerator) Run(ctx context.Context, in OutlineInputs) (types.Outline, error) {
	system := prompts.Format(c.system, map[string]string{
		"Theme":             in.Input.Theme,
		"ArticleTypeJA":     in.ArticleTypeJA,
		"KeyPoints":         joinList(in.Input.KeyPoints),
		"InterviewQuotes":   joinQuotes(in.Input.InterviewQuotes),
		"DesiredLength":     strconv.Itoa(in.Input.DesiredLength),
		"StyleProfile":      orNone(in.StyleProfile, "（ルールブックなし）"),
		"StyleExcerpts":     joinExcerpts(in.StyleExcerpts),
		"HeadingPatterns":   joinList(in.Structure.HeadingPatterns),
		"LeadPatterns":      joinList(in.Structure.LeadPatterns),
		"ClosingPatterns":   joinList(in.Structure.ClosingPatterns),
		"ReferencePassages": joinPassages(in.Passages),
	})

	outline, err := runJSON[types.Outline](ctx, c.client, llm.TierHigh, 0.5, system, c.user, outlineSchema)
	if err != nil {
		return types.Outline{}, err
	}
	if outline.TotalTargetLength == 0 {
		for _, s := range outline.Sections {
			outline.TotalTargetLength += s.TargetLength
		}
	}
	return outline, nil
}
