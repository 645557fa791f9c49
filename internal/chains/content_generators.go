package chains

import (
	"context"
	"strconv"
	"strings"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/llm"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/prompts"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/types"
)

const titleSchema = `{
	"type": "object",
	"required": ["titles"],
	"properties": {
		"titles": {"type": "array", "items": {"type": "string"}, "minItems": 3, "maxItems": 3}
	}
}`

// titleOutput is the decoded title chain result.
type titleOutput struct {
	Titles []string `json:"titles" validate:"len=3"`
}

// TitleGenerator produces exactly three title candidates.
type TitleGenerator struct {
	client llm.Client
	system string
	user   string
}

// NewTitleGenerator wires the title chain.
func NewTitleGenerator(client llm.Client) *TitleGenerator {
	return &TitleGenerator{
		client: client,
		system: prompts.MustGet("content.json", "generate-title-system"),
		user:   prompts.MustGet("content.json", "generate-title-user"),
	}
}

// Run generates the three title candidates.
func (c *TitleGenerator) Run(ctx context.Context, input types.StructuredInput, articleTypeJA string, outline types.Outline, styleProfile string) ([]string, error) {
	system := prompts.Format(c.system, map[string]string{
		"Theme":          input.Theme,
		"ArticleTypeJA":  articleTypeJA,
		"OutlineSummary": joinList(outline.Titles()),
		"StyleProfile":   orNone(styleProfile, "（ルールブックなし）"),
	})

	out, err := runJSON[titleOutput](ctx, c.client, llm.TierHigh, 0.7, system, c.user, titleSchema)
	if err != nil {
		return nil, err
	}
	return out.Titles, nil
}

// LeadGenerator produces the opening paragraph.
type LeadGenerator struct {
	client llm.Client
	system string
	user   string
}

// NewLeadGenerator wires the lead chain.
func NewLeadGenerator(client llm.Client) *LeadGenerator {
	return &LeadGenerator{
		client: client,
		system: prompts.MustGet("content.json", "generate-lead-system"),
		user:   prompts.MustGet("content.json", "generate-lead-user"),
	}
}

// Run generates the lead, targeting 100-150 characters.
func (c *LeadGenerator) Run(ctx context.Context, input types.StructuredInput, articleTypeJA string, outline types.Outline, styleProfile string, excerpts []string) (string, error) {
	system := prompts.Format(c.system, map[string]string{
		"Theme":          input.Theme,
		"ArticleTypeJA":  articleTypeJA,
		"OutlineSummary": joinList(outline.Titles()),
		"StyleProfile":   orNone(styleProfile, "（ルールブックなし）"),
		"StyleExcerpts":  joinExcerpts(excerpts),
	})

	lead, err := c.client.Chat(ctx, llm.TierHigh, 0.5, system, c.user)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(lead), nil
}

// SectionGenerator writes the body of one outline section. Sections are
// independent so the orchestrator can run them concurrently.
type SectionGenerator struct {
	client llm.Client
	system string
	user   string
}

// NewSectionGenerator wires the section chain.
func NewSectionGenerator(client llm.Client) *SectionGenerator {
	return &SectionGenerator{
		client: client,
		system: prompts.MustGet("content.json", "generate-section-system"),
		user:   prompts.MustGet("content.json", "generate-section-user"),
	}
}

// Run writes one section body from its outline spec. The body must draw
// only on the supplied passages and input material.
func (c *SectionGenerator) Run(ctx context.Context, spec types.OutlineSection, input types.StructuredInput, articleTypeJA string, passages []types.Passage, styleProfile string) (types.Section, error) {
	system := prompts.Format(c.system, map[string]string{
		"HeadingTitle":      spec.Title,
		"HeadingSummary":    spec.ContentSummary,
		"KeySources":        joinList(spec.KeySources),
		"TargetLength":      strconv.Itoa(spec.TargetLength),
		"ArticleTypeJA":     articleTypeJA,
		"Theme":             input.Theme,
		"KeyPoints":         joinList(input.KeyPoints),
		"InterviewQuotes":   joinQuotes(input.InterviewQuotes),
		"DataFacts":         joinList(input.DataFacts),
		"People":            joinPeople(input.People),
		"ReferencePassages": joinPassages(passages),
		"StyleProfile":      orNone(styleProfile, "（ルールブックなし）"),
	})

	body, err := c.client.Chat(ctx, llm.TierHigh, 0.5, system, c.user)
	if err != nil {
		return types.Section{}, err
	}
	return types.Section{Heading: spec.Title, Body: strings.TrimSpace(body)}, nil
}

// ClosingGenerator writes the closing paragraph.
type ClosingGenerator struct {
	client llm.Client
	system string
	user   string
}

// NewClosingGenerator wires the closing chain.
func NewClosingGenerator(client llm.Client) *ClosingGenerator {
	return &ClosingGenerator{
		client: client,
		system: prompts.MustGet("content.json", "generate-closing-system"),
		user:   prompts.MustGet("content.json", "generate-closing-user"),
	}
}

// Run generates the closing text.
func (c *ClosingGenerator) Run(ctx context.Context, input types.StructuredInput, articleTypeJA string, outline types.Outline, styleProfile string) (string, error) {
	system := prompts.Format(c.system, map[string]string{
		"Theme":          input.Theme,
		"ArticleTypeJA":  articleTypeJA,
		"OutlineSummary": joinList(outline.Titles()),
		"StyleProfile":   orNone(styleProfile, "（ルールブックなし）"),
	})

	closing, err := c.client.Chat(ctx, llm.TierHigh, 0.5, system, c.user)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(closing), nil
}
