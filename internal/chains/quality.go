package chains

import (
	"context"
	"fmt"
	"strings"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/llm"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/prompts"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/types"
)

const styleCheckSchema = `{
	"type": "object",
	"required": ["consistency_score"],
	"properties": {
		"consistency_score": {"type": "number", "minimum": 0, "maximum": 1},
		"issues": {"type": "array", "items": {
			"type": "object",
			"required": ["location", "description"],
			"properties": {
				"location": {"type": "string"},
				"description": {"type": "string"},
				"severity": {"type": "string", "enum": ["low", "medium", "high"]}
			}
		}},
		"corrected_sections": {"type": "array", "items": {
			"type": "object",
			"required": ["original", "corrected"],
			"properties": {
				"original": {"type": "string"},
				"corrected": {"type": "string"},
				"reason": {"type": "string"}
			}
		}}
	}
}`

const hallucinationSchema = `{
	"type": "object",
	"required": ["confidence"],
	"properties": {
		"unverified_claims": {"type": "array", "items": {
			"type": "object",
			"required": ["claim", "suggested_tag"],
			"properties": {
				"claim": {"type": "string"},
				"reason": {"type": "string"},
				"suggested_tag": {"type": "string"}
			}
		}},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1}
	}
}`

// StyleIssue is one inconsistency found by the style checker.
type StyleIssue struct {
	Location    string `json:"location"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// CorrectedSection is a literal replacement proposed by the checker.
type CorrectedSection struct {
	Original  string `json:"original"`
	Corrected string `json:"corrected"`
	Reason    string `json:"reason"`
}

// StyleCheckResult is the style checker output.
type StyleCheckResult struct {
	ConsistencyScore  float64            `json:"consistency_score" validate:"gte=0,lte=1"`
	Issues            []StyleIssue       `json:"issues"`
	CorrectedSections []CorrectedSection `json:"corrected_sections"`
}

// UnverifiedClaim is one statement the detector could not ground.
type UnverifiedClaim struct {
	Claim        string `json:"claim"`
	Reason       string `json:"reason"`
	SuggestedTag string `json:"suggested_tag"`
}

// HallucinationResult is the hallucination detector output.
type HallucinationResult struct {
	UnverifiedClaims []UnverifiedClaim `json:"unverified_claims"`
	Confidence       float64           `json:"confidence" validate:"gte=0,lte=1"`
}

// StyleChecker scores the draft's consistency against the rulebook.
type StyleChecker struct {
	client llm.Client
	system string
	user   string
}

// NewStyleChecker wires the style-checker chain.
func NewStyleChecker(client llm.Client) *StyleChecker {
	return &StyleChecker{
		client: client,
		system: prompts.MustGet("quality.json", "check-style-system"),
		user:   prompts.MustGet("quality.json", "check-style-user"),
	}
}

// Run checks the full draft text against the rulebook.
func (c *StyleChecker) Run(ctx context.Context, draftText, styleProfile string) (StyleCheckResult, error) {
	system := prompts.Format(c.system, map[string]string{
		"StyleProfile": orNone(styleProfile, "（ルールブックなし）"),
	})
	user := prompts.Format(c.user, map[string]string{"DraftText": draftText})
	return runJSON[StyleCheckResult](ctx, c.client, llm.TierLite, 0.1, system, user, styleCheckSchema)
}

// AutoRewriter rewrites the composed draft text to satisfy the rulebook
// while preserving facts and the heading skeleton.
type AutoRewriter struct {
	client llm.Client
	system string
	user   string
}

// NewAutoRewriter wires the rewrite chain.
func NewAutoRewriter(client llm.Client) *AutoRewriter {
	return &AutoRewriter{
		client: client,
		system: prompts.MustGet("quality.json", "rewrite-system"),
		user:   prompts.MustGet("quality.json", "rewrite-user"),
	}
}

// Run rewrites the draft text guided by the style-check result.
func (c *AutoRewriter) Run(ctx context.Context, draftText string, check StyleCheckResult, styleProfile string) (string, error) {
	var issues []string
	for _, i := range check.Issues {
		issues = append(issues, fmt.Sprintf("- %s: %s", i.Location, i.Description))
	}
	var corrections []string
	for _, cs := range check.CorrectedSections {
		corrections = append(corrections, fmt.Sprintf("- %s → %s", cs.Original, cs.Corrected))
	}

	system := prompts.Format(c.system, map[string]string{
		"StyleProfile":      orNone(styleProfile, "（ルールブックなし）"),
		"ConsistencyScore":  fmt.Sprintf("%.0f%%", check.ConsistencyScore*100),
		"Issues":            orNone(strings.Join(issues, "\n"), "なし"),
		"CorrectedSections": orNone(strings.Join(corrections, "\n"), "なし"),
	})
	user := prompts.Format(c.user, map[string]string{"DraftText": draftText})

	rewritten, err := c.client.Chat(ctx, llm.TierHigh, 0.5, system, user)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(rewritten), nil
}

// HallucinationDetector lists claims the reference passages do not
// support.
type HallucinationDetector struct {
	client llm.Client
	system string
	user   string
}

// NewHallucinationDetector wires the detector chain.
func NewHallucinationDetector(client llm.Client) *HallucinationDetector {
	return &HallucinationDetector{
		client: client,
		system: prompts.MustGet("quality.json", "detect-hallucination-system"),
		user:   prompts.MustGet("quality.json", "detect-hallucination-user"),
	}
}

// Run checks the draft text against the reference passages.
func (c *HallucinationDetector) Run(ctx context.Context, draftText string, passages []types.Passage) (HallucinationResult, error) {
	system := prompts.Format(c.system, map[string]string{
		"ReferencePassages": joinPassages(passages),
	})
	user := prompts.Format(c.user, map[string]string{"DraftText": draftText})
	return runJSON[HallucinationResult](ctx, c.client, llm.TierLite, 0, system, user, hallucinationSchema)
}
