package verification

import (
	"context"
	"log/slog"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/chains"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/types"
)

// RewriteThreshold is the consistency score below which the rewriter
// runs. A score of exactly the threshold does not trigger a rewrite.
const RewriteThreshold = 0.8

// StyleCheckChain scores a draft's style consistency.
type StyleCheckChain interface {
	Run(ctx context.Context, draftText, styleProfile string) (chains.StyleCheckResult, error)
}

// RewriteChain rewrites a draft to satisfy the rulebook.
type RewriteChain interface {
	Run(ctx context.Context, draftText string, check chains.StyleCheckResult, styleProfile string) (string, error)
}

// DetectChain lists claims unsupported by the reference passages.
type DetectChain interface {
	Run(ctx context.Context, draftText string, passages []types.Passage) (chains.HallucinationResult, error)
}

// Verifier runs the quality sub-pipeline over a generated draft.
type Verifier struct {
	checker  StyleCheckChain
	rewriter RewriteChain
	detector DetectChain
	logger   *slog.Logger
}

// NewVerifier wires the verifier from its three chains.
func NewVerifier(checker StyleCheckChain, rewriter RewriteChain, detector DetectChain, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{checker: checker, rewriter: rewriter, detector: detector, logger: logger}
}

// Run style-checks the draft, conditionally rewrites it, detects
// hallucinations, and tags unverified claims in place. Chain failures
// degrade to zero scores and no tags; they never fail the draft.
func (v *Verifier) Run(ctx context.Context, draft *types.Draft, styleProfile string, passages []types.Passage, autoRewrite bool) {
	text := ComposeDraftText(draft)

	check, err := v.checker.Run(ctx, text, styleProfile)
	if err != nil {
		v.logger.Error("style check failed, continuing without score", "error", err)
		draft.ConsistencyScore = 0
	} else {
		draft.ConsistencyScore = check.ConsistencyScore

		if autoRewrite && check.ConsistencyScore < RewriteThreshold {
			v.rewrite(ctx, draft, check, styleProfile)
			text = ComposeDraftText(draft)
		} else if len(check.CorrectedSections) > 0 {
			// The rewriter did not run; apply the checker's literal
			// replacements directly.
			v.applyCorrections(draft, check.CorrectedSections)
			text = ComposeDraftText(draft)
		}
	}

	result, err := v.detector.Run(ctx, text, passages)
	if err != nil {
		v.logger.Error("hallucination detection failed, continuing without tags", "error", err)
		draft.VerificationConfidence = 0
	} else {
		draft.VerificationConfidence = result.Confidence
		v.tag(draft, result.UnverifiedClaims)
	}

	draft.Refresh()
}

// rewrite replaces the draft's lead and sections from the rewriter
// output. Titles and closing are preserved. A rewrite that loses the
// heading skeleton is discarded.
func (v *Verifier) rewrite(ctx context.Context, draft *types.Draft, check chains.StyleCheckResult, styleProfile string) {
	rewritten, err := v.rewriter.Run(ctx, ComposeDraftText(draft), check, styleProfile)
	if err != nil {
		v.logger.Error("auto rewrite failed, keeping original draft", "error", err)
		return
	}

	lead, sections := ReparseSkeleton(rewritten)
	if len(sections) == 0 {
		v.logger.Error("rewrite output lost the heading skeleton, keeping original draft")
		return
	}
	if lead != "" {
		draft.Lead = lead
	}
	draft.Sections = sections
}

// applyCorrections applies literal replacement pairs to every text
// field except the titles.
func (v *Verifier) applyCorrections(draft *types.Draft, corrections []chains.CorrectedSection) {
	draft.Lead = ApplyCorrections(draft.Lead, corrections)
	for i := range draft.Sections {
		draft.Sections[i].Body = ApplyCorrections(draft.Sections[i].Body, corrections)
	}
	draft.Closing = ApplyCorrections(draft.Closing, corrections)
}

// tag inserts unverified-claim markers into every text field that
// contains a claim.
func (v *Verifier) tag(draft *types.Draft, claims []chains.UnverifiedClaim) {
	if len(claims) == 0 {
		return
	}
	draft.Lead = ApplyTags(draft.Lead, claims)
	for i := range draft.Sections {
		draft.Sections[i].Body = ApplyTags(draft.Sections[i].Body, claims)
	}
	draft.Closing = ApplyTags(draft.Closing, claims)
}
