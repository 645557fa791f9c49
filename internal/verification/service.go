package verification

import (
	"context"
	"fmt"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/chains"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/types"
)

// ProfileSource resolves the rulebook used as the style baseline.
type ProfileSource interface {
	RetrieveProfile(ctx context.Context, category types.ArticleType) (string, error)
}

// PassageSource resolves reference passages for fact checking.
type PassageSource interface {
	Search(ctx context.Context, queryText string, category types.ArticleType) ([]types.Passage, error)
}

// Service exposes the verification sub-operations directly, backing the
// standalone verify endpoint.
type Service struct {
	checker  StyleCheckChain
	detector DetectChain
	profiles ProfileSource
	passages PassageSource
}

// NewService wires the verify service.
func NewService(checker StyleCheckChain, detector DetectChain, profiles ProfileSource, passages PassageSource) *Service {
	return &Service{checker: checker, detector: detector, profiles: profiles, passages: passages}
}

// Verify style-checks and fact-checks an arbitrary draft text against
// the category's rulebook and corpus. Unlike in-pipeline verification
// this surfaces chain failures to the caller.
func (s *Service) Verify(ctx context.Context, draftText string, category types.ArticleType) (chains.StyleCheckResult, chains.HallucinationResult, error) {
	profile := ""
	if s.profiles != nil {
		p, err := s.profiles.RetrieveProfile(ctx, category)
		if err != nil {
			return chains.StyleCheckResult{}, chains.HallucinationResult{}, fmt.Errorf("profile lookup: %w", err)
		}
		profile = p
	}

	check, err := s.checker.Run(ctx, draftText, profile)
	if err != nil {
		return chains.StyleCheckResult{}, chains.HallucinationResult{}, fmt.Errorf("style check: %w", err)
	}

	var refs []types.Passage
	if s.passages != nil {
		refs, err = s.passages.Search(ctx, draftText, category)
		if err != nil {
			return chains.StyleCheckResult{}, chains.HallucinationResult{}, fmt.Errorf("reference search: %w", err)
		}
	}

	detection, err := s.detector.Run(ctx, draftText, refs)
	if err != nil {
		return chains.StyleCheckResult{}, chains.HallucinationResult{}, fmt.Errorf("hallucination detection: %w", err)
	}

	return check, detection, nil
}
