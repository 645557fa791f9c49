package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/chains"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/types"
	"github.com/wagomu-no-sunaba/etude-rag2/internal/verification"
)

// announcementSection writes bodies grounded in the release date plus
// one claim the corpus cannot verify.
type announcementSection struct{}

func (announcementSection) Run(ctx context.Context, spec types.OutlineSection, in types.StructuredInput, ja string, passages []types.Passage, profile string) (types.Section, error) {
	body := "新サービス「X」を2025-03-01にリリースします。対象はBtoB顧客です。"
	if spec.Title == "今後の展開" {
		body = "当社は2019年に創業しました。今後も挑戦を続けます。"
	}
	return types.Section{Heading: spec.Title, Body: body}, nil
}

type scriptedChecker struct{ score float64 }

func (s scriptedChecker) Run(ctx context.Context, text, profile string) (chains.StyleCheckResult, error) {
	return chains.StyleCheckResult{ConsistencyScore: s.score}, nil
}

type scriptedDetector struct{}

func (scriptedDetector) Run(ctx context.Context, text string, passages []types.Passage) (chains.HallucinationResult, error) {
	return chains.HallucinationResult{
		Confidence: 0.85,
		UnverifiedClaims: []chains.UnverifiedClaim{
			{Claim: "2019年に創業", Reason: "素材に根拠なし", SuggestedTag: "創業年"},
		},
	}, nil
}

type noopRewriter struct{}

func (noopRewriter) Run(ctx context.Context, text string, check chains.StyleCheckResult, profile string) (string, error) {
	return text, nil
}

func TestGenerate_AnnouncementEndToEnd(t *testing.T) {
	deps, _, _, _, _ := testDeps()
	deps.Section = announcementSection{}
	deps.Outline = &fakeOutline{outline: types.Outline{
		Sections: []types.OutlineSection{
			{Level: types.LevelH2, Title: "概要"},
			{Level: types.LevelH2, Title: "今後の展開"},
		},
		TotalTargetLength: 1500,
	}}
	deps.Verifier = verification.NewVerifier(
		scriptedChecker{score: 0.9},
		noopRewriter{},
		scriptedDetector{},
		nil,
	)
	p := NewFromDeps(deps, testConfig(), nil)

	events := make(chan Event, 32)
	done := make(chan struct{})
	var result *Result
	go func() {
		defer close(done)
		result, _ = p.Generate(context.Background(), "新サービス 'X' を 2025-03-01 にリリースします。対象: BtoB 顧客。", "auto", events)
	}()
	got := collectEvents(t, events, done)
	<-done
	require.NotNil(t, result)

	// Exactly three titles, announcement category
	assert.Len(t, result.Draft.Titles, 3)
	assert.Equal(t, types.TypeAnnouncement, result.Draft.Category)

	// At least one section carries the release date
	var dated bool
	for _, s := range result.Draft.Sections {
		if strings.Contains(s.Body, "2025-03-01") {
			dated = true
		}
	}
	assert.True(t, dated)

	// The ungrounded claim is tagged right after its sentence
	assert.Contains(t, result.Draft.Sections[1].Body, "2019年に創業しました。[要確認: 創業年]")
	assert.Equal(t, 1, result.Draft.TagCount)
	assert.Contains(t, result.Markdown, "- [要確認]タグ: 1箇所")
	assert.Contains(t, result.Markdown, "- 記事カテゴリ: アナウンスメント")

	// Progress percentages strictly non-decreasing, complete last
	last := 0
	for _, ev := range got[:len(got)-1] {
		require.Equal(t, EventProgress, ev.Type)
		assert.GreaterOrEqual(t, ev.Progress.Percentage, last)
		last = ev.Progress.Percentage
	}
	assert.Equal(t, EventComplete, got[len(got)-1].Type)

	// Derived length matches the invariant
	assert.Equal(t, result.Draft.CalculateLength(), result.Draft.ActualLength)
}
