package verification

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/chains"
)

func claims(pairs ...string) []chains.UnverifiedClaim {
	var out []chains.UnverifiedClaim
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, chains.UnverifiedClaim{Claim: pairs[i], SuggestedTag: pairs[i+1]})
	}
	return out
}

func TestApplyTags_AfterJapaneseSentence(t *testing.T) {
	text := "当社は2019年に創業しました。現在も成長中です。"
	got := ApplyTags(text, claims("2019年に創業", "創業年"))
	assert.Equal(t, "当社は2019年に創業しました。[要確認: 創業年]現在も成長中です。", got)
}

func TestApplyTags_Idempotent(t *testing.T) {
	text := "当社は2019年に創業しました。"
	cs := claims("2019年に創業", "創業年")

	once := ApplyTags(text, cs)
	twice := ApplyTags(once, cs)
	assert.Equal(t, once, twice)
}

func TestApplyTags_EveryOccurrence(t *testing.T) {
	text := "売上は3倍です。すごい。売上は3倍です。"
	got := ApplyTags(text, claims("売上は3倍", "数値"))
	assert.Equal(t, "売上は3倍です。[要確認: 数値]すごい。売上は3倍です。[要確認: 数値]", got)
}

func TestApplyTags_NewlineBoundary(t *testing.T) {
	text := "売上は3倍になった\n次の行です。"
	got := ApplyTags(text, claims("売上は3倍", "数値"))
	assert.Equal(t, "売上は3倍になった[要確認: 数値]\n次の行です。", got)
}

func TestApplyTags_EnglishPeriodBoundary(t *testing.T) {
	text := "Revenue grew 3x in 2024. More text."
	got := ApplyTags(text, claims("grew 3x", "growth"))
	assert.Equal(t, "Revenue grew 3x in 2024.[要確認: growth] More text.", got)
}

func TestApplyTags_EndOfTextBoundary(t *testing.T) {
	text := "売上は3倍になった"
	got := ApplyTags(text, claims("売上は3倍", "数値"))
	assert.Equal(t, "売上は3倍になった[要確認: 数値]", got)
}

func TestApplyTags_ClaimAbsentLeavesTextAlone(t *testing.T) {
	text := "関係のない文章です。"
	got := ApplyTags(text, claims("2019年に創業", "創業年"))
	assert.Equal(t, text, got)
}

func TestApplyTags_PeriodInsideNumberNotABoundary(t *testing.T) {
	text := "成長率は3.5倍でした。"
	got := ApplyTags(text, claims("3.5倍", "数値"))
	assert.Equal(t, "成長率は3.5倍でした。[要確認: 数値]", got)
}
