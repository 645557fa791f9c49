package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArticleType_Valid(t *testing.T) {
	for _, s := range []string{"ANNOUNCEMENT", "EVENT_REPORT", "INTERVIEW", "CULTURE"} {
		at, err := ParseArticleType(s)
		require.NoError(t, err)
		assert.Equal(t, s, string(at))
		assert.True(t, at.Valid())
	}
}

func TestParseArticleType_Unknown(t *testing.T) {
	_, err := ParseArticleType("PRESS_RELEASE")
	assert.Error(t, err)
}

func TestLabelJA(t *testing.T) {
	assert.Equal(t, "アナウンスメント", TypeAnnouncement.LabelJA())
	assert.Equal(t, "イベントレポート", TypeEventReport.LabelJA())
	assert.Equal(t, "インタビュー", TypeInterview.LabelJA())
	assert.Equal(t, "カルチャー/ストーリー", TypeCulture.LabelJA())
}

func TestLabelJA_UnknownFallsThrough(t *testing.T) {
	assert.Equal(t, "WEIRD", ArticleType("WEIRD").LabelJA())
}
