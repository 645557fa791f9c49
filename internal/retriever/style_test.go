package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagomu-no-sunaba/etude-rag2/internal/types"
)

type fakeStyles struct {
	profile    string
	hasProfile bool
	profileErr error
	excerpts   []types.StyleRecord
	excerptErr error
}

func (f *fakeStyles) StyleProfile(ctx context.Context, cat types.ArticleType) (string, bool, error) {
	return f.profile, f.hasProfile, f.profileErr
}

func (f *fakeStyles) StyleExcerpts(ctx context.Context, vec []float32, cat types.ArticleType, limit int) ([]types.StyleRecord, error) {
	if f.excerptErr != nil {
		return nil, f.excerptErr
	}
	if len(f.excerpts) > limit {
		return f.excerpts[:limit], nil
	}
	return f.excerpts, nil
}

func excerptRecords(bodies ...string) []types.StyleRecord {
	out := make([]types.StyleRecord, len(bodies))
	for i, b := range bodies {
		out[i] = types.StyleRecord{ID: b, Kind: types.StyleKindExcerpt, Body: b}
	}
	return out
}

func TestRetrieveProfile(t *testing.T) {
	s := NewStyleRetriever(&fakeEmbedder{}, &fakeStyles{profile: "語尾はです・ます", hasProfile: true}, nil)

	got, err := s.RetrieveProfile(context.Background(), types.TypeInterview)
	require.NoError(t, err)
	assert.Equal(t, "語尾はです・ます", got)
}

func TestRetrieveProfile_MissingIsEmptyString(t *testing.T) {
	s := NewStyleRetriever(&fakeEmbedder{}, &fakeStyles{}, nil)

	got, err := s.RetrieveProfile(context.Background(), types.TypeCulture)
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestRetrieveProfile_InvariantViolationSurfaces(t *testing.T) {
	dup := types.NewError(types.KindInvariant, "multiple style profiles", nil)
	s := NewStyleRetriever(&fakeEmbedder{}, &fakeStyles{profileErr: dup}, nil)

	_, err := s.RetrieveProfile(context.Background(), types.TypeCulture)
	assert.True(t, types.IsKind(err, types.KindInvariant))
}

func TestRetrieveExcerpts_NoReranker(t *testing.T) {
	styles := &fakeStyles{excerpts: excerptRecords("e1", "e2", "e3", "e4")}
	s := NewStyleRetriever(&fakeEmbedder{}, styles, nil)

	got, err := s.RetrieveExcerpts(context.Background(), "リモートワーク", types.TypeCulture, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"e1", "e2"}, got)
}

func TestRetrieveExcerpts_DeduplicatesByID(t *testing.T) {
	styles := &fakeStyles{excerpts: append(excerptRecords("e1"), excerptRecords("e1", "e2")...)}
	s := NewStyleRetriever(&fakeEmbedder{}, styles, nil)

	got, err := s.RetrieveExcerpts(context.Background(), "テーマ", types.TypeCulture, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"e1", "e2"}, got)
}

func TestRetrieveExcerpts_RerankerKeepsTopK(t *testing.T) {
	styles := &fakeStyles{excerpts: excerptRecords("e1", "e2", "e3")}
	rr := &fakeReranker{scores: []float64{0.1, 2.0, 1.0}}
	s := NewStyleRetriever(&fakeEmbedder{}, styles, rr)

	got, err := s.RetrieveExcerpts(context.Background(), "テーマ", types.TypeCulture, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"e2", "e3"}, got)
}

func TestRetrieveExcerpts_StoreFailureIsRetrieval(t *testing.T) {
	styles := &fakeStyles{excerptErr: errors.New("down")}
	s := NewStyleRetriever(&fakeEmbedder{}, styles, nil)

	_, err := s.RetrieveExcerpts(context.Background(), "テーマ", types.TypeCulture, 2)
	assert.True(t, types.IsKind(err, types.KindRetrieval))
}
