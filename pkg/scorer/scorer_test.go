package scorer_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/coverletter/internal/models"
	"github.com/xhad/coverletter/internal/types"
	"github.com/xhad/coverletter/pkg/llm"
	"github.com/xhad/coverletter/pkg/processor"
	"github.com/xhad/coverletter/pkg/retriever"
	"github.com/xhad/coverletter/pkg/scorer"
	"github.com/xhad/coverletter/pkg/store"
)

func newPipeline(t *testing.T) (*store.FileStore, *scorer.Scorer) {
	t.Helper()
	p, err := processor.NewWithConfig(processor.ProcessorConfig{ChunkSize: 60})
	require.NoError(t, err)
	emb := llm.NewLocalEmbedder(1024)

	fs, err := store.NewFileStore(store.FileStoreConfig{Path: t.TempDir()}, p, emb, nil)
	require.NoError(t, err)
	r, err := retriever.New(emb)
	require.NoError(t, err)
	s, err := scorer.NewWithConfig(scorer.ScorerConfig{}, r, p)
	require.NoError(t, err)
	return fs, s
}

func TestScorer_Score(t *testing.T) {
	fs, s := newPipeline(t)
	ctx := context.Background()

	resume, err := fs.LoadOrBuild(ctx, "5 years of experience with distributed systems and Go", "resume")
	require.NoError(t, err)
	jd, err := fs.LoadOrBuild(ctx, "experience with distributed systems\nfamiliarity with watercolor painting", "jd")
	require.NoError(t, err)

	scores, err := s.Score(ctx, resume, jd)
	require.NoError(t, err)
	require.Len(t, scores, 2)

	distributed := scores["experience with distributed systems"]
	watercolor := scores["familiarity with watercolor painting"]
	assert.InDelta(t, 86.6, distributed, 0.01)
	assert.Greater(t, distributed, 70.0)
	assert.Less(t, watercolor, distributed)

	for statement, score := range scores {
		assert.GreaterOrEqual(t, score, 0.0, statement)
		assert.LessOrEqual(t, score, 100.0, statement)
	}

	ranked := scorer.Ranked(scores)
	require.Len(t, ranked, 2)
	assert.Equal(t, "experience with distributed systems", ranked[0].Statement)
}

func TestScorer_EmptyResume(t *testing.T) {
	fs, s := newPipeline(t)
	ctx := context.Background()

	resume, err := fs.LoadOrBuild(ctx, "   ", "resume")
	require.NoError(t, err)
	jd, err := fs.LoadOrBuild(ctx, "experience with distributed systems", "jd")
	require.NoError(t, err)

	scores, err := s.Score(ctx, resume, jd)
	require.NoError(t, err)
	assert.Empty(t, scores)
}

type failingSearcher struct{}

func (failingSearcher) Query(context.Context, types.Index, string, int) (string, error) {
	return "", errors.New("jd index unavailable")
}

func (failingSearcher) Nearest(context.Context, types.Index, string) (models.Match, bool, error) {
	return models.Match{}, false, nil
}

func TestScorer_SearchError(t *testing.T) {
	p, err := processor.NewWithConfig(processor.ProcessorConfig{})
	require.NoError(t, err)
	s, err := scorer.NewWithConfig(scorer.ScorerConfig{}, failingSearcher{}, p)
	require.NoError(t, err)

	_, err = s.Score(context.Background(), nil, nil)
	assert.ErrorContains(t, err, "jd index unavailable")
}

func TestPercent(t *testing.T) {
	tests := []struct {
		distance float64
		want     float64
	}{
		{0, 100},
		{1, 0},
		{2, 0},
		{-0.5, 100},
		{0.12344, 87.66},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, scorer.Percent(tt.distance), "distance %v", tt.distance)
	}
}

func TestRanked(t *testing.T) {
	ranked := scorer.Ranked(models.ScoreSet{
		"kubernetes": 55.5,
		"go":         90,
		"aws":        55.5,
	})
	assert.Equal(t, []scorer.RankedScore{
		{Statement: "go", Score: 90},
		{Statement: "aws", Score: 55.5},
		{Statement: "kubernetes", Score: 55.5},
	}, ranked)
	assert.Empty(t, scorer.Ranked(nil))
}

func TestNewWithConfig(t *testing.T) {
	p, err := processor.NewWithConfig(processor.ProcessorConfig{})
	require.NoError(t, err)

	_, err = scorer.NewWithConfig(scorer.ScorerConfig{}, nil, p)
	assert.Error(t, err)
	_, err = scorer.NewWithConfig(scorer.ScorerConfig{}, failingSearcher{}, nil)
	assert.Error(t, err)
}
