package llm_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/coverletter/pkg/llm"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestLocalEmbedder(t *testing.T) {
	emb := llm.NewLocalEmbedder(0)
	assert.Equal(t, 1024, emb.Dimension())

	ctx := context.Background()
	docs, err := emb.EmbedDocuments(ctx, []string{
		"5 years of experience with distributed systems and Go",
		"Watercolor painting and gallery exhibitions",
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	query, err := emb.EmbedQuery(ctx, "experience with distributed systems")
	require.NoError(t, err)
	require.Len(t, query, 1024)

	assert.InDelta(t, 1.0, cosine(docs[0], docs[0]), 1e-5)
	assert.Greater(t, cosine(query, docs[0]), 0.7)
	assert.Greater(t, cosine(query, docs[0]), cosine(query, docs[1]))

	again, err := emb.EmbedQuery(ctx, "experience with distributed systems")
	require.NoError(t, err)
	assert.Equal(t, query, again)
}

func TestLocalEmbedder_EmptyText(t *testing.T) {
	emb := llm.NewLocalEmbedder(16)

	vec, err := emb.EmbedQuery(context.Background(), "a an of")
	require.NoError(t, err)
	assert.Len(t, vec, 16)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestLocalEmbedder_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := llm.NewLocalEmbedder(8).EmbedDocuments(ctx, []string{"text"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewEmbedderWithConfig(t *testing.T) {
	emb, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{Provider: llm.ProviderLocal, Dimension: 64})
	require.NoError(t, err)
	vec, err := emb.EmbedQuery(context.Background(), "golang")
	require.NoError(t, err)
	assert.Len(t, vec, 64)

	emb, err = llm.NewEmbedderWithConfig(llm.EmbedderConfig{})
	require.NoError(t, err)
	assert.NotNil(t, emb)

	emb, err = llm.NewEmbedderWithConfig(llm.EmbedderConfig{Provider: llm.ProviderOpenAI, APIKey: "test-key"})
	require.NoError(t, err)
	assert.NotNil(t, emb)

	_, err = llm.NewEmbedderWithConfig(llm.EmbedderConfig{Provider: "word2vec"})
	assert.ErrorIs(t, err, llm.ErrUnknownProvider)
}
