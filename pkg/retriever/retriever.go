package retriever

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xhad/coverletter/internal/models"
	"github.com/xhad/coverletter/internal/types"
)

const DefaultK = 3

// Retriever answers natural-language queries against an index.
type Retriever struct {
	embedder types.Embedder
}

func New(embedder types.Embedder) (*Retriever, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	return &Retriever{embedder: embedder}, nil
}

// Search returns the k chunks closest to query. k <= 0 means DefaultK.
func (r *Retriever) Search(ctx context.Context, index types.Index, query string, k int) ([]models.Match, error) {
	if index == nil {
		return nil, errors.New("index is required")
	}
	if k <= 0 {
		k = DefaultK
	}
	if index.Len() == 0 {
		return nil, nil
	}

	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := index.Search(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", index.Name(), err)
	}
	return matches, nil
}

// Query joins the content of the k closest chunks with newlines, closest first.
func (r *Retriever) Query(ctx context.Context, index types.Index, query string, k int) (string, error) {
	matches, err := r.Search(ctx, index, query, k)
	if err != nil {
		return "", err
	}

	contents := make([]string, len(matches))
	for i, m := range matches {
		contents[i] = m.Content
	}
	return strings.Join(contents, "\n"), nil
}

// Nearest returns the single closest chunk. ok is false when the index is empty.
func (r *Retriever) Nearest(ctx context.Context, index types.Index, text string) (match models.Match, ok bool, err error) {
	matches, err := r.Search(ctx, index, text, 1)
	if err != nil || len(matches) == 0 {
		return models.Match{}, false, err
	}
	return matches[0], true, nil
}
