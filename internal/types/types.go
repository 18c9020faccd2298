package types

import (
	"context"

	"github.com/xhad/coverletter/internal/models"
)

// Index is a searchable collection of chunk embeddings for one document.
type Index interface {
	Name() string
	Len() int
	// Search returns up to k chunks ordered by ascending cosine distance.
	Search(ctx context.Context, vector []float32, k int) ([]models.Match, error)
}

// IndexStore hands out indexes by name, building and persisting them on a miss.
type IndexStore interface {
	LoadOrBuild(ctx context.Context, text, name string) (Index, error)
	Remove(ctx context.Context, name string) error
}

// Embedder is satisfied by langchaingo's embeddings.Embedder.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Splitter turns text into bounded chunks.
type Splitter interface {
	Split(text string) ([]string, error)
}
