package store

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/xhad/coverletter/internal/models"
)

// Index is an in-memory flat index searched by exact cosine distance.
type Index struct {
	name      string
	dimension int
	chunks    []string
	vectors   [][]float32
	norms     []float64
}

// NewIndex checks that every chunk has a vector and that all vectors share one dimension.
func NewIndex(name string, chunks []string, vectors [][]float32) (*Index, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("chunks and vectors length mismatch: %d != %d", len(chunks), len(vectors))
	}

	ix := &Index{
		name:    name,
		chunks:  chunks,
		vectors: vectors,
		norms:   make([]float64, len(vectors)),
	}
	for i, v := range vectors {
		if i == 0 {
			ix.dimension = len(v)
		}
		if len(v) == 0 || len(v) != ix.dimension {
			return nil, fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), ix.dimension)
		}
		ix.norms[i] = norm(v)
	}
	return ix, nil
}

func (ix *Index) Name() string { return ix.name }

func (ix *Index) Len() int { return len(ix.chunks) }

func (ix *Index) Dimension() int { return ix.dimension }

// Search returns up to k chunks by ascending cosine distance. Ties keep insertion order.
func (ix *Index) Search(ctx context.Context, vector []float32, k int) ([]models.Match, error) {
	if k <= 0 || len(ix.chunks) == 0 {
		return nil, nil
	}
	if len(vector) != ix.dimension {
		return nil, fmt.Errorf("query dimension %d does not match index %q dimension %d",
			len(vector), ix.name, ix.dimension)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	qnorm := norm(vector)
	matches := make([]models.Match, len(ix.chunks))
	for i, v := range ix.vectors {
		matches[i] = models.Match{
			Content:  ix.chunks[i],
			Distance: 1 - cosine(vector, v, qnorm, ix.norms[i]),
		}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Distance < matches[b].Distance
	})

	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k], nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine is 0 when either vector has zero length.
func cosine(a, b []float32, na, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (na * nb)
}
