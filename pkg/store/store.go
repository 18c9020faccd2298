package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xhad/coverletter/internal/types"
)

// ErrCorruptIndex marks a persisted index that could not be decoded or validated.
var ErrCorruptIndex = errors.New("corrupt index")

// builder turns raw document text into chunks and their embeddings.
type builder struct {
	splitter types.Splitter
	embedder types.Embedder
}

func newBuilder(splitter types.Splitter, embedder types.Embedder) (builder, error) {
	if splitter == nil {
		return builder{}, errors.New("splitter is required")
	}
	if embedder == nil {
		return builder{}, errors.New("embedder is required")
	}
	return builder{splitter: splitter, embedder: embedder}, nil
}

func (b builder) chunkAndEmbed(ctx context.Context, text string) ([]string, [][]float32, error) {
	chunks, err := b.splitter.Split(text)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to chunk text: %w", err)
	}
	if len(chunks) == 0 {
		return nil, nil, nil
	}

	vectors, err := b.embedder.EmbedDocuments(ctx, chunks)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}
	return chunks, vectors, nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("index name is required")
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid index name %q", name)
	}
	return nil
}
