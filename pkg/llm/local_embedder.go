package llm

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

const defaultLocalDimension = 1024

// LocalEmbedder is an offline bag-of-words embedder. Tokens are hashed into a fixed
// number of buckets and the vector is L2-normalized, so cosine similarity reflects
// shared vocabulary. It needs no model server and always yields the same vector for
// the same text.
type LocalEmbedder struct {
	dimension int
	token     *regexp.Regexp
	stopwords map[string]struct{}
}

func NewLocalEmbedder(dimension int) *LocalEmbedder {
	if dimension <= 0 {
		dimension = defaultLocalDimension
	}
	return &LocalEmbedder{
		dimension: dimension,
		token:     regexp.MustCompile(`[\p{L}\p{N}]+`),
		stopwords: stopwords(),
	}
}

func (e *LocalEmbedder) Dimension() int { return e.dimension }

func (e *LocalEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vectors = append(vectors, e.embed(text))
	}
	return vectors, nil
}

func (e *LocalEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.embed(text), nil
}

func (e *LocalEmbedder) embed(text string) []float32 {
	vec := make([]float32, e.dimension)
	for _, tok := range e.tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[h.Sum32()%uint32(e.dimension)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

func (e *LocalEmbedder) tokenize(text string) []string {
	raw := e.token.FindAllString(strings.ToLower(text), -1)
	tokens := raw[:0]
	for _, tok := range raw {
		if utf8.RuneCountInString(tok) < 3 {
			continue
		}
		if _, skip := e.stopwords[tok]; skip {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func stopwords() map[string]struct{} {
	words := []string{
		"and", "are", "the", "for", "from", "has", "have", "its", "that", "this", "was",
		"were", "will", "with", "what", "which", "who", "you", "your", "our", "their",
		"into", "about", "than", "then", "they", "been", "being", "but", "not", "all",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
