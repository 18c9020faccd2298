package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
	ProviderLocal  = "local"
)

// ErrUnknownProvider is returned for a provider name no constructor exists for.
var ErrUnknownProvider = errors.New("unknown provider")

// EmbedderConfig selects and configures the embedding model.
type EmbedderConfig struct {
	Provider  string
	Model     string
	BaseURL   string // Ollama server URL or OpenAI-compatible endpoint
	APIKey    string
	Dimension int // local provider only
	BatchSize int
}

// NewEmbedderWithConfig returns a langchaingo embedder for the configured provider.
func NewEmbedderWithConfig(config EmbedderConfig) (embeddings.Embedder, error) {
	if config.Provider == "" {
		config.Provider = ProviderOllama
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 32
	}

	switch strings.ToLower(config.Provider) {
	case ProviderOllama:
		if config.Model == "" {
			config.Model = "nomic-embed-text:latest"
		}
		if config.BaseURL == "" {
			config.BaseURL = "http://localhost:11434"
		}
		client, err := ollama.New(
			ollama.WithModel(config.Model),
			ollama.WithServerURL(config.BaseURL),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ollama embedder: %w", err)
		}
		return newEmbedder(client, config)

	case ProviderOpenAI:
		if config.Model == "" {
			config.Model = "text-embedding-3-small"
		}
		opts := []openai.Option{
			openai.WithToken(config.APIKey),
			openai.WithEmbeddingModel(config.Model),
		}
		if config.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(config.BaseURL))
		}
		client, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize openai embedder: %w", err)
		}
		return newEmbedder(client, config)

	case ProviderLocal:
		return NewLocalEmbedder(config.Dimension), nil

	default:
		return nil, fmt.Errorf("embedder %q: %w", config.Provider, ErrUnknownProvider)
	}
}

func newEmbedder(client embeddings.EmbedderClient, config EmbedderConfig) (embeddings.Embedder, error) {
	emb, err := embeddings.NewEmbedder(client, embeddings.WithBatchSize(config.BatchSize))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return emb, nil
}
