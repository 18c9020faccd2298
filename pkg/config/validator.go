package config

import (
	"fmt"
	"net/url"
	"slices"
)

var (
	chatProviders     = []string{"groq", "openai", "ollama", "gemini"}
	embedderProviders = []string{"ollama", "openai", "local"}
	storeBackends     = []string{BackendFile, BackendPGVector}
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate LLM config
	if !slices.Contains(chatProviders, c.LLM.Provider) {
		errors = append(errors, ValidationError{
			Field:   "llm.provider",
			Message: fmt.Sprintf("unknown provider %q", c.LLM.Provider),
		})
	}

	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 8192 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 1 and 8192",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if c.LLM.TopP < 0 || c.LLM.TopP > 1 {
		errors = append(errors, ValidationError{
			Field:   "llm.top_p",
			Message: "top_p must be between 0 and 1",
		})
	}

	if c.LLM.BaseURL != "" && !validURL(c.LLM.BaseURL) {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "invalid base URL",
		})
	}

	// Validate Embedder config
	if !slices.Contains(embedderProviders, c.Embedder.Provider) {
		errors = append(errors, ValidationError{
			Field:   "embedder.provider",
			Message: fmt.Sprintf("unknown provider %q", c.Embedder.Provider),
		})
	}

	if c.Embedder.Provider == "openai" && c.Embedder.APIKey == "" {
		errors = append(errors, ValidationError{
			Field:   "embedder.api_key",
			Message: "api key is required, set OPENAI_API_KEY",
		})
	}

	if c.Embedder.BaseURL != "" && !validURL(c.Embedder.BaseURL) {
		errors = append(errors, ValidationError{
			Field:   "embedder.base_url",
			Message: "invalid base URL",
		})
	}

	if c.Embedder.Dimension < 1 {
		errors = append(errors, ValidationError{
			Field:   "embedder.dimension",
			Message: "dimension must be positive",
		})
	}

	if c.Embedder.BatchSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "embedder.batch_size",
			Message: "batch_size must be positive",
		})
	}

	// Validate Store config
	if !slices.Contains(storeBackends, c.Store.Backend) {
		errors = append(errors, ValidationError{
			Field:   "store.backend",
			Message: fmt.Sprintf("unknown backend %q", c.Store.Backend),
		})
	}

	if c.Store.Backend == BackendPGVector && !validURL(c.Store.DatabaseURL) {
		errors = append(errors, ValidationError{
			Field:   "store.database_url",
			Message: "a valid database URL is required for the pgvector backend",
		})
	}

	if c.Store.VectorDim < 1 {
		errors = append(errors, ValidationError{
			Field:   "store.vector_dim",
			Message: "vector_dim must be positive",
		})
	}

	// Validate Processor config
	if c.Processor.ChunkSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "processor.chunk_size",
			Message: "chunk_size must be positive",
		})
	}

	if overlap := c.Processor.Overlap(); overlap < 0 || overlap >= c.Processor.ChunkSize {
		errors = append(errors, ValidationError{
			Field:   "processor.chunk_overlap",
			Message: "chunk_overlap must be non-negative and less than chunk_size",
		})
	}

	// Validate Retrieval config
	if c.Retrieval.K < 1 || c.Retrieval.ScoreK < 1 {
		errors = append(errors, ValidationError{
			Field:   "retrieval.k",
			Message: "k and score_k must be positive",
		})
	}

	// Validate Scraper config
	if c.Scraper.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "scraper.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	return errors
}

// ValidateChat checks what generation needs on top of Validate.
func (c *Config) ValidateChat() []ValidationError {
	if name := apiKeyEnv(c.LLM.Provider); name != "" && c.LLM.APIKey == "" {
		return []ValidationError{{
			Field:   "llm.api_key",
			Message: fmt.Sprintf("api key is required, set %s", name),
		}}
	}
	return nil
}
