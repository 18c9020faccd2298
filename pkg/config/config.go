package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xhad/coverletter/pkg/llm"
)

const (
	BackendFile     = "file"
	BackendPGVector = "pgvector"
)

type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	TopP        float64 `yaml:"top_p"`
}

type EmbedderConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
}

type StoreConfig struct {
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	DatabaseURL string `yaml:"database_url"`
	TablePrefix string `yaml:"table_prefix"`
	VectorDim   int    `yaml:"vector_dim"`
}

type ProcessorConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	// ChunkOverlap is nil when unset so an explicit 0 survives defaulting.
	ChunkOverlap *int `yaml:"chunk_overlap"`
}

// Overlap returns the configured overlap, 0 when unset.
func (p ProcessorConfig) Overlap() int {
	if p.ChunkOverlap == nil {
		return 0
	}
	return *p.ChunkOverlap
}

type RetrievalConfig struct {
	K          int    `yaml:"k"`
	ScoreK     int    `yaml:"score_k"`
	ScoreQuery string `yaml:"score_query"`
}

type ScraperConfig struct {
	RateLimit float64       `yaml:"rate_limit"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
	Selectors []string      `yaml:"selectors"`
}

type LogConfig struct {
	JSON  bool `yaml:"json"`
	Debug bool `yaml:"debug"`
}

type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Store     StoreConfig     `yaml:"store"`
	Processor ProcessorConfig `yaml:"processor"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Scraper   ScraperConfig   `yaml:"scraper"`
	Log       LogConfig       `yaml:"log"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/coverletter/config.yaml"),
			"/etc/coverletter/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Provider names decide which env vars apply, so defaults go first.
	applyDefaults(&config)
	mergeWithEnv(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	applyDefaults(config)
	mergeWithEnv(config)
	return config, nil
}

func applyDefaults(config *Config) {
	config.LLM.Provider = strings.ToLower(strings.TrimSpace(config.LLM.Provider))
	if config.LLM.Provider == "" {
		config.LLM.Provider = "groq"
	}
	if config.LLM.Model == "" {
		config.LLM.Model = llm.DefaultModels[config.LLM.Provider]
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 1000
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.7
	}
	if config.LLM.TopP == 0 {
		config.LLM.TopP = 1.0
	}

	config.Embedder.Provider = strings.ToLower(strings.TrimSpace(config.Embedder.Provider))
	if config.Embedder.Provider == "" {
		config.Embedder.Provider = "ollama"
	}
	if config.Embedder.Dimension == 0 {
		config.Embedder.Dimension = 1024
	}
	if config.Embedder.BatchSize == 0 {
		config.Embedder.BatchSize = 32
	}

	config.Store.Backend = strings.ToLower(strings.TrimSpace(config.Store.Backend))
	if config.Store.Backend == "" {
		config.Store.Backend = BackendFile
	}
	if config.Store.Path == "" {
		config.Store.Path = "vector_indices"
	}
	if config.Store.TablePrefix == "" {
		config.Store.TablePrefix = "coverletter"
	}
	if config.Store.VectorDim == 0 {
		config.Store.VectorDim = 768
	}

	if config.Processor.ChunkSize == 0 {
		config.Processor.ChunkSize = 500
	}
	if config.Processor.ChunkOverlap == nil {
		overlap := 50
		config.Processor.ChunkOverlap = &overlap
	}

	if config.Retrieval.K == 0 {
		config.Retrieval.K = 3
	}
	if config.Retrieval.ScoreK == 0 {
		config.Retrieval.ScoreK = 5
	}
	if config.Retrieval.ScoreQuery == "" {
		config.Retrieval.ScoreQuery = "What are the specific requirements and qualifications?"
	}

	if config.Scraper.RateLimit == 0 {
		config.Scraper.RateLimit = 2.0
	}
	if config.Scraper.Timeout == 0 {
		config.Scraper.Timeout = 30 * time.Second
	}
}

// apiKeyEnv names the env var holding the key for a hosted provider.
func apiKeyEnv(provider string) string {
	switch provider {
	case "groq":
		return "GROQ_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "gemini":
		return "GEMINI_API_KEY"
	}
	return ""
}

func mergeWithEnv(config *Config) {
	if name := apiKeyEnv(config.LLM.Provider); name != "" {
		if key := os.Getenv(name); key != "" {
			config.LLM.APIKey = key
		}
	}
	if name := apiKeyEnv(config.Embedder.Provider); name != "" {
		if key := os.Getenv(name); key != "" {
			config.Embedder.APIKey = key
		}
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		if config.LLM.Provider == "ollama" {
			config.LLM.BaseURL = baseURL
		}
		if config.Embedder.Provider == "ollama" {
			config.Embedder.BaseURL = baseURL
		}
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Store.DatabaseURL = dbURL
	}
	if path := os.Getenv("COVERLETTER_INDEX_PATH"); path != "" {
		config.Store.Path = path
	}
}
