package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	DefaultModel   = "llama3-70b-8192"
	groqBaseURL    = "https://api.groq.com/openai/v1"
	ollamaLocalURL = "http://localhost:11434"
)

// DefaultModels is the model used per provider when none is configured.
var DefaultModels = map[string]string{
	ProviderGroq:   DefaultModel,
	ProviderOpenAI: "gpt-4o-mini",
	ProviderOllama: "llama3:latest",
	ProviderGemini: "gemini-2.0-flash",
}

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("model returned empty response")

// Model is the part of langchaingo's llms.Model the chat engine needs.
type Model interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// ChatConfig represents the configuration for a chat engine.
type ChatConfig struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// ChatEngine sends a system + user prompt pair to a hosted model with fixed sampling.
type ChatEngine struct {
	config ChatConfig
	llm    Model
}

// NewWithConfig creates a ChatEngine backed by the configured provider.
func NewWithConfig(ctx context.Context, config ChatConfig) (*ChatEngine, error) {
	config, err := applyChatDefaults(config)
	if err != nil {
		return nil, err
	}

	var model Model
	switch config.Provider {
	case ProviderGroq, ProviderOpenAI:
		opts := []openai.Option{
			openai.WithToken(config.APIKey),
			openai.WithModel(config.Model),
		}
		baseURL := config.BaseURL
		if baseURL == "" && config.Provider == ProviderGroq {
			baseURL = groqBaseURL
		}
		if baseURL != "" {
			opts = append(opts, openai.WithBaseURL(baseURL))
		}
		model, err = openai.New(opts...)
	case ProviderOllama:
		baseURL := config.BaseURL
		if baseURL == "" {
			baseURL = ollamaLocalURL
		}
		model, err = ollama.New(ollama.WithModel(config.Model), ollama.WithServerURL(baseURL))
	case ProviderGemini:
		model, err = newGeminiModel(ctx, config.APIKey, config.Model)
	default:
		return nil, fmt.Errorf("chat %q: %w", config.Provider, ErrUnknownProvider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &ChatEngine{config: config, llm: model}, nil
}

// NewWithModel wraps an already constructed model.
func NewWithModel(config ChatConfig, model Model) (*ChatEngine, error) {
	if model == nil {
		return nil, errors.New("model is required")
	}
	config, err := applyChatDefaults(config)
	if err != nil {
		return nil, err
	}
	return &ChatEngine{config: config, llm: model}, nil
}

func applyChatDefaults(config ChatConfig) (ChatConfig, error) {
	config.Provider = strings.ToLower(strings.TrimSpace(config.Provider))
	if config.Provider == "" {
		config.Provider = ProviderGroq
	}
	if config.Model == "" {
		config.Model = DefaultModels[config.Provider]
	}
	if config.Temperature == 0 {
		config.Temperature = 0.7
	}
	if config.TopP == 0 {
		config.TopP = 1.0
	}
	if config.Temperature < 0 || config.Temperature > 2 {
		return config, fmt.Errorf("temperature must be between 0 and 2")
	}
	if config.TopP < 0 || config.TopP > 1 {
		return config, fmt.Errorf("top_p must be between 0 and 1")
	}
	if config.MaxTokens < 0 {
		return config, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 1000
	}
	return config, nil
}

// Chat sends one non-streaming request and returns the first non-empty choice.
func (ce *ChatEngine) Chat(ctx context.Context, system, user string) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}

	response, err := ce.llm.GenerateContent(ctx, content, ce.CallOptions()...)
	if err != nil {
		return "", fmt.Errorf("chat error: %w", err)
	}
	if response == nil {
		return "", ErrEmptyResponse
	}

	for _, choice := range response.Choices {
		if choice == nil {
			continue
		}
		if text := strings.TrimSpace(choice.Content); text != "" {
			return text, nil
		}
	}
	return "", ErrEmptyResponse
}

// CallOptions are the sampling parameters sent with every request.
func (ce *ChatEngine) CallOptions() []llms.CallOption {
	return []llms.CallOption{
		llms.WithModel(ce.config.Model),
		llms.WithTemperature(ce.config.Temperature),
		llms.WithTopP(ce.config.TopP),
		llms.WithMaxTokens(ce.config.MaxTokens),
	}
}

func (ce *ChatEngine) Provider() string { return ce.config.Provider }

func (ce *ChatEngine) Model() string { return ce.config.Model }
