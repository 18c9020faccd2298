package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"google.golang.org/genai"
)

// geminiModel adapts the Google GenAI client to the Model interface.
type geminiModel struct {
	client    *genai.Client
	modelName string
}

func newGeminiModel(ctx context.Context, apiKey, model string) (*geminiModel, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &geminiModel{client: client, modelName: model}, nil
}

func (g *geminiModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, opt := range options {
		opt(&opts)
	}

	model := g.modelName
	if opts.Model != "" {
		model = opts.Model
	}

	system, contents := splitMessages(messages)
	if len(contents) == 0 {
		return nil, errors.New("prompt must not be empty")
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, contents, geminiConfig(system, opts))
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: builder.String()}},
	}, nil
}

func geminiConfig(system string, opts llms.CallOptions) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(opts.Temperature)),
		TopP:            genai.Ptr(float32(opts.TopP)),
		MaxOutputTokens: int32(opts.MaxTokens),
	}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	return cfg
}

// splitMessages moves system text into the system instruction and maps the rest to
// user/model turns.
func splitMessages(messages []llms.MessageContent) (string, []*genai.Content) {
	var system []string
	var contents []*genai.Content

	for _, msg := range messages {
		text := messageText(msg)
		if text == "" {
			continue
		}
		switch msg.Role {
		case llms.ChatMessageTypeSystem:
			system = append(system, text)
		case llms.ChatMessageTypeAI:
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: text}}})
		default:
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{Text: text}}})
		}
	}

	return strings.Join(system, "\n\n"), contents
}

func messageText(msg llms.MessageContent) string {
	var parts []string
	for _, part := range msg.Parts {
		if tc, ok := part.(llms.TextContent); ok && strings.TrimSpace(tc.Text) != "" {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
