package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/xhad/coverletter/pkg/llm"
)

type fakeModel struct {
	response *llms.ContentResponse
	err      error

	messages []llms.MessageContent
	options  llms.CallOptions
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, opt := range options {
		opt(&f.options)
	}
	return f.response, f.err
}

func textResponse(texts ...string) *llms.ContentResponse {
	resp := &llms.ContentResponse{}
	for _, text := range texts {
		resp.Choices = append(resp.Choices, &llms.ContentChoice{Content: text})
	}
	return resp
}

func TestChatEngine_Chat(t *testing.T) {
	model := &fakeModel{response: textResponse("", "  Subject: Application  ")}
	engine, err := llm.NewWithModel(llm.ChatConfig{}, model)
	require.NoError(t, err)

	out, err := engine.Chat(context.Background(), "system prompt", "user prompt")
	require.NoError(t, err)
	assert.Equal(t, "Subject: Application", out)

	require.Len(t, model.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[1].Role)
	assert.Equal(t, "user prompt", model.messages[1].Parts[0].(llms.TextContent).Text)

	assert.Equal(t, llm.DefaultModel, model.options.Model)
	assert.Equal(t, 0.7, model.options.Temperature)
	assert.Equal(t, 1.0, model.options.TopP)
	assert.Equal(t, 1000, model.options.MaxTokens)
	assert.Nil(t, model.options.StreamingFunc)
}

func TestChatEngine_ChatErrors(t *testing.T) {
	boom := errors.New("quota exceeded")

	tests := []struct {
		name  string
		model *fakeModel
		want  error
	}{
		{"provider error", &fakeModel{err: boom}, boom},
		{"nil response", &fakeModel{}, llm.ErrEmptyResponse},
		{"blank choices", &fakeModel{response: textResponse(" ", "\n")}, llm.ErrEmptyResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, err := llm.NewWithModel(llm.ChatConfig{}, tt.model)
			require.NoError(t, err)

			out, err := engine.Chat(context.Background(), "s", "u")
			assert.Empty(t, out)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewWithModel_Validation(t *testing.T) {
	_, err := llm.NewWithModel(llm.ChatConfig{}, nil)
	assert.Error(t, err)

	_, err = llm.NewWithModel(llm.ChatConfig{Temperature: 3}, &fakeModel{})
	assert.Error(t, err)

	_, err = llm.NewWithModel(llm.ChatConfig{TopP: 1.5}, &fakeModel{})
	assert.Error(t, err)

	_, err = llm.NewWithModel(llm.ChatConfig{MaxTokens: -1}, &fakeModel{})
	assert.Error(t, err)

	engine, err := llm.NewWithModel(llm.ChatConfig{Provider: " OpenAI ", Model: "gpt-4o"}, &fakeModel{})
	require.NoError(t, err)
	assert.Equal(t, "openai", engine.Provider())
	assert.Equal(t, "gpt-4o", engine.Model())
}

func TestNewWithModel_DefaultModelPerProvider(t *testing.T) {
	tests := []struct {
		provider string
		want     string
	}{
		{"", "llama3-70b-8192"},
		{llm.ProviderGroq, "llama3-70b-8192"},
		{llm.ProviderOpenAI, "gpt-4o-mini"},
		{llm.ProviderOllama, "llama3:latest"},
		{"Gemini", "gemini-2.0-flash"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			model := &fakeModel{response: textResponse("Subject: hello")}
			engine, err := llm.NewWithModel(llm.ChatConfig{Provider: tt.provider}, model)
			require.NoError(t, err)
			assert.Equal(t, tt.want, engine.Model())

			_, err = engine.Chat(context.Background(), "system", "user")
			require.NoError(t, err)
			assert.Equal(t, tt.want, model.options.Model)
		})
	}
}

func TestNewWithConfig_Providers(t *testing.T) {
	ctx := context.Background()

	for _, provider := range []string{llm.ProviderGroq, llm.ProviderOpenAI, llm.ProviderOllama} {
		t.Run(provider, func(t *testing.T) {
			engine, err := llm.NewWithConfig(ctx, llm.ChatConfig{Provider: provider, APIKey: "test-key"})
			require.NoError(t, err)
			assert.Equal(t, provider, engine.Provider())
		})
	}

	_, err := llm.NewWithConfig(ctx, llm.ChatConfig{Provider: "carrier-pigeon"})
	assert.ErrorIs(t, err, llm.ErrUnknownProvider)

	_, err = llm.NewWithConfig(ctx, llm.ChatConfig{Provider: llm.ProviderGemini})
	assert.Error(t, err)
}
