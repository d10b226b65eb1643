package detector

import (
	"context"

	"github.com/rotisserie/eris"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/sells-group/langid/pkg/anthropic"
)

type anthropicCompleter struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicCompleter returns a Completer that calls Claude.
func NewAnthropicCompleter(client anthropic.Client, model string, maxTokens int64) Completer {
	return &anthropicCompleter{client: client, model: model, maxTokens: maxTokens}
}

func (c *anthropicCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	temp := 0.0
	resp, err := c.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		System:      []anthropic.SystemBlock{{Text: system}},
		Messages:    []anthropic.Message{{Role: "user", Content: user}},
		Temperature: &temp,
	})
	if err != nil {
		return "", err
	}
	resp.Usage.LogCost(c.model, "deep_detect")
	return resp.Text(), nil
}

// ChatCompleter is the subset of *openai.Client used for detection.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type openAICompleter struct {
	client    ChatCompleter
	model     string
	maxTokens int
}

// NewOpenAICompleter returns a Completer for any OpenAI-compatible chat API.
func NewOpenAICompleter(client ChatCompleter, model string, maxTokens int) Completer {
	return &openAICompleter{client: client, model: model, maxTokens: maxTokens}
}

func (c *openAICompleter) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return "", eris.Wrap(err, "openai: chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", eris.New("openai: no choices returned")
	}

	zap.L().Debug("cost attribution",
		zap.String("model", c.model),
		zap.String("phase", "deep_detect"),
		zap.Int("input_tokens", resp.Usage.PromptTokens),
		zap.Int("output_tokens", resp.Usage.CompletionTokens),
	)
	return resp.Choices[0].Message.Content, nil
}

// NewOpenAIClient builds an OpenAI client, pointing it at baseURL when set.
func NewOpenAIClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}
