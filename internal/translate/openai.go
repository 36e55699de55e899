package translate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/deusflow/ainews/internal/retry"
)

// OpenAIStrategy translates with a chat completion model.
type OpenAIStrategy struct {
	client *openai.Client
	model  string
	target string
	retry  retry.RetryConfig
}

// NewOpenAIStrategy builds a strategy for the given API key. baseURL may
// point at any OpenAI-compatible endpoint; empty uses the default.
func NewOpenAIStrategy(apiKey, baseURL, model, target string, rc retry.RetryConfig) *OpenAIStrategy {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIStrategy{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		target: target,
		retry:  rc,
	}
}

func (o *OpenAIStrategy) Name() string { return "openai" }

func (o *OpenAIStrategy) Localize(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(`Translate the following news text into %s.
Keep the meaning and the journalistic tone.
Do not translate names of companies, products or people.
Reply with the translation only, without notes, labels or quotes.

Text to translate:
%s`, LanguageName(o.target), text)

	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxCompletionTokens: 1000,
	}

	resp, err := retry.Value(ctx, o.retry, func(ctx context.Context) (openai.ChatCompletionResponse, error) {
		resp, err := o.client.CreateChatCompletion(ctx, req)
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500 &&
			apiErr.HTTPStatusCode != http.StatusTooManyRequests {
			return resp, retry.Permanent(err)
		}
		return resp, err
	})
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no choices in response")
	}

	out := SanitizeAIText(strings.TrimSpace(resp.Choices[0].Message.Content))
	if out == "" {
		return "", ErrEmptyResult
	}
	return out, nil
}
