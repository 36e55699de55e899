// Package gemini is the Google Gemini translation strategy.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/deusflow/ainews/internal/retry"
	"github.com/deusflow/ainews/internal/translate"
)

const DefaultModel = "gemini-1.5-flash"

// Prompts longer than this are cut at a sentence boundary.
const maxInputRunes = 3000

var ErrNoResponse = errors.New("no response from Gemini")

type Client struct {
	client *genai.Client
	model  string
	target string
	retry  retry.RetryConfig
	log    *slog.Logger
}

func NewClient(ctx context.Context, apiKey, model, target string, rc retry.RetryConfig, log *slog.Logger) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{client: client, model: model, target: target, retry: rc, log: log}, nil
}

func (c *Client) Close() {
	if c.client != nil {
		if err := c.client.Close(); err != nil {
			c.log.Debug("closing Gemini client", "error", err)
		}
	}
}

func (c *Client) Name() string { return "gemini" }

// Localize translates text into the target language.
func (c *Client) Localize(ctx context.Context, text string) (string, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(0.2)
	prompt := buildPrompt(limitInput(text), c.target)

	resp, err := retry.Value(ctx, c.retry, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		return model.GenerateContent(ctx, genai.Text(prompt))
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrNoResponse
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return parseResponse(b.String())
}

func limitInput(s string) string {
	s = strings.Join(strings.Fields(strings.ReplaceAll(s, "\r", "")), " ")
	if utf8.RuneCountInString(s) <= maxInputRunes {
		return s
	}
	trimmed := string([]rune(s)[:maxInputRunes])
	if idx := strings.LastIndex(trimmed, ". "); idx > maxInputRunes/2 {
		trimmed = trimmed[:idx+1]
	}
	return trimmed
}

func buildPrompt(text, target string) string {
	return fmt.Sprintf(`Translate this AI industry news text into %s.

REQUIREMENTS:
- Translate naturally, not word for word.
- Keep brand, company, product and person names untranslated.
- Do not add comments, notes or explanations.

Answer strictly in this format:

TRANSLATION: <translated text>

TEXT:
%s`, translate.LanguageName(target), text)
}

var (
	labelPattern = regexp.MustCompile(`(?i)^\s*(?:TRANSLATION|译文|翻译)\s*[:：]\s?`)
	notePattern  = regexp.MustCompile(`(?i)^\s*(?:note|注|注意)\s*[:：]`)
)

// parseResponse takes everything after the TRANSLATION label. Without a
// label the whole answer is used, minus note lines.
func parseResponse(response string) (string, error) {
	var b strings.Builder
	labelled := false
	for _, raw := range strings.Split(response, "\n") {
		line := strings.TrimSpace(strings.Trim(raw, "`"))
		if line == "" || notePattern.MatchString(line) {
			continue
		}
		if labelPattern.MatchString(line) {
			if !labelled {
				b.Reset()
				labelled = true
			}
			line = strings.TrimSpace(labelPattern.ReplaceAllString(line, ""))
			if line == "" {
				continue
			}
		}
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(line)
	}

	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", ErrNoResponse
	}
	return out, nil
}
