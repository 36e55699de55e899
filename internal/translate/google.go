package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/deusflow/ainews/internal/retry"
)

const DefaultGoogleEndpoint = "https://translate.googleapis.com/translate_a/single"

// Longer input is cut before it is sent.
const maxGoogleRunes = 4000

// GoogleStrategy uses the free Google Translate web endpoint.
type GoogleStrategy struct {
	Endpoint string
	Target   string // e.g. "zh-CN"
	Client   *http.Client
	Detector *Detector // optional; "auto" is sent without one
	Retry    retry.RetryConfig
	Log      *slog.Logger
}

func NewGoogleStrategy(endpoint, target string, timeout time.Duration, det *Detector, rc retry.RetryConfig, log *slog.Logger) *GoogleStrategy {
	if endpoint == "" {
		endpoint = DefaultGoogleEndpoint
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &GoogleStrategy{
		Endpoint: endpoint,
		Target:   target,
		Client:   &http.Client{Timeout: timeout},
		Detector: det,
		Retry:    rc,
		Log:      log,
	}
}

func (g *GoogleStrategy) Name() string { return "google" }

func (g *GoogleStrategy) Localize(ctx context.Context, text string) (string, error) {
	if runes := []rune(text); len(runes) > maxGoogleRunes {
		text = string(runes[:maxGoogleRunes])
	}

	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", g.Detector.Detect(text))
	params.Set("tl", g.Target)
	params.Set("dt", "t")
	params.Set("q", text)
	fullURL := g.Endpoint + "?" + params.Encode()

	return retry.Value(ctx, g.Retry, func(ctx context.Context) (string, error) {
		return g.fetch(ctx, fullURL)
	})
}

func (g *GoogleStrategy) fetch(ctx context.Context, fullURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return "", retry.Permanent(err)
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("google translate request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			g.Log.Debug("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("google translate returned status %d", resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", err
		}
		return "", retry.Permanent(err)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading google translate response: %w", err)
	}
	translation, err := parseGoogleTranslateResponse(body)
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("parsing google translate response: %w", err))
	}
	return translation, nil
}

// The endpoint answers with nested arrays; the first element lists the
// translated segments, each of which starts with the translated text.
func parseGoogleTranslateResponse(body []byte) (string, error) {
	var response []json.RawMessage
	if err := json.Unmarshal(body, &response); err != nil {
		return "", err
	}
	if len(response) == 0 {
		return "", errors.New("empty response")
	}

	var segments [][]any
	if err := json.Unmarshal(response[0], &segments); err != nil {
		return "", errors.New("unexpected response format")
	}

	var out []byte
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		if s, ok := seg[0].(string); ok {
			out = append(out, s...)
		}
	}
	if len(out) == 0 {
		return "", ErrEmptyResult
	}
	return string(out), nil
}
