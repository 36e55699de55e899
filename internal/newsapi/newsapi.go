// Package newsapi queries the NewsAPI /v2/everything search endpoint.
package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/deusflow/ainews/internal/config"
	"github.com/deusflow/ainews/internal/models"
	"github.com/deusflow/ainews/internal/retry"
)

const DefaultEndpoint = "https://newsapi.org/v2/everything"

var ErrNoAPIKey = errors.New("newsapi: NEWSAPI_KEY is not set")

// removedTitle marks articles NewsAPI has taken down.
const removedTitle = "[Removed]"

type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	limit    int
	retry    retry.RetryConfig
	now      func() time.Time
	log      *slog.Logger
}

func NewClient(apiKey string, timeout time.Duration, limit int, rc retry.RetryConfig, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		endpoint: DefaultEndpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
		limit:    limit,
		retry:    rc,
		now:      time.Now,
		log:      log,
	}
}

type article struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}

type searchResponse struct {
	Status       string    `json:"status"`
	TotalResults int       `json:"totalResults"`
	Articles     []article `json:"articles"`
	Code         string    `json:"code"`
	Message      string    `json:"message"`
}

// Fetch runs the source's query over its lookback window ending now.
func (c *Client) Fetch(ctx context.Context, source config.Source) ([]models.RawArticle, error) {
	endpoint := source.URL
	if endpoint == "" {
		endpoint = c.endpoint
	}
	to := c.now().UTC()
	lookback := source.Lookback.D()
	if lookback <= 0 {
		lookback = 24 * time.Hour
	}
	articles, err := c.search(ctx, endpoint, source.Query, to.Add(-lookback), to, source.ItemLimit(c.limit))
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source.Name, err)
	}
	for i := range articles {
		if articles[i].SourceName == "" {
			articles[i].SourceName = source.Name
		}
	}
	return articles, nil
}

// Search returns up to pageSize articles matching query, newest first.
func (c *Client) Search(ctx context.Context, query string, from, to time.Time, pageSize int) ([]models.RawArticle, error) {
	return c.search(ctx, c.endpoint, query, from, to, pageSize)
}

func (c *Client) search(ctx context.Context, endpoint, query string, from, to time.Time, pageSize int) ([]models.RawArticle, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 100
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("from", from.UTC().Format(time.RFC3339))
	params.Set("to", to.UTC().Format(time.RFC3339))
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", strconv.Itoa(pageSize))
	fullURL := endpoint + "?" + params.Encode()

	resp, err := retry.Value(ctx, c.retry, func(ctx context.Context) (*searchResponse, error) {
		return c.get(ctx, fullURL)
	})
	if err != nil {
		return nil, err
	}

	out := make([]models.RawArticle, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		if a.Title == removedTitle || a.URL == "" {
			continue
		}
		body := a.Description
		if strings.TrimSpace(body) == "" {
			body = stripTruncationMarker(a.Content)
		}
		var published *time.Time
		if t, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
			published = &t
		}
		out = append(out, models.RawArticle{
			Title:       a.Title,
			Body:        body,
			URL:         a.URL,
			SourceName:  a.Source.Name,
			PublishedAt: published,
		})
		if len(out) >= pageSize {
			break
		}
	}
	c.log.Debug("newsapi search", "query", query, "total", resp.TotalResults, "kept", len(out))
	return out, nil
}

func (c *Client) get(ctx context.Context, fullURL string) (*searchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, retry.Permanent(err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.log.Debug("failed to close response body", "error", closeErr)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("reading newsapi response: %w", err)
	}

	var out searchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		err = fmt.Errorf("newsapi returned status %d: %w", resp.StatusCode, err)
		if resp.StatusCode >= 500 {
			return nil, err
		}
		return nil, retry.Permanent(err)
	}
	if resp.StatusCode != http.StatusOK || out.Status != "ok" {
		err := fmt.Errorf("newsapi returned status %d: %s: %s", resp.StatusCode, out.Code, out.Message)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, err
		}
		return nil, retry.Permanent(err)
	}
	return &out, nil
}

// NewsAPI cuts content with a "[+123 chars]" suffix.
func stripTruncationMarker(s string) string {
	if i := strings.LastIndex(s, "[+"); i >= 0 && strings.HasSuffix(s, "chars]") {
		return strings.TrimSpace(s[:i])
	}
	return s
}
