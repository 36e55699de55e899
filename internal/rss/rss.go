// Package rss fetches RSS and Atom feeds.
package rss

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/deusflow/ainews/internal/config"
	"github.com/deusflow/ainews/internal/models"
	"github.com/deusflow/ainews/internal/retry"
)

const userAgent = "ainews/1.0 (+https://github.com/deusflow/ainews)"

type Fetcher struct {
	parser *gofeed.Parser
	limit  int
	retry  retry.RetryConfig
	log    *slog.Logger
}

// NewFetcher returns a feed fetcher. limit caps items per feed unless the
// source sets its own.
func NewFetcher(timeout time.Duration, limit int, rc retry.RetryConfig, log *slog.Logger) *Fetcher {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	if timeout > 0 {
		parser.Client = &http.Client{Timeout: timeout}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Fetcher{parser: parser, limit: limit, retry: rc, log: log}
}

// Fetch downloads one feed and returns its first items in feed order.
func (f *Fetcher) Fetch(ctx context.Context, source config.Source) ([]models.RawArticle, error) {
	feed, err := retry.Value(ctx, f.retry, func(ctx context.Context) (*gofeed.Feed, error) {
		feed, err := f.parser.ParseURLWithContext(source.URL, ctx)
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 &&
			httpErr.StatusCode != http.StatusTooManyRequests {
			return nil, retry.Permanent(err)
		}
		return feed, err
	})
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source.Name, err)
	}

	limit := source.ItemLimit(f.limit)
	articles := make([]models.RawArticle, 0, min(limit, len(feed.Items)))
	for _, item := range feed.Items {
		if len(articles) >= limit {
			break
		}
		articles = append(articles, toArticle(item, source.Name))
	}
	f.log.Debug("feed loaded", "source", source.Name, "items", len(feed.Items), "kept", len(articles))
	return articles, nil
}

func toArticle(item *gofeed.Item, sourceName string) models.RawArticle {
	body := item.Description
	if strings.TrimSpace(body) == "" {
		body = item.Content
	}

	link := strings.TrimSpace(item.Link)
	if link == "" && strings.HasPrefix(item.GUID, "http") {
		link = item.GUID
	}

	var published *time.Time
	switch {
	case item.PublishedParsed != nil:
		published = item.PublishedParsed
	case item.UpdatedParsed != nil:
		published = item.UpdatedParsed
	}

	return models.RawArticle{
		Title:       item.Title,
		Body:        body,
		URL:         link,
		SourceName:  sourceName,
		PublishedAt: published,
	}
}
