package app

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/deusflow/ainews/internal/config"
	"github.com/deusflow/ainews/internal/metrics"
	"github.com/deusflow/ainews/internal/models"
	"github.com/deusflow/ainews/internal/newsapi"
	"github.com/deusflow/ainews/internal/retry"
	"github.com/deusflow/ainews/internal/rss"
	"github.com/deusflow/ainews/internal/scraper"
)

// Fetcher returns the raw items of one source.
type Fetcher interface {
	Fetch(ctx context.Context, source config.Source) ([]models.RawArticle, error)
}

func fetchRetry(cfg *config.Config) retry.RetryConfig {
	return retry.RetryConfig{
		MaxAttempts: cfg.Fetch.RetryAttempts,
		Delay:       cfg.Fetch.RetryDelay.D(),
		Backoff:     true,
	}
}

// NewFetchers builds one fetcher per source type. NewsAPI sources are
// left out when no key is configured.
func NewFetchers(cfg *config.Config, log *slog.Logger) map[string]Fetcher {
	rc := fetchRetry(cfg)
	timeout := cfg.Fetch.Timeout.D()
	limit := cfg.Limits.PerSourceItems

	feeds := rss.NewFetcher(timeout, limit, rc, log)
	fetchers := map[string]Fetcher{
		config.SourceRSS:  feeds,
		config.SourceAtom: feeds,
		config.SourceHTML: scraper.New(timeout, cfg.Fetch.ScrapeRate, limit, rc, log),
	}
	if cfg.NewsAPIKey != "" {
		fetchers[config.SourceNewsAPI] = newsapi.NewClient(cfg.NewsAPIKey, timeout, limit, rc, log)
	}
	return fetchers
}

// fetchAll fetches every source with at most concurrency requests in
// flight. A failing source is logged and contributes nothing; results keep
// the source order.
func fetchAll(ctx context.Context, sources []config.Source, fetchers map[string]Fetcher, concurrency int, m *metrics.Metrics, log *slog.Logger, progress ProgressFunc) []models.RawArticle {
	if concurrency < 1 {
		concurrency = 1
	}
	results := make([][]models.RawArticle, len(sources))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, src := range sources {
		g.Go(func() error {
			f, ok := fetchers[src.Type]
			if !ok {
				log.Warn("source skipped", "source", src.Name, "type", src.Type, "reason", "no fetcher available")
				if progress != nil {
					progress(src.Name, 0, nil)
				}
				return nil
			}

			items, err := f.Fetch(ctx, src)
			if err != nil {
				m.IncrementSourcesFailed()
				log.Warn("source failed", "source", src.Name, "url", src.URL, "error", err)
				items = nil
			} else {
				log.Debug("source fetched", "source", src.Name, "articles", len(items))
			}
			results[i] = items
			if progress != nil {
				progress(src.Name, len(items), err)
			}
			return nil
		})
	}
	_ = g.Wait()

	var all []models.RawArticle
	for _, r := range results {
		all = append(all, r...)
	}
	return all
}
