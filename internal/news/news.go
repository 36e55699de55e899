// Package news turns fetched articles into the page's content database:
// normalize, dedupe, filter, order, classify, localize, bucket and pick
// the headline summaries.
package news

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/deusflow/ainews/internal/classify"
	"github.com/deusflow/ainews/internal/content"
	"github.com/deusflow/ainews/internal/filter"
	"github.com/deusflow/ainews/internal/metrics"
	"github.com/deusflow/ainews/internal/models"
	"github.com/deusflow/ainews/internal/summary"
)

// Localizer renders text in the page language within max runes.
type Localizer interface {
	Localize(ctx context.Context, s string, max int) string
}

type Options struct {
	TitleMaxLen        int
	BodyMaxLen         int
	BucketMaxArticles  int
	SummaryMaxItems    int
	SummaryTextLen     int
	MaxAge             time.Duration // 0 keeps everything
	TitlePlaceholder   string
	SummaryPlaceholder string
	PrioritySources    []string
	Buckets            []content.Bucket // page order
}

type Pipeline struct {
	opts       Options
	filter     *filter.Filter
	classifier *classify.Classifier
	localizer  Localizer
	metrics    *metrics.Metrics
	log        *slog.Logger
	now        func() time.Time
}

func New(opts Options, f *filter.Filter, c *classify.Classifier, loc Localizer, m *metrics.Metrics, log *slog.Logger) *Pipeline {
	if m == nil {
		m = metrics.New()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		opts:       opts,
		filter:     f,
		classifier: c,
		localizer:  loc,
		metrics:    m,
		log:        log,
		now:        time.Now,
	}
}

// WithClock replaces the clock used for the freshness window.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Build runs the whole pipeline over raw articles in fetch order and
// returns a fresh database. It never fails; an empty input yields every
// bucket empty and one empty summary group.
func (p *Pipeline) Build(ctx context.Context, raw []models.RawArticle) *content.Database {
	accepted := p.accept(raw)

	// Newest first; undated articles sort last and keep their fetch order.
	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].Published().After(accepted[j].Published())
	})

	db := content.NewDatabase(p.opts.Buckets)
	var candidates []summary.Candidate
	sources := make(map[string]bool)
	addCandidate := func(body string, a models.NormalizedArticle) {
		sources[strings.ToLower(a.SourceName)] = true
		candidates = append(candidates, summary.Candidate{Text: body, Source: a.SourceName, URL: a.URL})
	}

	for _, a := range accepted {
		key, kw := p.classifier.ClassifyWithMatch(a.Title, a.Body)
		bucket := db.Bucket(string(key))
		if bucket == nil {
			p.log.Warn("no bucket for key", "key", key, "title", a.Title)
			continue
		}
		if len(bucket.Articles) >= p.opts.BucketMaxArticles {
			p.metrics.IncrementOverflow()
			// Still a summary candidate. Only the first article of a
			// source can be picked, so later ones are not localized.
			if !sources[strings.ToLower(a.SourceName)] {
				addCandidate(p.localize(ctx, a.Body, p.opts.BodyMaxLen), a)
			}
			continue
		}

		title := p.localize(ctx, a.Title, p.opts.TitleMaxLen)
		body := p.localize(ctx, a.Body, p.opts.BodyMaxLen)
		bucket.Add(content.NewArticle(title, body, a.SourceName, a.URL), p.opts.BucketMaxArticles)
		p.log.Debug("article placed", "bucket", key, "keyword", kw, "source", a.SourceName, "title", title)

		addCandidate(body, a)
	}

	db.SetSummaries(summary.Select(candidates, p.opts.PrioritySources, p.opts.SummaryMaxItems, p.opts.SummaryTextLen))
	return db
}

// accept normalizes and drops articles without a URL, repeats, stale
// items and filter rejections. Order is preserved.
func (p *Pipeline) accept(raw []models.RawArticle) []models.NormalizedArticle {
	p.metrics.AddFetched(len(raw))

	var cutoff time.Time
	if p.opts.MaxAge > 0 {
		cutoff = p.now().Add(-p.opts.MaxAge)
	}

	seen := make(map[string]bool, len(raw))
	out := make([]models.NormalizedArticle, 0, len(raw))
	for _, r := range raw {
		a := Normalize(r, p.opts.TitleMaxLen, p.opts.BodyMaxLen, p.opts.TitlePlaceholder, p.opts.SummaryPlaceholder)
		if a.URL == "" {
			p.metrics.IncrementMissingURL()
			p.log.Debug("article dropped", "reason", "missing_url", "title", a.Title)
			continue
		}
		key := dedupeKey(a.URL)
		if seen[key] {
			p.metrics.IncrementDuplicatesFiltered()
			continue
		}
		seen[key] = true

		if !cutoff.IsZero() && a.PublishedAt != nil && a.PublishedAt.Before(cutoff) {
			p.metrics.IncrementStaleFiltered()
			continue
		}

		if d := p.filter.Check(a.Title, a.Body, a.URL); !d.Accepted {
			p.metrics.IncrementRejected(string(d.Reason))
			continue
		}
		p.metrics.IncrementAccepted()
		out = append(out, a)
	}
	return out
}

func (p *Pipeline) localize(ctx context.Context, s string, max int) string {
	if p.localizer == nil {
		return s
	}
	return p.localizer.Localize(ctx, s, max)
}
