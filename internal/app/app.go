// Package app wires one update run: fetch every enabled source, build the
// content database and splice it into the host page.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/deusflow/ainews/internal/classify"
	"github.com/deusflow/ainews/internal/config"
	"github.com/deusflow/ainews/internal/content"
	"github.com/deusflow/ainews/internal/filter"
	"github.com/deusflow/ainews/internal/logger"
	"github.com/deusflow/ainews/internal/metrics"
	"github.com/deusflow/ainews/internal/news"
	"github.com/deusflow/ainews/internal/storage"
)

var ErrNoSources = errors.New("no enabled sources")

type Status int

const (
	StatusUpdated Status = iota
	StatusUnchanged
	StatusDryRun
)

func (s Status) String() string {
	switch s {
	case StatusUpdated:
		return "updated"
	case StatusUnchanged:
		return "unchanged"
	case StatusDryRun:
		return "dry-run"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// ProgressFunc is told about each finished source. It is called from the
// fetch goroutines.
type ProgressFunc func(source string, articles int, err error)

type Options struct {
	DryRun   bool
	Output   io.Writer // receives the literal in dry-run mode
	Progress ProgressFunc
	Log      *slog.Logger
	Metrics  *metrics.Metrics

	// Fetchers replaces the registry built from the config, keyed by
	// source type.
	Fetchers map[string]Fetcher
}

type Result struct {
	Status      Status
	Path        string
	Database    *content.Database
	Literal     []byte
	Fingerprint string // of the page after the run
	Stats       metrics.Stats
	Budget      map[string]interface{} // translation requests per provider
}

// Run performs one update. The host page is checked for the marker before
// anything is fetched; splice errors are returned wrapped so errors.Is
// matches the splice sentinels, and the page is left untouched.
func Run(ctx context.Context, cfg *config.Config, opts Options) (*Result, error) {
	start := time.Now()
	log := logger.OrDefault(opts.Log)
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}

	sources := cfg.EnabledSources()
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	doc := storage.NewDocument(cfg.Document.Path, log)
	page, err := doc.Read()
	if err != nil {
		return nil, err
	}
	splicer := cfg.Splicer()
	if _, err := splicer.Locate(page); err != nil {
		m.SetError(err.Error())
		return nil, fmt.Errorf("checking %s: %w", doc.Path(), err)
	}

	fetchers := opts.Fetchers
	if fetchers == nil {
		fetchers = NewFetchers(cfg, log)
	}
	raw := fetchAll(ctx, sources, fetchers, cfg.Fetch.Concurrency, m, log, opts.Progress)
	log.Info("fetch complete", "sources", len(sources), "articles", len(raw), "failed", m.Snapshot().SourcesFailed)

	loc, closeLoc := NewLocalizer(ctx, cfg, m, log)
	defer closeLoc()

	pipeline, err := NewPipeline(cfg, loc, m, log)
	if err != nil {
		return nil, err
	}
	db := pipeline.Build(ctx, raw)

	literal, err := content.Marshal(db)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize content: %w", err)
	}
	updated, err := splicer.Splice(page, literal)
	if err != nil {
		m.SetError(err.Error())
		return nil, fmt.Errorf("splicing %s: %w", doc.Path(), err)
	}

	res := &Result{
		Path:        doc.Path(),
		Database:    db,
		Literal:     literal,
		Fingerprint: storage.Fingerprint(updated),
		Budget:      loc.BudgetStats(),
	}
	switch {
	case opts.DryRun:
		res.Status = StatusDryRun
		res.Fingerprint = storage.Fingerprint(page)
		if opts.Output != nil {
			if _, err := fmt.Fprintf(opts.Output, "%s\n", literal); err != nil {
				return nil, fmt.Errorf("writing dry-run output: %w", err)
			}
		}
	case updated == page:
		res.Status = StatusUnchanged
	default:
		if err := doc.Write(updated); err != nil {
			m.SetError(err.Error())
			return nil, err
		}
		res.Status = StatusUpdated
	}

	m.RecordProcessingTime(time.Since(start))
	res.Stats = m.Snapshot()
	log.Info("run complete", append([]any{"status", res.Status, "articles", db.ArticleCount()}, m.LogAttrs()...)...)
	return res, nil
}

// NewPipeline builds the article pipeline from settings.
func NewPipeline(cfg *config.Config, loc news.Localizer, m *metrics.Metrics, log *slog.Logger) (*news.Pipeline, error) {
	c, err := classify.New(cfg.ClassifyRules(), classify.Key(cfg.DefaultBucket))
	if err != nil {
		return nil, fmt.Errorf("failed to build classifier: %w", err)
	}
	opts := news.Options{
		TitleMaxLen:        cfg.Limits.TitleMaxLen,
		BodyMaxLen:         cfg.Limits.BodyMaxLen,
		BucketMaxArticles:  cfg.Limits.BucketMaxArticles,
		SummaryMaxItems:    cfg.Limits.SummaryMaxItems,
		SummaryTextLen:     cfg.Limits.SummaryTextLen,
		MaxAge:             cfg.Limits.MaxAge.D(),
		TitlePlaceholder:   cfg.Placeholders.Title,
		SummaryPlaceholder: cfg.Placeholders.Summary,
		PrioritySources:    cfg.Summary.PrioritySources,
		Buckets:            cfg.BucketDefs(),
	}
	return news.New(opts, filter.New(cfg.FilterRules(), log), c, loc, m, log), nil
}

// Extract returns the data literal currently in the host page.
func Extract(cfg *config.Config) (string, error) {
	page, err := storage.NewDocument(cfg.Document.Path, nil).Read()
	if err != nil {
		return "", err
	}
	literal, err := cfg.Splicer().Extract(page)
	if err != nil {
		return "", fmt.Errorf("extracting from %s: %w", cfg.Document.Path, err)
	}
	return literal, nil
}

// CheckDocument reports whether the host page can be updated.
func CheckDocument(cfg *config.Config) error {
	_, err := Extract(cfg)
	return err
}
