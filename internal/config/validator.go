package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/deusflow/ainews/internal/text"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate reports every problem found, not just the first.
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError
	add := func(field, format string, args ...any) {
		errors = append(errors, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if c.Version != CurrentVersion {
		add("version", "unsupported settings version %d (want %d)", c.Version, CurrentVersion)
	}

	// Document
	if strings.TrimSpace(c.Document.Path) == "" {
		add("document.path", "host document path is required")
	}
	if strings.TrimSpace(c.Document.Marker) == "" {
		add("document.marker", "marker is required")
	}

	// Limits
	positive := []struct {
		field string
		value int
	}{
		{"limits.bucket_max_articles", c.Limits.BucketMaxArticles},
		{"limits.summary_max_items", c.Limits.SummaryMaxItems},
		{"limits.title_max_len", c.Limits.TitleMaxLen},
		{"limits.body_max_len", c.Limits.BodyMaxLen},
		{"limits.summary_text_len", c.Limits.SummaryTextLen},
		{"limits.per_source_items", c.Limits.PerSourceItems},
		{"fetch.concurrency", c.Fetch.Concurrency},
		{"fetch.retry_attempts", c.Fetch.RetryAttempts},
	}
	for _, p := range positive {
		if p.value < 1 {
			add(p.field, "must be positive")
		}
	}
	if c.Fetch.ScrapeRate < 0 {
		add("fetch.scrape_rate", "must not be negative")
	}

	// Sources
	names := make(map[string]bool, len(c.Sources))
	for i, s := range c.Sources {
		field := fmt.Sprintf("sources[%d]", i)
		if strings.TrimSpace(s.Name) == "" {
			add(field+".name", "name is required")
		} else if names[strings.ToLower(s.Name)] {
			add(field+".name", "duplicate source %q", s.Name)
		}
		names[strings.ToLower(s.Name)] = true

		if u, err := url.Parse(s.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			add(field+".url", "invalid URL %q", s.URL)
		}
		switch s.Type {
		case SourceRSS, SourceAtom:
		case SourceNewsAPI:
			if strings.TrimSpace(s.Query) == "" {
				add(field+".query", "newsapi sources need a query")
			}
		case SourceHTML:
			if s.ItemSelector == "" || s.TitleSelector == "" {
				add(field, "html sources need item_selector and title_selector")
			}
		default:
			add(field+".type", "unknown source type %q", s.Type)
		}
		if s.Limit < 0 {
			add(field+".limit", "must not be negative")
		}
	}

	// Filter
	if len(c.Filter.DomainTerms) == 0 {
		add("filter.domain_terms", "at least one domain term is required")
	}

	// Buckets
	keys := make(map[string]bool, len(c.Buckets))
	if len(c.Buckets) == 0 {
		add("buckets", "at least one bucket is required")
	}
	for i, b := range c.Buckets {
		field := fmt.Sprintf("buckets[%d]", i)
		switch {
		case b.Key == "":
			add(field+".key", "key is required")
		case keys[b.Key]:
			add(field+".key", "duplicate bucket %q", b.Key)
		}
		keys[b.Key] = true
		if strings.TrimSpace(b.Title) == "" {
			add(field+".title", "title is required")
		}
	}
	ordered := make(map[string]bool, len(c.ClassifyOrder))
	for _, k := range c.ClassifyOrder {
		if !keys[k] {
			add("classify_order", "unknown bucket %q", k)
		}
		if ordered[k] {
			add("classify_order", "bucket %q listed twice", k)
		}
		ordered[k] = true
	}
	if !keys[c.DefaultBucket] {
		add("default_bucket", "unknown bucket %q", c.DefaultBucket)
	}

	// Translation
	tr := c.Translation
	if text.ScriptTable(tr.TargetScript) == nil {
		add("translation.target_script", "unknown Unicode script %q", tr.TargetScript)
	}
	if tr.RatioThreshold <= 0 || tr.RatioThreshold > 1 {
		add("translation.ratio_threshold", "must be in (0, 1]")
	}
	if tr.MinRatio < 0 || tr.MinRatio > tr.RatioThreshold {
		add("translation.min_ratio", "must be in [0, ratio_threshold]")
	}
	if tr.MaxRequests < 0 {
		add("translation.max_requests", "must not be negative")
	}
	if tr.Google {
		if u, err := url.Parse(tr.GoogleEndpoint); err != nil || u.Host == "" {
			add("translation.google_endpoint", "invalid URL %q", tr.GoogleEndpoint)
		}
	}

	// Placeholders
	if c.Placeholders.Title == "" {
		add("placeholders.title", "title placeholder is required")
	}
	if c.Placeholders.Summary == "" {
		add("placeholders.summary", "summary placeholder is required")
	}

	return errors
}
