package models

import "time"

// RawArticle is one item as returned by a fetcher, before any cleanup.
type RawArticle struct {
	Title       string
	Body        string // may contain markup and entities
	URL         string
	SourceName  string
	PublishedAt *time.Time
}

// NormalizedArticle is a RawArticle with markup removed, entities decoded,
// whitespace collapsed and title/body truncated.
type NormalizedArticle struct {
	Title       string
	Body        string
	URL         string
	SourceName  string
	PublishedAt *time.Time
}

// Published returns the publication time or the zero time when unknown.
func (a NormalizedArticle) Published() time.Time {
	if a.PublishedAt == nil {
		return time.Time{}
	}
	return *a.PublishedAt
}
