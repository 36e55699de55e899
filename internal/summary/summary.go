// Package summary picks the headline items shown above the buckets.
package summary

import (
	"strings"

	"github.com/deusflow/ainews/internal/content"
	"github.com/deusflow/ainews/internal/text"
)

// Candidate is an accepted article offered for headline display, in
// processing order (newest first).
type Candidate struct {
	Text   string
	Source string
	URL    string
}

// Select returns at most max items with at most one item per source.
// Sources named in priority are taken first, in priority order; the rest
// fill in by order of first appearance. Fewer than max items are returned
// when there are not enough distinct sources.
func Select(candidates []Candidate, priority []string, max, textLen int) []content.SummaryItem {
	items := make([]content.SummaryItem, 0, max)
	if max <= 0 || len(candidates) == 0 {
		return items
	}

	var order []string
	first := make(map[string]Candidate)
	for _, c := range candidates {
		key := sourceKey(c.Source)
		if _, ok := first[key]; ok {
			continue
		}
		first[key] = c
		order = append(order, key)
	}

	used := make(map[string]bool)
	take := func(key string) {
		if len(items) >= max || used[key] {
			return
		}
		c, ok := first[key]
		if !ok {
			return
		}
		used[key] = true
		items = append(items, content.SummaryItem{
			Text:   text.Truncate(c.Text, textLen),
			Source: c.Source,
			URL:    c.URL,
		})
	}

	for _, name := range priority {
		take(sourceKey(name))
	}
	for _, key := range order {
		take(key)
	}
	return items
}

func sourceKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
