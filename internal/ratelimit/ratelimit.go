// Package ratelimit caps how many requests each translation provider may
// receive during one run.
package ratelimit

import (
	"log/slog"
	"sort"
	"sync"
)

// Budget counts requests per provider against a shared per-provider cap
// and an optional overall cap. A zero cap means unlimited.
type Budget struct {
	mu          sync.Mutex
	perProvider int
	maxTotal    int
	used        map[string]int
	total       int
	denied      map[string]int
	log         *slog.Logger
}

func NewBudget(perProvider, maxTotal int, log *slog.Logger) *Budget {
	if log == nil {
		log = slog.Default()
	}
	return &Budget{
		perProvider: perProvider,
		maxTotal:    maxTotal,
		used:        make(map[string]int),
		denied:      make(map[string]int),
		log:         log,
	}
}

// Allow reserves one request for provider. It returns false once the
// provider or overall budget is spent; the first denial is logged.
func (b *Budget) Allow(provider string) bool {
	if b == nil {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.perProvider > 0 && b.used[provider] >= b.perProvider {
		b.deny(provider, "provider limit reached", b.used[provider], b.perProvider)
		return false
	}
	if b.maxTotal > 0 && b.total >= b.maxTotal {
		b.deny(provider, "total limit reached", b.total, b.maxTotal)
		return false
	}
	b.used[provider]++
	b.total++
	return true
}

func (b *Budget) deny(provider, reason string, used, limit int) {
	if b.denied[provider] == 0 {
		b.log.Warn("translation budget exhausted", "provider", provider, "reason", reason, "used", used, "limit", limit)
	}
	b.denied[provider]++
}

// GetStats reports usage per provider for the end-of-run summary. A nil
// budget has no stats.
func (b *Budget) GetStats() map[string]interface{} {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	providers := make([]string, 0, len(b.used))
	for p := range b.used {
		providers = append(providers, p)
	}
	sort.Strings(providers)

	stats := map[string]interface{}{
		"total_used":  b.total,
		"total_limit": b.maxTotal,
	}
	for _, p := range providers {
		stats[p+"_used"] = b.used[p]
		stats[p+"_denied"] = b.denied[p]
	}
	return stats
}
