package metrics

import (
	"sort"
	"sync"
	"time"
)

// Metrics holds the counters of a single run. Fetchers update it from
// several goroutines, so every method locks.
type Metrics struct {
	mu    sync.RWMutex
	stats Stats
}

// Stats is a point-in-time copy of the counters.
type Stats struct {
	// Counters
	ArticlesFetched        int64
	SourcesFailed          int64
	MissingURL             int64
	DuplicatesFiltered     int64
	StaleFiltered          int64
	Rejected               map[string]int64 // by filter reason
	ArticlesAccepted       int64
	ArticlesOverflow       int64 // accepted but over the bucket cap
	SuccessfulTranslations int64
	FailedTranslations     int64
	SkippedTranslations    int64 // budget exhausted
	DictionaryFallbacks    int64

	// Timings
	ProcessingTime time.Duration

	// Status
	StartedAt time.Time
	LastError string
}

func New() *Metrics {
	return &Metrics{stats: Stats{Rejected: make(map[string]int64), StartedAt: time.Now()}}
}

func (m *Metrics) add(field *int64, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*field += int64(n)
}

func (m *Metrics) AddFetched(n int)                 { m.add(&m.stats.ArticlesFetched, n) }
func (m *Metrics) IncrementSourcesFailed()          { m.add(&m.stats.SourcesFailed, 1) }
func (m *Metrics) IncrementMissingURL()             { m.add(&m.stats.MissingURL, 1) }
func (m *Metrics) IncrementDuplicatesFiltered()     { m.add(&m.stats.DuplicatesFiltered, 1) }
func (m *Metrics) IncrementStaleFiltered()          { m.add(&m.stats.StaleFiltered, 1) }
func (m *Metrics) IncrementAccepted()               { m.add(&m.stats.ArticlesAccepted, 1) }
func (m *Metrics) IncrementOverflow()               { m.add(&m.stats.ArticlesOverflow, 1) }
func (m *Metrics) IncrementSuccessfulTranslations() { m.add(&m.stats.SuccessfulTranslations, 1) }
func (m *Metrics) IncrementFailedTranslations()     { m.add(&m.stats.FailedTranslations, 1) }
func (m *Metrics) IncrementSkippedTranslations()    { m.add(&m.stats.SkippedTranslations, 1) }
func (m *Metrics) IncrementDictionaryFallbacks()    { m.add(&m.stats.DictionaryFallbacks, 1) }

func (m *Metrics) IncrementRejected(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stats.Rejected == nil {
		m.stats.Rejected = make(map[string]int64)
	}
	m.stats.Rejected[reason]++
}

func (m *Metrics) RecordProcessingTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.ProcessingTime = duration
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.LastError = err
}

// Snapshot returns a copy that is safe to read without locking.
func (m *Metrics) Snapshot() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := m.stats
	out.Rejected = make(map[string]int64, len(m.stats.Rejected))
	for k, v := range m.stats.Rejected {
		out.Rejected[k] = v
	}
	return out
}

// TotalRejected sums rejections over all reasons.
func (m *Metrics) TotalRejected() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, v := range m.stats.Rejected {
		n += v
	}
	return n
}

// LogAttrs flattens the counters into slog key/value pairs in a stable order.
func (m *Metrics) LogAttrs() []any {
	s := m.Snapshot()
	attrs := []any{
		"fetched", s.ArticlesFetched,
		"sources_failed", s.SourcesFailed,
		"missing_url", s.MissingURL,
		"duplicates", s.DuplicatesFiltered,
		"stale", s.StaleFiltered,
		"accepted", s.ArticlesAccepted,
		"overflow", s.ArticlesOverflow,
		"translations_ok", s.SuccessfulTranslations,
		"translations_failed", s.FailedTranslations,
		"translations_skipped", s.SkippedTranslations,
		"dictionary_fallbacks", s.DictionaryFallbacks,
		"processing_ms", s.ProcessingTime.Milliseconds(),
	}
	reasons := make([]string, 0, len(s.Rejected))
	for r := range s.Rejected {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		attrs = append(attrs, "rejected_"+r, s.Rejected[r])
	}
	return attrs
}
