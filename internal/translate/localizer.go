package translate

import (
	"context"
	"log/slog"
	"unicode"

	"github.com/deusflow/ainews/internal/metrics"
	"github.com/deusflow/ainews/internal/ratelimit"
	"github.com/deusflow/ainews/internal/text"
)

type Options struct {
	// Script is the Unicode script of the target language, e.g. Han.
	Script *unicode.RangeTable
	// Text at or above RatioThreshold is already localized.
	RatioThreshold float64
	// A candidate translation is accepted only at or above MinRatio.
	MinRatio float64
	// UntranslatedTag prefixes text that could not be localized.
	UntranslatedTag string
}

type Localizer struct {
	opts       Options
	strategies []Strategy
	dict       *Dictionary
	budget     *ratelimit.Budget
	metrics    *metrics.Metrics
	log        *slog.Logger
}

// NewLocalizer builds a Localizer. strategies are tried in order; budget,
// dict and m may be nil.
func NewLocalizer(opts Options, strategies []Strategy, dict *Dictionary, budget *ratelimit.Budget, m *metrics.Metrics, log *slog.Logger) *Localizer {
	if log == nil {
		log = slog.Default()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Localizer{
		opts:       opts,
		strategies: strategies,
		dict:       dict,
		budget:     budget,
		metrics:    m,
		log:        log,
	}
}

// Strategies returns the names of the external strategies in order.
func (l *Localizer) Strategies() []string {
	names := make([]string, 0, len(l.strategies))
	for _, s := range l.strategies {
		names = append(names, s.Name())
	}
	return names
}

// BudgetStats returns the external requests made and denied per provider.
func (l *Localizer) BudgetStats() map[string]interface{} {
	return l.budget.GetStats()
}

// Localize returns s in the target language, truncated to max runes. It
// never fails: when every strategy falls through, the dictionary output is
// used and tagged as untranslated if it is still mostly foreign.
func (l *Localizer) Localize(ctx context.Context, s string, max int) string {
	if s == "" {
		return ""
	}
	if !hasLetter(s) || l.ratio(s) >= l.opts.RatioThreshold {
		return text.Truncate(s, max)
	}

	for _, st := range l.strategies {
		if ctx.Err() != nil {
			break
		}
		name := st.Name()
		if !l.budget.Allow(name) {
			l.metrics.IncrementSkippedTranslations()
			continue
		}
		out, err := st.Localize(ctx, s)
		if err != nil {
			l.metrics.IncrementFailedTranslations()
			l.log.Warn("translation failed", "strategy", name, "error", err)
			continue
		}
		out = text.Clean(out)
		if out == "" {
			l.metrics.IncrementFailedTranslations()
			l.log.Warn("translation failed", "strategy", name, "error", ErrEmptyResult)
			continue
		}
		if r := l.ratio(out); r < l.opts.MinRatio {
			l.metrics.IncrementFailedTranslations()
			l.log.Debug("translation rejected", "strategy", name, "ratio", r)
			continue
		}
		l.metrics.IncrementSuccessfulTranslations()
		return text.Truncate(out, max)
	}

	out := l.dict.Apply(s)
	if out != s {
		l.metrics.IncrementDictionaryFallbacks()
	}
	if l.ratio(out) < l.opts.MinRatio {
		out = l.opts.UntranslatedTag + out
	}
	return text.Truncate(out, max)
}

func (l *Localizer) ratio(s string) float64 {
	return text.ScriptRatio(s, l.opts.Script)
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
