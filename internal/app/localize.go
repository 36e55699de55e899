package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/deusflow/ainews/internal/config"
	"github.com/deusflow/ainews/internal/gemini"
	"github.com/deusflow/ainews/internal/metrics"
	"github.com/deusflow/ainews/internal/ratelimit"
	"github.com/deusflow/ainews/internal/retry"
	"github.com/deusflow/ainews/internal/text"
	"github.com/deusflow/ainews/internal/translate"
)

var translateRetry = retry.RetryConfig{MaxAttempts: 2, Delay: time.Second}

// NewLocalizer builds the translation chain from what is configured:
// Gemini and OpenAI when their keys are set, then Google when enabled.
// The returned func releases client resources.
func NewLocalizer(ctx context.Context, cfg *config.Config, m *metrics.Metrics, log *slog.Logger) (*translate.Localizer, func()) {
	tr := cfg.Translation
	var strategies []translate.Strategy
	closers := []func(){}

	if cfg.GeminiAPIKey != "" {
		g, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, tr.GeminiModel, tr.TargetLanguage, translateRetry, log)
		if err != nil {
			log.Warn("gemini disabled", "error", err)
		} else {
			strategies = append(strategies, g)
			closers = append(closers, g.Close)
		}
	}
	if cfg.OpenAIAPIKey != "" {
		strategies = append(strategies, translate.NewOpenAIStrategy(cfg.OpenAIAPIKey, "", tr.OpenAIModel, tr.TargetLanguage, translateRetry))
	}
	if tr.Google {
		det := translate.NewDetector(tr.DetectLanguages)
		strategies = append(strategies, translate.NewGoogleStrategy(tr.GoogleEndpoint, tr.TargetLanguage, tr.Timeout.D(), det, translateRetry, log))
	}

	loc := translate.NewLocalizer(translate.Options{
		Script:          text.ScriptTable(tr.TargetScript),
		RatioThreshold:  tr.RatioThreshold,
		MinRatio:        tr.MinRatio,
		UntranslatedTag: tr.UntranslatedTag,
	}, strategies, translate.NewDictionary(tr.Dictionary), ratelimit.NewBudget(tr.MaxRequests, 0, log), m, log)
	log.Info("localizer ready", "strategies", loc.Strategies(), "dictionary_entries", len(tr.Dictionary))

	return loc, func() {
		for _, c := range closers {
			c()
		}
	}
}
