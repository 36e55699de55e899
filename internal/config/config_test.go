package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/ainews/internal/classify"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "NEWSAPI_KEY", "AINEWS_HTML_PATH", "MAX_TRANSLATION_REQUESTS", "FETCH_CONCURRENCY", "DEBUG"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	assert.Empty(t, cfg.Validate())

	var keys []string
	for _, b := range cfg.Buckets {
		keys = append(keys, b.Key)
	}
	var want []string
	for _, k := range classify.AllKeys() {
		want = append(want, string(k))
	}
	assert.Equal(t, want, keys)
	assert.Equal(t, 8, cfg.Limits.BucketMaxArticles)
	assert.Equal(t, 3, cfg.Limits.SummaryMaxItems)
	assert.Equal(t, 72*time.Hour, cfg.Limits.MaxAge.D())
	assert.Equal(t, "[外媒] ", cfg.Translation.UntranslatedTag)
	assert.Equal(t, "暂无摘要", cfg.Placeholders.Summary)
}

func TestLoadOverlaysUserFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
version: 1
limits:
  bucket_max_articles: 4
sources:
  - name: Only Feed
    type: rss
    url: https://example.com/feed.xml
    enabled: true
translation:
  dictionary:
    benchmark: 基准测试
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Limits.BucketMaxArticles)
	assert.Equal(t, 3, cfg.Limits.SummaryMaxItems, "unset fields keep the default")
	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, "Only Feed", cfg.Sources[0].Name)
	assert.Equal(t, "基准测试", cfg.Translation.Dictionary["benchmark"])
	assert.Equal(t, "人工智能", cfg.Translation.Dictionary["artificial intelligence"], "dictionary entries merge")
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	t.Run("explicit path missing", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
	t.Run("unknown field", func(t *testing.T) {
		_, err := Load(writeConfig(t, "version: 1\nbukets: []\n"))
		assert.Error(t, err)
	})
	t.Run("invalid values", func(t *testing.T) {
		_, err := Load(writeConfig(t, "version: 1\ndefault_bucket: weather\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "default_bucket")
	})
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("AINEWS_HTML_PATH", "/srv/www/index.html")
	t.Setenv("MAX_TRANSLATION_REQUESTS", "7")
	t.Setenv("NEWSAPI_KEY", "k-news")
	t.Setenv("GEMINI_API_KEY", "k-gemini")
	t.Setenv("DEBUG", "true")

	cfg, err := Load(writeConfig(t, "version: 1\n"))
	require.NoError(t, err)
	assert.Equal(t, "/srv/www/index.html", cfg.Document.Path)
	assert.Equal(t, 7, cfg.Translation.MaxRequests)
	assert.Equal(t, "k-news", cfg.NewsAPIKey)
	assert.Equal(t, "k-gemini", cfg.GeminiAPIKey)
	assert.Empty(t, cfg.OpenAIAPIKey)
	assert.True(t, cfg.Debug)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	cfg.Version = 2
	cfg.DefaultBucket = "weather"
	cfg.Translation.TargetScript = "Klingon"
	cfg.Translation.MinRatio = 0.9
	cfg.Sources = append(cfg.Sources,
		Source{Name: "bad type", Type: "gopher", URL: "https://example.com"},
		Source{Name: "bad url", Type: "rss", URL: "ftp://example.com/feed"},
		Source{Name: "scrape", Type: "html", URL: "https://example.com"},
		Source{Name: "search", Type: "newsapi", URL: "https://newsapi.org/v2/everything"},
	)
	cfg.ClassifyOrder = append(cfg.ClassifyOrder, "investment")

	fields := map[string]bool{}
	for _, e := range cfg.Validate() {
		fields[e.Field] = true
	}
	n := len(cfg.Sources)
	for _, f := range []string{
		"version",
		"default_bucket",
		"translation.target_script",
		"translation.min_ratio",
		"classify_order",
		fmt.Sprintf("sources[%d].type", n-4),
		fmt.Sprintf("sources[%d].url", n-3),
		fmt.Sprintf("sources[%d]", n-2),
		fmt.Sprintf("sources[%d].query", n-1),
	} {
		assert.True(t, fields[f], "expected a validation error for %s", f)
	}
}

func TestClassifyRulesFollowPriorityOrder(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	var got []classify.Key
	for _, r := range cfg.ClassifyRules() {
		got = append(got, r.Key)
	}
	assert.Equal(t, []classify.Key{
		classify.Investment, classify.Product, classify.Hardware,
		classify.BigModel, classify.Global, classify.Industry,
	}, got)

	cfg.ClassifyOrder = []string{"hardware"}
	got = got[:0]
	for _, r := range cfg.ClassifyRules() {
		got = append(got, r.Key)
	}
	assert.Equal(t, classify.Hardware, got[0])
	assert.Len(t, got, len(cfg.Buckets), "unordered buckets are still tested")
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"0", 0, false},
		{"90m", 90 * time.Minute, false},
		{"24h", 24 * time.Hour, false},
		{"7d", 7 * 24 * time.Hour, false},
		{"xd", 0, true},
		{"-1h", 0, true},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnabledSources(t *testing.T) {
	cfg := &Config{Sources: []Source{
		{Name: "a", Enabled: true},
		{Name: "b"},
		{Name: "c", Enabled: true, Limit: 2},
	}}
	got := cfg.EnabledSources()
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, 5, got[0].ItemLimit(5))
	assert.Equal(t, 2, got[1].ItemLimit(5))
}
