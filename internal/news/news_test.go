package news

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/ainews/internal/classify"
	"github.com/deusflow/ainews/internal/config"
	"github.com/deusflow/ainews/internal/content"
	"github.com/deusflow/ainews/internal/filter"
	"github.com/deusflow/ainews/internal/metrics"
	"github.com/deusflow/ainews/internal/models"
	"github.com/deusflow/ainews/internal/text"
)

var now = time.Date(2025, 1, 8, 12, 0, 0, 0, time.UTC)

func ago(d time.Duration) *time.Time {
	t := now.Add(-d)
	return &t
}

type recordingLocalizer struct {
	maxes []int
}

func (r *recordingLocalizer) Localize(_ context.Context, s string, max int) string {
	r.maxes = append(r.maxes, max)
	return text.Truncate(s, max)
}

func testPipeline(t *testing.T, loc Localizer) (*Pipeline, *metrics.Metrics) {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)

	c, err := classify.New(cfg.ClassifyRules(), classify.Key(cfg.DefaultBucket))
	require.NoError(t, err)

	m := metrics.New()
	opts := Options{
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
	p := New(opts, filter.New(cfg.FilterRules(), nil), c, loc, m, nil).WithClock(func() time.Time { return now })
	return p, m
}

func TestBuildSingleArticle(t *testing.T) {
	p, m := testPipeline(t, nil)

	db := p.Build(context.Background(), []models.RawArticle{{
		Title:       "OpenAI announces GPT-5",
		Body:        "<p>OpenAI today introduced its newest model.</p>",
		URL:         "https://openai.com/index/gpt-5",
		SourceName:  "OpenAI Blog",
		PublishedAt: ago(time.Hour),
	}})

	require.Equal(t, 1, db.ArticleCount())
	bucket := db.Bucket("bigModel")
	require.NotNil(t, bucket)
	require.Len(t, bucket.Articles, 1)
	a := bucket.Articles[0]
	assert.Equal(t, "OpenAI announces GPT-5", a.Title)
	assert.Equal(t, "OpenAI today introduced its newest model.", a.Summary)
	assert.Equal(t, "OpenAI Blog", a.Source)
	assert.Equal(t, "https://openai.com/index/gpt-5", a.SourceURL)

	require.Len(t, db.Summaries, 1)
	require.Len(t, db.Summaries[0], 1)
	assert.Equal(t, "OpenAI Blog", db.Summaries[0][0].Source)
	assert.Equal(t, int64(1), m.Snapshot().ArticlesAccepted)
}

func TestBuildRejectsBlockedDomain(t *testing.T) {
	p, m := testPipeline(t, nil)

	db := p.Build(context.Background(), []models.RawArticle{{
		Title:      "AI startup announces partnership",
		Body:       "Press release.",
		URL:        "https://www.prnewswire.com/news/ai-startup",
		SourceName: "Wire",
	}})

	assert.Zero(t, db.ArticleCount())
	assert.Empty(t, db.Summaries[0])
	assert.Equal(t, int64(1), m.Snapshot().Rejected[string(filter.ReasonBlockedDomain)])
}

func TestBuildEmptyInput(t *testing.T) {
	p, _ := testPipeline(t, nil)
	db := p.Build(context.Background(), nil)

	var keys []string
	for _, b := range db.Categories {
		keys = append(keys, b.Key)
		assert.NotNil(t, b.Articles)
		assert.Empty(t, b.Articles)
	}
	assert.Equal(t, []string{"bigModel", "hardware", "global", "investment", "industry", "product"}, keys)

	data, err := content.Marshal(db)
	require.NoError(t, err)
	var root map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &root))
	var compact bytes.Buffer
	require.NoError(t, json.Compact(&compact, root["summaries"]))
	assert.Equal(t, "[[]]", compact.String())
}

func TestBuildDropsMissingURLDuplicatesAndStale(t *testing.T) {
	p, m := testPipeline(t, nil)

	db := p.Build(context.Background(), []models.RawArticle{
		{Title: "Nvidia unveils a new AI chip", URL: "https://example.com/chip", SourceName: "A", PublishedAt: ago(time.Hour)},
		{Title: "Nvidia unveils a new AI chip", URL: "https://www.example.com/chip/?utm_source=rss", SourceName: "B", PublishedAt: ago(time.Hour)},
		{Title: "AI chip without a link", URL: "  ", SourceName: "C"},
		{Title: "Old AI chip news", URL: "https://example.com/old", SourceName: "D", PublishedAt: ago(5 * 24 * time.Hour)},
		{Title: "Undated AI robot story", URL: "https://example.com/robot", SourceName: "E"},
	})

	s := m.Snapshot()
	assert.Equal(t, int64(5), s.ArticlesFetched)
	assert.Equal(t, int64(1), s.DuplicatesFiltered)
	assert.Equal(t, int64(1), s.MissingURL)
	assert.Equal(t, int64(1), s.StaleFiltered)
	assert.Equal(t, 2, db.ArticleCount())

	hw := db.Bucket("hardware")
	require.Len(t, hw.Articles, 2)
	assert.Equal(t, "A", hw.Articles[0].Source, "dated articles come before undated ones")
	assert.Equal(t, "E", hw.Articles[1].Source)
}

func TestBuildOrdersNewestFirstAndCapsBuckets(t *testing.T) {
	p, m := testPipeline(t, nil)

	var raw []models.RawArticle
	for i := 9; i >= 0; i-- { // oldest first
		raw = append(raw, models.RawArticle{
			Title:       fmt.Sprintf("New LLM checkpoint %d", i),
			Body:        "Details.",
			URL:         fmt.Sprintf("https://lab.example.com/%d", i),
			SourceName:  "Lab",
			PublishedAt: ago(time.Duration(i) * time.Hour),
		})
	}
	db := p.Build(context.Background(), raw)

	bm := db.Bucket("bigModel")
	require.Len(t, bm.Articles, 8)
	for i, a := range bm.Articles {
		assert.Equal(t, fmt.Sprintf("New LLM checkpoint %d", i), a.Title)
	}
	assert.Equal(t, int64(2), m.Snapshot().ArticlesOverflow)
	require.Len(t, db.Summaries[0], 1, "one summary per source")
	assert.Equal(t, "https://lab.example.com/0", db.Summaries[0][0].URL)
}

func TestBuildSummariesPreferPrioritySources(t *testing.T) {
	p, _ := testPipeline(t, nil)

	db := p.Build(context.Background(), []models.RawArticle{
		{Title: "AI regulation debate", Body: "one", URL: "https://r.example/1", SourceName: "Random Daily", PublishedAt: ago(time.Hour)},
		{Title: "AI jobs market shifts", Body: "two", URL: "https://w.example/2", SourceName: "Wired AI", PublishedAt: ago(2 * time.Hour)},
		{Title: "OpenAI research update", Body: "three", URL: "https://o.example/3", SourceName: "OpenAI Blog", PublishedAt: ago(3 * time.Hour)},
		{Title: "AI policy in Europe", Body: "four", URL: "https://x.example/4", SourceName: "Other", PublishedAt: ago(4 * time.Hour)},
	})

	var sources []string
	for _, s := range db.Summaries[0] {
		sources = append(sources, s.Source)
	}
	assert.Equal(t, []string{"OpenAI Blog", "Wired AI", "Random Daily"}, sources)
}

func TestBuildLocalizesTitleAndBody(t *testing.T) {
	loc := &recordingLocalizer{}
	p, _ := testPipeline(t, loc)

	p.Build(context.Background(), []models.RawArticle{
		{Title: "Anthropic releases Claude", Body: "", URL: "https://a.example/1", SourceName: "S"},
	})
	assert.Equal(t, []int{100, 200}, loc.maxes)
}

func TestBuildUsesPlaceholders(t *testing.T) {
	p, _ := testPipeline(t, nil)
	db := p.Build(context.Background(), []models.RawArticle{
		{Title: "AI &amp; robots", Body: "<div> </div>", URL: "https://a.example/1", SourceName: "S"},
	})
	require.Equal(t, 1, db.ArticleCount())
	hw := db.Bucket("hardware")
	require.Len(t, hw.Articles, 1)
	assert.Equal(t, "AI & robots", hw.Articles[0].Title)
	assert.Equal(t, "暂无摘要", hw.Articles[0].Summary)
}

func TestDedupeKey(t *testing.T) {
	same := []string{
		"https://example.com/a",
		"http://www.Example.com/a/",
		"https://example.com/a?utm_source=x&utm_medium=y#top",
	}
	for _, s := range same {
		assert.Equal(t, "example.com/a", dedupeKey(s), s)
	}
	assert.Equal(t, "example.com/a?id=2", dedupeKey("https://example.com/a?id=2&ref=feed"))
	assert.NotEqual(t, dedupeKey("https://example.com/a?id=1"), dedupeKey("https://example.com/a?id=2"))
}

func TestBuildAcceptsShortTermsInsideWords(t *testing.T) {
	p, m := testPipeline(t, nil)

	db := p.Build(context.Background(), []models.RawArticle{
		{Title: "xAI releases Grok 3", URL: "https://x.ai/news/grok-3", SourceName: "xAI", PublishedAt: ago(time.Hour)},
		{Title: "GenAI spending doubles", URL: "https://example.com/genai", SourceName: "Wire", PublishedAt: ago(2 * time.Hour)},
	})

	assert.Equal(t, 2, db.ArticleCount())
	assert.Zero(t, m.TotalRejected())
}

func TestBuildOverflowArticlesStillOfferSummaries(t *testing.T) {
	loc := &recordingLocalizer{}
	p, m := testPipeline(t, loc)

	var raw []models.RawArticle
	for i := 1; i <= 8; i++ {
		raw = append(raw, models.RawArticle{
			Title:       fmt.Sprintf("New LLM checkpoint %d", i),
			Body:        "From lab A.",
			URL:         fmt.Sprintf("https://a.example/%d", i),
			SourceName:  "Lab A",
			PublishedAt: ago(time.Duration(i) * time.Hour),
		})
	}
	raw = append(raw,
		models.RawArticle{Title: "Another LLM checkpoint", Body: "From lab B.", URL: "https://b.example/1", SourceName: "Lab B", PublishedAt: ago(9 * time.Hour)},
		models.RawArticle{Title: "Nvidia ships a new GPU", Body: "From C.", URL: "https://c.example/1", SourceName: "Lab C", PublishedAt: ago(10 * time.Hour)},
	)

	db := p.Build(context.Background(), raw)

	assert.Len(t, db.Bucket("bigModel").Articles, 8)
	assert.Len(t, db.Bucket("hardware").Articles, 1)
	assert.Equal(t, int64(1), m.Snapshot().ArticlesOverflow)

	var sources []string
	for _, s := range db.Summaries[0] {
		sources = append(sources, s.Source)
	}
	assert.Equal(t, []string{"Lab A", "Lab B", "Lab C"}, sources)
	assert.Equal(t, "From lab B.", db.Summaries[0][1].Text)
	assert.Equal(t, "https://b.example/1", db.Summaries[0][1].URL)

	// 9 placed articles localize title and body; the overflow one only its body.
	assert.Len(t, loc.maxes, 9*2+1)
}
