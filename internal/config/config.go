// Package config loads the run settings: an embedded YAML default, an
// optional user file on top of it, then environment overrides.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/deusflow/ainews/internal/classify"
	"github.com/deusflow/ainews/internal/content"
	"github.com/deusflow/ainews/internal/filter"
	"github.com/deusflow/ainews/internal/splice"
)

//go:embed default_config.yaml
var defaultConfigYAML []byte

// CurrentVersion is the settings document version this build understands.
const CurrentVersion = 1

// Source types.
const (
	SourceRSS     = "rss"
	SourceAtom    = "atom"
	SourceNewsAPI = "newsapi"
	SourceHTML    = "html"
)

type Config struct {
	Version       int               `yaml:"version"`
	Document      DocumentConfig    `yaml:"document"`
	Limits        Limits            `yaml:"limits"`
	Fetch         FetchConfig       `yaml:"fetch"`
	Sources       []Source          `yaml:"sources"`
	Filter        FilterConfig      `yaml:"filter"`
	Buckets       []BucketConfig    `yaml:"buckets"`
	ClassifyOrder []string          `yaml:"classify_order"`
	DefaultBucket string            `yaml:"default_bucket"`
	Summary       SummaryConfig     `yaml:"summary"`
	Translation   TranslationConfig `yaml:"translation"`
	Placeholders  Placeholders      `yaml:"placeholders"`

	// Secrets and switches read from the environment only.
	GeminiAPIKey string `yaml:"-"`
	OpenAIAPIKey string `yaml:"-"`
	NewsAPIKey   string `yaml:"-"`
	Debug        bool   `yaml:"-"`
}

type DocumentConfig struct {
	Path      string   `yaml:"path"`
	Marker    string   `yaml:"marker"`
	Sentinels []string `yaml:"sentinels"`
}

type Limits struct {
	BucketMaxArticles int      `yaml:"bucket_max_articles"`
	SummaryMaxItems   int      `yaml:"summary_max_items"`
	TitleMaxLen       int      `yaml:"title_max_len"`
	BodyMaxLen        int      `yaml:"body_max_len"`
	SummaryTextLen    int      `yaml:"summary_text_len"`
	PerSourceItems    int      `yaml:"per_source_items"`
	MaxAge            Duration `yaml:"max_age"` // 0 disables the freshness window
}

type FetchConfig struct {
	Concurrency   int      `yaml:"concurrency"`
	Timeout       Duration `yaml:"timeout"`
	RetryAttempts int      `yaml:"retry_attempts"`
	RetryDelay    Duration `yaml:"retry_delay"`
	ScrapeRate    float64  `yaml:"scrape_rate"` // requests per second for html sources
}

type Source struct {
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type"`
	URL      string   `yaml:"url"`
	Enabled  bool     `yaml:"enabled"`
	Limit    int      `yaml:"limit"`
	Query    string   `yaml:"query"`
	Lookback Duration `yaml:"lookback"`

	ItemSelector    string `yaml:"item_selector"`
	TitleSelector   string `yaml:"title_selector"`
	LinkSelector    string `yaml:"link_selector"`
	SummarySelector string `yaml:"summary_selector"`
}

type FilterConfig struct {
	BlockedDomains  []string `yaml:"blocked_domains"`
	DisallowedTerms []string `yaml:"disallowed_terms"`
	DomainTerms     []string `yaml:"domain_terms"`
}

type BucketConfig struct {
	Key         string   `yaml:"key"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Icon        string   `yaml:"icon"`
	Keywords    []string `yaml:"keywords"`
}

type SummaryConfig struct {
	PrioritySources []string `yaml:"priority_sources"`
}

type TranslationConfig struct {
	TargetLanguage  string            `yaml:"target_language"`
	TargetScript    string            `yaml:"target_script"`
	RatioThreshold  float64           `yaml:"ratio_threshold"`
	MinRatio        float64           `yaml:"min_ratio"`
	UntranslatedTag string            `yaml:"untranslated_tag"`
	Google          bool              `yaml:"google"`
	GoogleEndpoint  string            `yaml:"google_endpoint"`
	GeminiModel     string            `yaml:"gemini_model"`
	OpenAIModel     string            `yaml:"openai_model"`
	MaxRequests     int               `yaml:"max_requests"` // per provider per run, 0 = unlimited
	Timeout         Duration          `yaml:"timeout"`
	DetectLanguages []string          `yaml:"detect_languages"`
	Dictionary      map[string]string `yaml:"dictionary"`
}

type Placeholders struct {
	Title   string `yaml:"title"`
	Summary string `yaml:"summary"`
}

// DefaultPath is the user settings file under the XDG config home.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "ainews", "config.yaml")
}

// Default returns the embedded settings without a user file or environment.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := decode(defaultConfigYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return cfg, nil
}

// Load reads settings from path on top of the embedded default. An empty
// path means DefaultPath; a missing file there is not an error. Environment
// overrides are applied last and the result is validated.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// Lists in the user file replace the defaults; maps are merged.
		if err := decode(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg.applyEnv()

	if errs := cfg.Validate(); len(errs) > 0 {
		joined := make([]error, 0, len(errs))
		for _, e := range errs {
			joined = append(joined, e)
		}
		return cfg, fmt.Errorf("invalid config: %w", errors.Join(joined...))
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(cfg)
}

func (c *Config) applyEnv() {
	c.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	c.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	c.NewsAPIKey = os.Getenv("NEWSAPI_KEY")
	c.Document.Path = getEnvOrDefault("AINEWS_HTML_PATH", c.Document.Path)
	c.Translation.MaxRequests = getEnvIntOrDefault("MAX_TRANSLATION_REQUESTS", c.Translation.MaxRequests)
	c.Fetch.Concurrency = getEnvIntOrDefault("FETCH_CONCURRENCY", c.Fetch.Concurrency)

	if debug := os.Getenv("DEBUG"); debug == "true" {
		c.Debug = true
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// EnabledSources returns the enabled sources in configured order.
func (c *Config) EnabledSources() []Source {
	var out []Source
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// ItemLimit is the per-source cap, falling back to the global limit.
func (s Source) ItemLimit(def int) int {
	if s.Limit > 0 {
		return s.Limit
	}
	return def
}

func (c *Config) FilterRules() filter.Rules {
	return filter.Rules{
		BlockedDomains:  c.Filter.BlockedDomains,
		DisallowedTerms: c.Filter.DisallowedTerms,
		DomainTerms:     c.Filter.DomainTerms,
	}
}

// ClassifyRules returns bucket keyword sets in classification priority
// order. Buckets missing from classify_order are tested last, in page order.
func (c *Config) ClassifyRules() []classify.Rule {
	byKey := make(map[string]BucketConfig, len(c.Buckets))
	for _, b := range c.Buckets {
		byKey[b.Key] = b
	}
	rules := make([]classify.Rule, 0, len(c.Buckets))
	used := make(map[string]bool, len(c.Buckets))
	for _, k := range c.ClassifyOrder {
		b, ok := byKey[k]
		if !ok || used[k] {
			continue
		}
		used[k] = true
		rules = append(rules, classify.Rule{Key: classify.Key(k), Keywords: b.Keywords})
	}
	for _, b := range c.Buckets {
		if !used[b.Key] {
			used[b.Key] = true
			rules = append(rules, classify.Rule{Key: classify.Key(b.Key), Keywords: b.Keywords})
		}
	}
	return rules
}

// BucketDefs returns the page sections in page order.
func (c *Config) BucketDefs() []content.Bucket {
	defs := make([]content.Bucket, 0, len(c.Buckets))
	for _, b := range c.Buckets {
		defs = append(defs, content.Bucket{
			Key:         b.Key,
			Title:       b.Title,
			Description: b.Description,
			Icon:        b.Icon,
		})
	}
	return defs
}

func (c *Config) Splicer() splice.Splicer {
	return splice.Splicer{Marker: c.Document.Marker, Sentinels: c.Document.Sentinels}
}

// Duration accepts Go duration strings plus a whole-day suffix ("3d").
type Duration time.Duration

func (d Duration) D() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// ParseDuration parses "0", "90m", "24h" or "7d".
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid duration %q: negative", s)
	}
	return d, nil
}
