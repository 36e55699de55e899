// Package scraper extracts article lists from HTML pages that have no feed.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/deusflow/ainews/internal/config"
	"github.com/deusflow/ainews/internal/models"
	"github.com/deusflow/ainews/internal/retry"
)

var ErrNoDescription = errors.New("no description found")

const userAgent = "ainews/1.0 (+https://github.com/deusflow/ainews)"

// Selectors locate the parts of one list entry. Item is matched against
// the page; the others are matched inside each item.
type Selectors struct {
	Item    string
	Title   string
	Link    string // empty: the title's own or enclosing link
	Summary string // optional
}

func SelectorsFor(s config.Source) Selectors {
	return Selectors{
		Item:    s.ItemSelector,
		Title:   s.TitleSelector,
		Link:    s.LinkSelector,
		Summary: s.SummarySelector,
	}
}

type Scraper struct {
	client  *http.Client
	limiter *rate.Limiter
	limit   int
	retry   retry.RetryConfig
	log     *slog.Logger
}

// New returns a scraper that issues at most perSecond requests per second
// across all pages; zero or less disables pacing.
func New(timeout time.Duration, perSecond float64, limit int, rc retry.RetryConfig, log *slog.Logger) *Scraper {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if perSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scraper{
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
		limit:   limit,
		retry:   rc,
		log:     log,
	}
}

// Fetch scrapes the list page of an html source. Entries the list shows
// without a summary get one from their own page; a failure there only
// leaves the body empty.
func (s *Scraper) Fetch(ctx context.Context, source config.Source) ([]models.RawArticle, error) {
	articles, err := s.Scrape(ctx, source.URL, SelectorsFor(source), source.ItemLimit(s.limit))
	if err != nil {
		return nil, fmt.Errorf("scraping %s: %w", source.Name, err)
	}
	for i := range articles {
		articles[i].SourceName = source.Name
		if articles[i].Body != "" {
			continue
		}
		desc, err := s.Describe(ctx, articles[i].URL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.log.Debug("no description", "source", source.Name, "url", articles[i].URL, "error", err)
			continue
		}
		articles[i].Body = desc
	}
	return articles, nil
}

// Scrape returns up to limit entries from pageURL in page order. Entries
// without a title or link are skipped; relative links are resolved.
func (s *Scraper) Scrape(ctx context.Context, pageURL string, sel Selectors, limit int) ([]models.RawArticle, error) {
	if sel.Item == "" || sel.Title == "" {
		return nil, fmt.Errorf("item and title selectors are required")
	}
	doc, err := s.load(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL: %w", err)
	}
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if b, err := base.Parse(href); err == nil {
			base = b
		}
	}

	var articles []models.RawArticle
	seen := make(map[string]bool)
	doc.Find(sel.Item).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if limit > 0 && len(articles) >= limit {
			return false
		}
		titleSel := item.Find(sel.Title).First()
		title := strings.Join(strings.Fields(titleSel.Text()), " ")
		if title == "" {
			return true
		}

		link := resolve(base, findHref(item, titleSel, sel.Link))
		if link == "" || seen[link] {
			return true
		}
		seen[link] = true

		var summary string
		if sel.Summary != "" {
			summary = strings.TrimSpace(item.Find(sel.Summary).First().Text())
		}

		articles = append(articles, models.RawArticle{
			Title:       title,
			Body:        summary,
			URL:         link,
			PublishedAt: findTime(item),
		})
		return true
	})

	s.log.Debug("page scraped", "url", pageURL, "items", len(articles))
	return articles, nil
}

// Describe returns a short description of an article page: its meta
// description when present, otherwise the first body paragraphs.
func (s *Scraper) Describe(ctx context.Context, pageURL string) (string, error) {
	doc, err := s.load(ctx, pageURL)
	if err != nil {
		return "", err
	}
	for _, sel := range []string{`meta[property="og:description"]`, `meta[name="description"]`, `meta[name="twitter:description"]`} {
		if v, ok := doc.Find(sel).First().Attr("content"); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), nil
		}
	}
	if text := firstParagraphs(doc); text != "" {
		return text, nil
	}
	return "", ErrNoDescription
}

func (s *Scraper) load(ctx context.Context, pageURL string) (*goquery.Document, error) {
	return retry.Value(ctx, s.retry, func(ctx context.Context) (*goquery.Document, error) {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, retry.Permanent(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, retry.Permanent(err)
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("error loading page: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("HTTP error: %d", resp.StatusCode)
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return nil, err
			}
			return nil, retry.Permanent(err)
		}

		doc, err := goquery.NewDocumentFromReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("error parsing HTML: %w", err)
		}
		return doc, nil
	})
}

func findHref(item, title *goquery.Selection, linkSel string) string {
	if linkSel != "" {
		if href, ok := item.Find(linkSel).First().Attr("href"); ok {
			return href
		}
		if href, ok := item.Attr("href"); ok && goquery.NodeName(item) == "a" {
			return href
		}
		return ""
	}
	if href, ok := title.Attr("href"); ok {
		return href
	}
	if href, ok := title.Find("a[href]").First().Attr("href"); ok {
		return href
	}
	if href, ok := title.Closest("a[href]").Attr("href"); ok {
		return href
	}
	href, _ := item.Find("a[href]").First().Attr("href")
	return href
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return ""
	}
	u, err := base.Parse(href)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	u.Fragment = ""
	return u.String()
}

func findTime(item *goquery.Selection) *time.Time {
	v, ok := item.Find("time[datetime]").First().Attr("datetime")
	if !ok {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
			return &t
		}
	}
	return nil
}

// articleContainers are tried in order; the first one holding substantial
// paragraphs supplies the description.
var articleContainers = []string{
	`[itemprop="articleBody"]`,
	"article",
	".post-content, .entry-content, .article-content",
	"main",
	"body",
}

const (
	minParagraphRunes   = 20
	describedParagraphs = 3
)

func firstParagraphs(doc *goquery.Document) string {
	for _, container := range articleContainers {
		var found []string
		doc.Find(container).First().Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
			text := strings.Join(strings.Fields(p.Text()), " ")
			if utf8.RuneCountInString(text) > minParagraphRunes {
				found = append(found, text)
			}
			return len(found) < describedParagraphs
		})
		if len(found) > 0 {
			return strings.Join(found, " ")
		}
	}
	return ""
}
