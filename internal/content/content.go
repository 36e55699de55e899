// Package content is the data embedded in the page: headline summaries and
// the topic buckets.
package content

import (
	"fmt"
	"html"
	"unicode/utf8"
)

type Article struct {
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Content   string `json:"content"`
	ReadTime  string `json:"readTime"`
	Source    string `json:"source"`
	SourceURL string `json:"sourceUrl"`
}

type SummaryItem struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	URL    string `json:"url"`
}

// Bucket is one topic section of the page. Key is carried by the
// enclosing Categories object, not by the bucket body.
type Bucket struct {
	Key         string    `json:"-"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Articles    []Article `json:"articles"`
}

// Add appends a while the bucket holds fewer than max articles. The first
// max articles win; later ones are dropped.
func (b *Bucket) Add(a Article, max int) bool {
	if len(b.Articles) >= max {
		return false
	}
	b.Articles = append(b.Articles, a)
	return true
}

// Database is the root object assigned to the page marker.
type Database struct {
	Summaries  [][]SummaryItem `json:"summaries"`
	Categories Categories      `json:"categories"`
}

// NewDatabase returns an empty database with one bucket per definition,
// in the given order, and an empty summary group.
func NewDatabase(defs []Bucket) *Database {
	db := &Database{
		Summaries:  [][]SummaryItem{{}},
		Categories: make(Categories, 0, len(defs)),
	}
	for _, d := range defs {
		db.Categories = append(db.Categories, Bucket{
			Key:         d.Key,
			Title:       d.Title,
			Description: d.Description,
			Icon:        d.Icon,
			Articles:    []Article{},
		})
	}
	return db
}

// SetSummaries replaces the headline group.
func (db *Database) SetSummaries(items []SummaryItem) {
	if items == nil {
		items = []SummaryItem{}
	}
	db.Summaries = [][]SummaryItem{items}
}

// Bucket returns the bucket for key, or nil.
func (db *Database) Bucket(key string) *Bucket {
	for i := range db.Categories {
		if db.Categories[i].Key == key {
			return &db.Categories[i]
		}
	}
	return nil
}

// ArticleCount is the number of articles across all buckets.
func (db *Database) ArticleCount() int {
	n := 0
	for _, b := range db.Categories {
		n += len(b.Articles)
	}
	return n
}

const readMoreLink = `<p>%s</p><p><a href='%s' target='_blank' class='text-gold-400 hover:text-gold-300 underline'>查看原文</a></p>`

// NewArticle builds the page representation of an article, including the
// HTML body with a link back to the source.
func NewArticle(title, summary, source, link string) Article {
	return Article{
		Title:     title,
		Summary:   summary,
		Content:   fmt.Sprintf(readMoreLink, html.EscapeString(summary), html.EscapeString(link)),
		ReadTime:  ReadTime(title + summary),
		Source:    source,
		SourceURL: link,
	}
}

// ReadTime estimates reading minutes from text length, clamped to 3-8.
func ReadTime(s string) string {
	minutes := 3 + utf8.RuneCountInString(s)/100
	if minutes > 8 {
		minutes = 8
	}
	return fmt.Sprintf("%d 分钟", minutes)
}
