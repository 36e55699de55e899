package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/deusflow/ainews/internal/app"
)

const headlineWidth = 48

// writeReport prints the run status and one aligned line per bucket. Titles
// are mostly CJK, so widths are measured in terminal cells.
func writeReport(w io.Writer, res *app.Result) {
	switch res.Status {
	case app.StatusUpdated:
		color.New(color.FgGreen).Fprintf(w, "✓ updated %s (%s)\n", res.Path, res.Fingerprint)
	case app.StatusUnchanged:
		color.New(color.FgYellow).Fprintf(w, "= %s unchanged (%s)\n", res.Path, res.Fingerprint)
	case app.StatusDryRun:
		color.New(color.FgCyan).Fprintf(w, "~ dry run, %s not written\n", res.Path)
	}
	if res.Database == nil {
		return
	}

	width := 0
	for _, b := range res.Database.Categories {
		width = max(width, runewidth.StringWidth(b.Title))
	}
	for _, b := range res.Database.Categories {
		line := fmt.Sprintf("  %s %2d", runewidth.FillRight(b.Title, width), len(b.Articles))
		if len(b.Articles) > 0 {
			line += "  " + runewidth.Truncate(b.Articles[0].Title, headlineWidth, "...")
		}
		fmt.Fprintln(w, line)
	}

	summaries := 0
	if len(res.Database.Summaries) > 0 {
		summaries = len(res.Database.Summaries[0])
	}
	s := res.Stats
	fmt.Fprintf(w, "  %d summaries | fetched %d, accepted %d, rejected %d, duplicates %d, sources failed %d\n",
		summaries, s.ArticlesFetched, s.ArticlesAccepted, sumRejected(s.Rejected), s.DuplicatesFiltered, s.SourcesFailed)

	if line := budgetLine(res.Budget); line != "" {
		fmt.Fprintln(w, "  translation requests: "+line)
	}
}

// budgetLine lists "<provider> <used>" pairs, with denials when there were any.
func budgetLine(stats map[string]interface{}) string {
	var providers []string
	for k := range stats {
		if p, ok := strings.CutSuffix(k, "_used"); ok && p != "total" {
			providers = append(providers, p)
		}
	}
	sort.Strings(providers)

	parts := make([]string, 0, len(providers))
	for _, p := range providers {
		part := fmt.Sprintf("%s %v", p, stats[p+"_used"])
		if d, ok := stats[p+"_denied"].(int); ok && d > 0 {
			part += fmt.Sprintf(" (%d denied)", d)
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ", ")
}

func sumRejected(m map[string]int64) int64 {
	var n int64
	for _, v := range m {
		n += v
	}
	return n
}
