// Package normalize converts raw source items into canonical articles.
package normalize

import (
	"strings"

	"newsdesk/internal/core"
	"newsdesk/internal/fetch"
)

// Normalize maps a raw item to an article. HTML is stripped from the title
// and summary, whitespace is trimmed, and FullText falls back to the summary.
func Normalize(item core.RawItem) core.Article {
	summary := fetch.StripHTML(item.RawSummary)
	fullText := strings.TrimSpace(item.FullText)
	if fullText == "" {
		fullText = summary
	}

	return core.Article{
		Title:      collapse(fetch.StripHTML(item.Title)),
		Link:       strings.TrimSpace(item.Link),
		Source:     strings.TrimSpace(item.Source),
		Published:  strings.TrimSpace(item.Published),
		RawSummary: summary,
		FullText:   fullText,
	}
}

// All normalizes items in order.
func All(items []core.RawItem) []core.Article {
	out := make([]core.Article, 0, len(items))
	for _, item := range items {
		out = append(out, Normalize(item))
	}
	return out
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
