package sources

import (
	"context"
	"fmt"
	"log/slog"

	"newsdesk/internal/core"
	"newsdesk/internal/feeds"
	"newsdesk/internal/fetch"
	"newsdesk/internal/logger"

	"github.com/PuerkitoBio/goquery"
)

// FeedFetcher downloads and decodes an RSS or Atom feed.
type FeedFetcher interface {
	Fetch(ctx context.Context, feedURL string) (*feeds.Feed, error)
}

// PageFetcher downloads an HTML page as a goquery document.
type PageFetcher interface {
	Document(ctx context.Context, pageURL string) (*goquery.Document, error)
}

// Extractor returns the readable body text of a linked article.
type Extractor interface {
	Extract(ctx context.Context, link string) (string, error)
}

// RSSAdapter collects items from an RSS or Atom feed.
type RSSAdapter struct {
	name      string
	feeds     FeedFetcher
	extractor Extractor
	log       *slog.Logger
}

// NewRSSAdapter creates a feed adapter tagged with name.
func NewRSSAdapter(name string, feeds FeedFetcher, extractor Extractor) *RSSAdapter {
	return &RSSAdapter{
		name:      name,
		feeds:     feeds,
		extractor: extractor,
		log:       logger.Component("sources").With("source", name),
	}
}

// Name returns the source tag.
func (a *RSSAdapter) Name() string { return a.name }

// Collect fetches the feed and the full text of its first entries.
func (a *RSSAdapter) Collect(ctx context.Context, cfg Config) ([]core.RawItem, error) {
	feed, err := a.feeds.Fetch(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrSourceUnavailable, a.name, err)
	}

	entries := feed.Entries
	if limit := cfg.limit(); len(entries) > limit {
		entries = entries[:limit]
	}

	items := make([]core.RawItem, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return items, fmt.Errorf("%w: %s: %v", core.ErrSourceUnavailable, a.name, err)
		}
		if entry.Link == "" {
			continue
		}
		items = append(items, core.RawItem{
			Title:      entry.Title,
			Link:       entry.Link,
			RawSummary: fetch.StripHTML(entry.Description),
			FullText:   extractText(ctx, a.extractor, a.log, entry.Link),
			Published:  entry.Published,
			Source:     a.name,
		})
	}

	return items, nil
}

// extractText returns the article body, or "" when extraction fails.
func extractText(ctx context.Context, extractor Extractor, log *slog.Logger, link string) string {
	if extractor == nil {
		return ""
	}
	text, err := extractor.Extract(ctx, link)
	if err != nil {
		log.Debug("Full text extraction failed", "link", link, "error", err)
		return ""
	}
	return text
}
