package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"newsdesk/internal/core"
	"newsdesk/internal/logger"

	"github.com/PuerkitoBio/goquery"
)

// Default selectors for story listings.
const (
	DefaultCardSelector     = `li[data-testid="story-card"]`
	DefaultHeadingSelector  = `a[data-testid="Heading"]`
	DefaultFallbackSelector = `h3 a`
)

// HTMLAdapter scrapes story links from a listing page.
type HTMLAdapter struct {
	name      string
	pages     PageFetcher
	extractor Extractor
	log       *slog.Logger
}

// NewHTMLAdapter creates a listing-page adapter tagged with name.
func NewHTMLAdapter(name string, pages PageFetcher, extractor Extractor) *HTMLAdapter {
	return &HTMLAdapter{
		name:      name,
		pages:     pages,
		extractor: extractor,
		log:       logger.Component("sources").With("source", name),
	}
}

// Name returns the source tag.
func (a *HTMLAdapter) Name() string { return a.name }

type listing struct {
	title     string
	href      string
	summary   string
	published string
}

// Collect scrapes the listing page. Story cards are tried first; when none
// match, generic headline links are used instead.
func (a *HTMLAdapter) Collect(ctx context.Context, cfg Config) ([]core.RawItem, error) {
	doc, err := a.pages.Document(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrSourceUnavailable, a.name, err)
	}

	base, err := baseURL(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: bad base url: %v", core.ErrSourceUnavailable, a.name, err)
	}

	limit := cfg.limit()
	found := a.cards(doc, cfg, limit)
	if len(found) == 0 {
		a.log.Debug("No story cards matched, using fallback selector")
		found = a.fallback(doc, cfg, limit)
	}

	items := make([]core.RawItem, 0, len(found))
	for _, l := range found {
		if err := ctx.Err(); err != nil {
			return items, fmt.Errorf("%w: %s: %v", core.ErrSourceUnavailable, a.name, err)
		}
		link := resolve(base, l.href)
		items = append(items, core.RawItem{
			Title:      l.title,
			Link:       link,
			RawSummary: l.summary,
			FullText:   extractText(ctx, a.extractor, a.log, link),
			Published:  l.published,
			Source:     a.name,
		})
	}

	return items, nil
}

func (a *HTMLAdapter) cards(doc *goquery.Document, cfg Config, limit int) []listing {
	var out []listing
	heading := cfg.Option("heading_selector", DefaultHeadingSelector)
	doc.Find(cfg.Option("card_selector", DefaultCardSelector)).EachWithBreak(func(_ int, card *goquery.Selection) bool {
		anchor := card.Find(heading).First()
		title := strings.TrimSpace(anchor.Text())
		href, _ := anchor.Attr("href")
		if title == "" || href == "" {
			return true
		}
		out = append(out, listing{title: title, href: href, summary: title, published: "Today"})
		return len(out) < limit
	})
	return out
}

func (a *HTMLAdapter) fallback(doc *goquery.Document, cfg Config, limit int) []listing {
	var out []listing
	doc.Find(cfg.Option("fallback_selector", DefaultFallbackSelector)).EachWithBreak(func(_ int, anchor *goquery.Selection) bool {
		title := strings.TrimSpace(anchor.Text())
		href, _ := anchor.Attr("href")
		if title == "" || href == "" {
			return true
		}
		out = append(out, listing{title: title, href: href})
		return len(out) < limit
	})
	return out
}

func baseURL(cfg Config) (*url.URL, error) {
	return url.Parse(cfg.Option("base_url", cfg.URL))
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
