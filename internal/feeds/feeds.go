// Package feeds provides RSS/Atom feed fetching and parsing
package feeds

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxFeedBytes bounds how much of a feed document is read.
const maxFeedBytes = 8 << 20

// RSS represents an RSS feed structure
type RSS struct {
	XMLName xml.Name `xml:"rss"`
	Channel Channel  `xml:"channel"`
}

// Atom represents an Atom feed structure
type Atom struct {
	XMLName xml.Name    `xml:"feed"`
	Title   string      `xml:"title"`
	Entries []AtomEntry `xml:"entry"`
}

// Channel represents an RSS channel
type Channel struct {
	Title string    `xml:"title"`
	Items []RSSItem `xml:"item"`
}

// RSSItem represents an RSS item
type RSSItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}

// AtomLink represents an Atom link element
type AtomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
}

// AtomEntry represents an Atom entry
type AtomEntry struct {
	Title     string     `xml:"title"`
	Link      []AtomLink `xml:"link"`
	Summary   string     `xml:"summary"`
	Content   string     `xml:"content"`
	Published string     `xml:"published"`
	Updated   string     `xml:"updated"`
}

// Entry is a format-independent feed entry.
type Entry struct {
	Title       string
	Link        string
	Description string
	Published   string
}

// Feed is a parsed RSS or Atom document.
type Feed struct {
	Title   string
	Entries []Entry
}

// Fetcher downloads and parses feeds
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher creates a feed fetcher. A nil client gets a 30s default.
func NewFetcher(client *http.Client, userAgent string) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if userAgent == "" {
		userAgent = "newsdesk/1.0"
	}
	return &Fetcher{client: client, userAgent: userAgent}
}

// Fetch downloads feedURL and parses it as RSS or Atom.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) (*Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read feed: %w", err)
	}

	feed, err := Parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	return feed, nil
}

// Parse decodes an RSS document, falling back to Atom.
func Parse(data []byte) (*Feed, error) {
	var rss RSS
	if err := newDecoder(data).Decode(&rss); err == nil && (rss.Channel.Title != "" || len(rss.Channel.Items) > 0) {
		return fromRSS(rss), nil
	}

	var atom Atom
	if err := newDecoder(data).Decode(&atom); err == nil && (atom.Title != "" || len(atom.Entries) > 0) {
		return fromAtom(atom), nil
	}

	return nil, fmt.Errorf("unable to parse as RSS or Atom feed")
}

func newDecoder(data []byte) *xml.Decoder {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Strict = false
	decoder.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	return decoder
}

func fromRSS(rss RSS) *Feed {
	feed := &Feed{Title: strings.TrimSpace(rss.Channel.Title)}
	for _, item := range rss.Channel.Items {
		link := strings.TrimSpace(item.Link)
		if link == "" && strings.HasPrefix(item.GUID, "http") {
			link = strings.TrimSpace(item.GUID)
		}
		feed.Entries = append(feed.Entries, Entry{
			Title:       strings.TrimSpace(item.Title),
			Link:        link,
			Description: item.Description,
			Published:   strings.TrimSpace(item.PubDate),
		})
	}
	return feed
}

func fromAtom(atom Atom) *Feed {
	feed := &Feed{Title: strings.TrimSpace(atom.Title)}
	for _, entry := range atom.Entries {
		// Find the main link
		var link string
		for _, l := range entry.Link {
			if l.Rel == "" || l.Rel == "alternate" {
				link = l.Href
				break
			}
		}

		description := entry.Summary
		if description == "" {
			description = entry.Content
		}
		published := entry.Published
		if published == "" {
			published = entry.Updated
		}

		feed.Entries = append(feed.Entries, Entry{
			Title:       strings.TrimSpace(entry.Title),
			Link:        strings.TrimSpace(link),
			Description: description,
			Published:   strings.TrimSpace(published),
		})
	}
	return feed
}
