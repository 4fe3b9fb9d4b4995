// Package fetch downloads article pages and turns HTML into plain text.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"newsdesk/internal/core"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

const maxPageBytes = 10 << 20

var (
	whitespaceRegex = regexp.MustCompile(`[ \t\f\v]+`)
	newlineRegex    = regexp.MustCompile(`(\n\s*){2,}`)
)

// Extractor returns the readable body text of the page at a link.
type Extractor interface {
	Extract(ctx context.Context, link string) (string, error)
}

// Client fetches pages over HTTP
type Client struct {
	http      *http.Client
	userAgent string
	maxChars  int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(cl *Client) {
		if ua != "" {
			cl.userAgent = ua
		}
	}
}

// WithMaxChars truncates extracted text to n runes. Zero disables truncation.
func WithMaxChars(n int) Option {
	return func(cl *Client) {
		cl.maxChars = n
	}
}

// NewClient creates a page client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{Timeout: 20 * time.Second},
		userAgent: "Mozilla/5.0 (compatible; newsdesk/1.0)",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get downloads rawURL and returns the body bytes.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status code %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("read body from %s: %w", rawURL, err)
	}
	return body, nil
}

// Document downloads rawURL and parses it into a goquery document.
func (c *Client) Document(ctx context.Context, rawURL string) (*goquery.Document, error) {
	body, err := c.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html from %s: %w", rawURL, err)
	}
	return doc, nil
}

// Extract fetches the page and returns its main text. Readability is tried
// first; pages it cannot handle fall back to a paragraph walk.
func (c *Client) Extract(ctx context.Context, link string) (string, error) {
	parsedURL, err := url.Parse(link)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return "", fmt.Errorf("%w: invalid URL %q", core.ErrExtraction, link)
	}

	body, err := c.Get(ctx, link)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrExtraction, err)
	}

	var text string
	if article, err := readability.FromReader(bytes.NewReader(body), parsedURL); err == nil {
		text = CleanText(article.TextContent)
	}
	if text == "" {
		text = paragraphText(body)
	}
	if text == "" {
		return "", fmt.Errorf("%w: no text extracted from %s", core.ErrExtraction, link)
	}

	return truncateRunes(text, c.maxChars), nil
}

// paragraphText extracts block-level text from the main content area.
func paragraphText(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	doc.Find("script, style, nav, footer, header, aside, form, iframe, noscript").Remove()

	var textBuilder strings.Builder
	for _, selector := range []string{"article", "main", "[role='main']", "body"} {
		doc.Find(selector).First().Find("p, h1, h2, h3, li, blockquote").Each(func(_ int, item *goquery.Selection) {
			if t := strings.TrimSpace(item.Text()); t != "" {
				textBuilder.WriteString(t)
				textBuilder.WriteString("\n\n")
			}
		})
		if textBuilder.Len() > 0 {
			break
		}
	}

	return CleanText(textBuilder.String())
}

// StripHTML returns the text content of an HTML fragment with whitespace
// collapsed. Plain text passes through unchanged apart from whitespace.
func StripHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return CleanText(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return CleanText(fragment)
	}
	return CleanText(doc.Text())
}

// CleanText collapses runs of spaces and blank lines and trims the result.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = whitespaceRegex.ReplaceAllString(s, " ")
	s = newlineRegex.ReplaceAllString(s, "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
