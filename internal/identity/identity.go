// Package identity assigns content-addressed IDs and removes duplicates.
package identity

import (
	"net/url"
	"sort"
	"strings"

	"newsdesk/internal/core"

	"github.com/google/uuid"
)

var trackingParams = map[string]bool{
	"fbclid":      true,
	"gclid":       true,
	"at_medium":   true,
	"at_campaign": true,
}

// Canonical returns the normalized form of a link used for identity.
// Unparseable links are returned trimmed.
func Canonical(link string) string {
	link = strings.TrimSpace(link)
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return link
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme == "http" {
		u.Scheme = "https"
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""

	if len(u.Path) > 1 {
		u.Path = strings.TrimRight(u.Path, "/")
		if u.Path == "" {
			u.Path = "/"
		}
		u.RawPath = ""
	}

	u.RawQuery = canonicalQuery(u.Query())
	return u.String()
}

func canonicalQuery(q url.Values) string {
	keys := make([]string, 0, len(q))
	for k := range q {
		lower := strings.ToLower(k)
		if trackingParams[lower] || strings.HasPrefix(lower, "utm_") {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		values := append([]string(nil), q[k]...)
		sort.Strings(values)
		for _, v := range values {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

// ID returns the deterministic identifier of a link.
func ID(link string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(Canonical(link))).String()
}

// Assign sets the article ID and rewrites its link to the canonical form.
func Assign(a core.Article) core.Article {
	a.Link = Canonical(a.Link)
	a.ID = ID(a.Link)
	return a
}

// AssignAll assigns IDs to every article, skipping those without a link.
func AssignAll(articles []core.Article) []core.Article {
	out := make([]core.Article, 0, len(articles))
	for _, a := range articles {
		if strings.TrimSpace(a.Link) == "" {
			continue
		}
		out = append(out, Assign(a))
	}
	return out
}

// Dedupe collapses articles sharing an ID. The last occurrence wins but
// keeps the position of the first.
func Dedupe(articles []core.Article) []core.Article {
	index := make(map[string]int, len(articles))
	out := make([]core.Article, 0, len(articles))
	for _, a := range articles {
		if i, ok := index[a.ID]; ok {
			out[i] = a
			continue
		}
		index[a.ID] = len(out)
		out = append(out, a)
	}
	return out
}
