package identity

import (
	"testing"

	"newsdesk/internal/core"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.bbc.com/news/world-1", "https://www.bbc.com/news/world-1"},
		{"http://WWW.BBC.co.uk/news/world-1/", "https://www.bbc.co.uk/news/world-1"},
		{"https://edition.cnn.com/a?utm_source=rss&utm_medium=feed", "https://edition.cnn.com/a"},
		{"https://www.bbc.com/news/x?at_medium=RSS&at_campaign=KARANGA#top", "https://www.bbc.com/news/x"},
		{"https://example.com/p?b=2&a=1&fbclid=abc", "https://example.com/p?a=1&b=2"},
		{"https://example.com/", "https://example.com/"},
		{"  not a link  ", "not a link"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonical(tt.in))
		})
	}
}

func TestIDIsStable(t *testing.T) {
	a := ID("http://www.bbc.co.uk/news/world-1?at_medium=RSS")
	b := ID("https://www.bbc.co.uk/news/world-1/")
	assert.Equal(t, a, b)

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(5), parsed.Version())

	assert.NotEqual(t, a, ID("https://www.bbc.co.uk/news/world-2"))
}

func TestAssign(t *testing.T) {
	a := Assign(core.Article{Link: "http://Example.com/story/?utm_campaign=x"})
	assert.Equal(t, "https://example.com/story", a.Link)
	assert.Equal(t, ID("https://example.com/story"), a.ID)
}

func TestAssignAllSkipsMissingLinks(t *testing.T) {
	out := AssignAll([]core.Article{{Title: "no link"}, {Title: "ok", Link: "https://example.com/a"}})
	require.Len(t, out, 1)
	assert.Equal(t, "ok", out[0].Title)
}

func TestDedupe(t *testing.T) {
	articles := AssignAll([]core.Article{
		{Title: "first", Link: "https://example.com/a"},
		{Title: "other", Link: "https://example.com/b"},
		{Title: "second", Link: "http://example.com/a/"},
	})

	out := Dedupe(articles)
	require.Len(t, out, 2)
	assert.Equal(t, "second", out[0].Title, "last write wins at the first position")
	assert.Equal(t, "other", out[1].Title)
}
