package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArticleReady(t *testing.T) {
	base := Article{ID: "id-1", SummaryLocalized: "- point", Embedding: []float32{0.1}}
	assert.True(t, base.Ready())

	noSummary := base
	noSummary.SummaryLocalized = "  "
	assert.False(t, noSummary.Ready())

	noEmbedding := base
	noEmbedding.Embedding = nil
	assert.False(t, noEmbedding.Ready())

	noID := base
	noID.ID = ""
	assert.False(t, noID.Ready())
}

func TestMetadataRoundTrip(t *testing.T) {
	ingested := time.Date(2025, time.March, 3, 8, 30, 0, 0, time.UTC)
	article := Article{
		ID:               "abc",
		Title:            "Title",
		Link:             "https://example.com/a",
		Source:           SourceBBC,
		Published:        "Mon, 03 Mar 2025 08:00:00 GMT",
		RawSummary:       "raw",
		FullText:         "full",
		SummaryLocalized: "- bullet",
		Embedding:        []float32{1, 2, 3},
		IngestedAt:       ingested,
	}

	meta := article.Metadata()
	_, hasEmbedding := meta["embedding"]
	assert.False(t, hasEmbedding)
	assert.Equal(t, "- bullet", meta[MetaSummary])

	rebuilt := ArticleFromMetadata(meta)
	article.Embedding = nil
	require.Equal(t, article, rebuilt)
}

func TestRecordFromArticleCopiesVector(t *testing.T) {
	article := Article{ID: "x", Embedding: []float32{1, 2}}
	record := RecordFromArticle(article)
	article.Embedding[0] = 9

	assert.Equal(t, []float32{1, 2}, record.Values)
	assert.Equal(t, "x", record.Metadata[MetaID])
}

func TestEmptyBriefingHasNonNilCategories(t *testing.T) {
	b := EmptyBriefing()
	require.NotNil(t, b.Categories)
	assert.Len(t, b.Categories, 0)
}
