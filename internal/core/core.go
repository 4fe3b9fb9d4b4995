// Package core holds the records shared by the ingestion and retrieval paths.
package core

import (
	"strings"
	"time"
)

// Source tags for the built-in adapters. Additional sources use their configured name.
const (
	SourceBBC     = "BBC"
	SourceCNN     = "CNN"
	SourceReuters = "Reuters"
)

// RawItem is what a source adapter emits for a single candidate article.
// Missing optional fields are empty strings.
type RawItem struct {
	Title      string `json:"title"`
	Link       string `json:"link"`
	RawSummary string `json:"raw_summary"`
	FullText   string `json:"full_text"`
	Published  string `json:"published"`
	Source     string `json:"source"`
}

// Article is the canonical record produced by normalization and completed by enrichment.
type Article struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Link             string    `json:"link"`
	Source           string    `json:"source"`
	Published        string    `json:"published"`
	RawSummary       string    `json:"raw_summary"`
	FullText         string    `json:"full_text"`
	SummaryLocalized string    `json:"summary"`
	Embedding        []float32 `json:"-"`
	IngestedAt       time.Time `json:"ingested_at"`
}

// Ready reports whether the article carries both enrichment results and may be persisted.
func (a Article) Ready() bool {
	return a.ID != "" && strings.TrimSpace(a.SummaryLocalized) != "" && len(a.Embedding) > 0
}

// Metadata keys stored next to every vector.
const (
	MetaID         = "id"
	MetaTitle      = "title"
	MetaLink       = "link"
	MetaSource     = "source"
	MetaPublished  = "published"
	MetaRawSummary = "raw_summary"
	MetaFullText   = "full_text"
	MetaSummary    = "summary"
	MetaIngestedAt = "ingested_at"
)

// Metadata flattens every field except the embedding.
func (a Article) Metadata() map[string]string {
	ingested := ""
	if !a.IngestedAt.IsZero() {
		ingested = a.IngestedAt.UTC().Format(time.RFC3339)
	}
	return map[string]string{
		MetaID:         a.ID,
		MetaTitle:      a.Title,
		MetaLink:       a.Link,
		MetaSource:     a.Source,
		MetaPublished:  a.Published,
		MetaRawSummary: a.RawSummary,
		MetaFullText:   a.FullText,
		MetaSummary:    a.SummaryLocalized,
		MetaIngestedAt: ingested,
	}
}

// ArticleFromMetadata rebuilds an article (without embedding) from stored metadata.
func ArticleFromMetadata(meta map[string]string) Article {
	a := Article{
		ID:               meta[MetaID],
		Title:            meta[MetaTitle],
		Link:             meta[MetaLink],
		Source:           meta[MetaSource],
		Published:        meta[MetaPublished],
		RawSummary:       meta[MetaRawSummary],
		FullText:         meta[MetaFullText],
		SummaryLocalized: meta[MetaSummary],
	}
	if ts := meta[MetaIngestedAt]; ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			a.IngestedAt = t
		}
	}
	return a
}

// VectorRecord is the persisted unit.
type VectorRecord struct {
	ID       string
	Values   []float32
	Metadata map[string]string
}

// RecordFromArticle converts a ready article into its stored form.
func RecordFromArticle(a Article) VectorRecord {
	values := make([]float32, len(a.Embedding))
	copy(values, a.Embedding)
	return VectorRecord{ID: a.ID, Values: values, Metadata: a.Metadata()}
}

// Match is one ranked result of a vector query.
type Match struct {
	ID       string            `json:"id"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata"`
}

// Briefing is the categorized daily briefing returned to the front-end.
type Briefing struct {
	Categories []BriefingCategory `json:"categories"`
}

// BriefingCategory groups briefing entries under a named topic.
type BriefingCategory struct {
	Name     string          `json:"name"`
	Articles []BriefingEntry `json:"articles"`
}

// BriefingEntry is a translated headline with a one-sentence takeaway.
type BriefingEntry struct {
	OriginalTitle  string `json:"original_title"`
	LocalizedTitle string `json:"zh_title"`
	Takeaway       string `json:"takeaway"`
}

// EmptyBriefing is the degraded briefing: a valid object with no categories.
func EmptyBriefing() Briefing {
	return Briefing{Categories: []BriefingCategory{}}
}

// ChatResponse is the answer returned for a free-text question.
type ChatResponse struct {
	Response string `json:"response"`
}
