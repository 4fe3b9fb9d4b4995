package core

import "errors"

// Failure kinds. Callers wrap them with context and test with errors.Is.
var (
	// ErrSourceUnavailable marks a network, parse, or structural failure in one adapter.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrExtraction marks a failed full-text fetch; the feed summary is used instead.
	ErrExtraction = errors.New("full-text extraction failed")
	// ErrEnrichment marks a failed or empty summarize/embed call for one article.
	ErrEnrichment = errors.New("enrichment failed")
	// ErrPersistence marks a failed upsert of one chunk.
	ErrPersistence = errors.New("persistence failed")
	// ErrRetrieval marks a failed query embedding or vector query at request time.
	ErrRetrieval = errors.New("retrieval failed")
	// ErrComposition marks a briefing response that could not be parsed.
	ErrComposition = errors.New("composition failed")
)
