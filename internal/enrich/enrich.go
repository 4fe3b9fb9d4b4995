// Package enrich attaches a localized summary and an embedding to articles.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"newsdesk/internal/core"
	"newsdesk/internal/llm"
	"newsdesk/internal/logger"

	"github.com/panjf2000/ants/v2"
)

// Defaults for the enrichment stage.
const (
	DefaultWorkers       = 4
	DefaultCallTimeout   = 60 * time.Second
	DefaultMaxInputChars = 30000
)

// Stage names recorded on dropped articles.
const (
	StageSummarize = "summarize"
	StageEmbed     = "embed"
)

// Options configures the stage.
type Options struct {
	Language      string
	Workers       int
	CallTimeout   time.Duration
	MaxInputChars int
	Generation    llm.Options
}

// Outcome records what happened to one article.
type Outcome struct {
	ArticleID string
	Title     string
	Stage     string
	Err       error
}

// Dropped reports whether the article failed enrichment.
func (o Outcome) Dropped() bool {
	return o.Err != nil
}

// Result holds the enriched articles and a per-article outcome in input order.
type Result struct {
	Ready    []core.Article
	Outcomes []Outcome
}

// DroppedCount returns the number of articles that failed enrichment.
func (r *Result) DroppedCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Dropped() {
			n++
		}
	}
	return n
}

// Stage summarizes then embeds each article.
type Stage struct {
	generator llm.Generator
	embedder  llm.Embedder
	opts      Options
	now       func() time.Time
	log       *slog.Logger
}

// NewStage creates an enrichment stage, filling unset options with defaults.
func NewStage(generator llm.Generator, embedder llm.Embedder, opts Options) *Stage {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	if opts.MaxInputChars <= 0 {
		opts.MaxInputChars = DefaultMaxInputChars
	}
	if opts.Language == "" {
		opts.Language = llm.DefaultLanguage
	}
	if opts.Generation.MaxOutputTokens == 0 && len(opts.Generation.Safety) == 0 {
		opts.Generation = llm.DefaultOptions()
	}
	return &Stage{
		generator: generator,
		embedder:  embedder,
		opts:      opts,
		now:       func() time.Time { return time.Now().UTC() },
		log:       logger.Component("enrich"),
	}
}

// Run enriches articles concurrently. Per-article failures never fail the
// run; they drop the article and are reported in Outcomes.
func (s *Stage) Run(ctx context.Context, articles []core.Article) *Result {
	result := &Result{}
	if len(articles) == 0 {
		return result
	}

	enriched := make([]core.Article, len(articles))
	outcomes := make([]Outcome, len(articles))

	workers := s.opts.Workers
	if workers > len(articles) {
		workers = len(articles)
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		s.log.Warn("Failed to create worker pool, enriching sequentially", "error", err)
		for i, a := range articles {
			enriched[i], outcomes[i] = s.enrichOne(ctx, a)
		}
	} else {
		var wg sync.WaitGroup
		for i, a := range articles {
			wg.Add(1)
			if submitErr := pool.Submit(func() {
				defer wg.Done()
				enriched[i], outcomes[i] = s.enrichOne(ctx, a)
			}); submitErr != nil {
				wg.Done()
				outcomes[i] = Outcome{ArticleID: a.ID, Title: a.Title, Stage: StageSummarize,
					Err: fmt.Errorf("%w: %v", core.ErrEnrichment, submitErr)}
			}
		}
		wg.Wait()
		pool.Release()
	}

	for i := range articles {
		result.Outcomes = append(result.Outcomes, outcomes[i])
		if !outcomes[i].Dropped() {
			result.Ready = append(result.Ready, enriched[i])
		}
	}

	s.log.Info("Enrichment completed",
		"input", len(articles),
		"ready", len(result.Ready),
		"dropped", result.DroppedCount(),
	)
	return result
}

func (s *Stage) enrichOne(ctx context.Context, a core.Article) (core.Article, Outcome) {
	outcome := Outcome{ArticleID: a.ID, Title: a.Title}

	summary, err := s.summarize(ctx, a)
	if err != nil {
		outcome.Stage = StageSummarize
		outcome.Err = fmt.Errorf("%w: %s: %v", core.ErrEnrichment, StageSummarize, err)
		s.log.Warn("Dropping article", "id", a.ID, "title", a.Title, "stage", StageSummarize, "error", err)
		return a, outcome
	}

	vector, err := s.embed(ctx, summary)
	if err != nil {
		outcome.Stage = StageEmbed
		outcome.Err = fmt.Errorf("%w: %s: %v", core.ErrEnrichment, StageEmbed, err)
		s.log.Warn("Dropping article", "id", a.ID, "title", a.Title, "stage", StageEmbed, "error", err)
		return a, outcome
	}

	a.SummaryLocalized = summary
	a.Embedding = vector
	a.IngestedAt = s.now()
	return a, outcome
}

func (s *Stage) summarize(ctx context.Context, a core.Article) (string, error) {
	input := truncate(a.Title+"\n"+a.FullText, s.opts.MaxInputChars)

	callCtx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()

	summary, err := s.generator.Generate(callCtx, llm.SummaryPrompt(s.opts.Language, input), s.opts.Generation)
	if err != nil {
		return "", err
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", errors.New("empty summary")
	}
	return summary, nil
}

func (s *Stage) embed(ctx context.Context, summary string) ([]float32, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()

	vector, err := s.embedder.Embed(callCtx, summary, llm.DocumentHint())
	if err != nil {
		return nil, err
	}
	if len(vector) == 0 {
		return nil, errors.New("empty embedding")
	}
	return vector, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
