package sources

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"newsdesk/internal/core"
	"newsdesk/internal/logger"

	"github.com/panjf2000/ants/v2"
)

// DefaultTimeout bounds a single source's collection.
const DefaultTimeout = 45 * time.Second

// SourceReport summarises one source's collection.
type SourceReport struct {
	Source   string
	Items    int
	Err      error
	Duration time.Duration
}

// Collection holds the items gathered from every source.
type Collection struct {
	Items   []core.RawItem
	Reports []SourceReport
}

// Failed returns the number of sources that reported an error.
func (c *Collection) Failed() int {
	n := 0
	for _, r := range c.Reports {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Collector runs every source concurrently with per-source isolation.
type Collector struct {
	sources []Source
	timeout time.Duration
	log     *slog.Logger
}

// NewCollector creates a collector. A non-positive timeout uses DefaultTimeout.
func NewCollector(sources []Source, timeout time.Duration) *Collector {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Collector{
		sources: sources,
		timeout: timeout,
		log:     logger.Component("collector"),
	}
}

// Sources returns the configured sources.
func (c *Collector) Sources() []Source {
	return c.sources
}

// Collect gathers items from all sources. A failing source contributes
// whatever it returned before failing and never affects the others.
func (c *Collector) Collect(ctx context.Context) (*Collection, error) {
	result := &Collection{}
	if len(c.sources) == 0 {
		c.log.Warn("No sources configured")
		return result, nil
	}

	pool, err := ants.NewPool(len(c.sources))
	if err != nil {
		return nil, fmt.Errorf("failed to create collector pool: %w", err)
	}
	defer pool.Release()

	c.log.Info("Starting collection", "source_count", len(c.sources), "timeout", c.timeout)

	items := make([][]core.RawItem, len(c.sources))
	reports := make([]SourceReport, len(c.sources))
	var wg sync.WaitGroup

	for i, src := range c.sources {
		reports[i].Source = src.Adapter.Name()

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			items[i], reports[i] = c.collectOne(ctx, src)
		})
		if submitErr != nil {
			wg.Done()
			reports[i].Err = fmt.Errorf("%w: %s: %v", core.ErrSourceUnavailable, reports[i].Source, submitErr)
		}
	}

	wg.Wait()

	for i := range c.sources {
		result.Items = append(result.Items, items[i]...)
		result.Reports = append(result.Reports, reports[i])
	}

	c.log.Info("Collection completed",
		"items", len(result.Items),
		"failed_sources", result.Failed(),
	)

	return result, nil
}

func (c *Collector) collectOne(ctx context.Context, src Source) (items []core.RawItem, report SourceReport) {
	name := src.Adapter.Name()
	report.Source = name
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			report.Err = fmt.Errorf("%w: %s: panic: %v", core.ErrSourceUnavailable, name, r)
			c.log.Error("Source panicked", "source", name, "panic", r)
		}
		report.Items = len(items)
		report.Duration = time.Since(start)
	}()

	items, err := src.Adapter.Collect(ctx, src.Config)
	if err != nil {
		report.Err = err
		c.log.Error("Failed to collect source", "source", name, "collected", len(items), "error", err)
		return items, report
	}

	c.log.Info("Collected source", "source", name, "items", len(items), "duration", time.Since(start))
	return items, report
}
