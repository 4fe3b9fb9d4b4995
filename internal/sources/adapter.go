// Package sources collects raw news items from configured sources.
package sources

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"newsdesk/internal/core"
)

// DefaultLimit is the per-source item cap applied when none is configured.
const DefaultLimit = 5

// Config describes one configured source.
type Config struct {
	Name    string
	Kind    string
	URL     string
	Limit   int
	Options map[string]string
}

// Option returns the named adapter option or fallback when unset.
func (c Config) Option(key, fallback string) string {
	if v, ok := c.Options[key]; ok && v != "" {
		return v
	}
	return fallback
}

func (c Config) limit() int {
	if c.Limit > 0 {
		return c.Limit
	}
	return DefaultLimit
}

// Adapter turns one external source into raw items. Collect may return the
// items gathered before a failure together with the error.
type Adapter interface {
	Name() string
	Collect(ctx context.Context, cfg Config) ([]core.RawItem, error)
}

// Factory builds an adapter for a named source.
type Factory func(name string) Adapter

// Source pairs an adapter with its configuration.
type Source struct {
	Adapter Adapter
	Config  Config
}

// Registry maps adapter kinds to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// NewDefaultRegistry registers the rss and html adapter kinds.
func NewDefaultRegistry(feeds FeedFetcher, pages PageFetcher, extractor Extractor) *Registry {
	r := NewRegistry()
	r.Register("rss", func(name string) Adapter {
		return NewRSSAdapter(name, feeds, extractor)
	})
	r.Register("html", func(name string) Adapter {
		return NewHTMLAdapter(name, pages, extractor)
	})
	return r
}

// Register adds or replaces the factory for kind.
func (r *Registry) Register(kind string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = factory
}

// Kinds returns the registered adapter kinds in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Build resolves each config to an adapter. An unknown kind is a configuration error.
func (r *Registry) Build(configs []Config) ([]Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Source, 0, len(configs))
	for _, cfg := range configs {
		kind := cfg.Kind
		if kind == "" {
			kind = "rss"
		}
		factory, ok := r.factories[kind]
		if !ok {
			return nil, fmt.Errorf("source %q: unknown adapter kind %q", cfg.Name, kind)
		}
		cfg.Kind = kind
		out = append(out, Source{Adapter: factory(cfg.Name), Config: cfg})
	}
	return out, nil
}
