// Package mocks provides hand-written fakes for the generation and embedding services.
package mocks

import (
	"context"
	"hash/fnv"
	"sync"

	"newsdesk/internal/llm"
)

// MockGenerator provides a mock implementation of llm.Generator
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, prompt string, opts llm.Options) (string, error)

	mu      sync.Mutex
	prompts []string
	options []llm.Options
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.options = append(m.options, opts)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt, opts)
	}
	return "- mock summary", nil
}

// Calls returns how many times Generate was invoked.
func (m *MockGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// Prompts returns a copy of every prompt received.
func (m *MockGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// LastOptions returns the options of the most recent call.
func (m *MockGenerator) LastOptions() llm.Options {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.options) == 0 {
		return llm.Options{}
	}
	return m.options[len(m.options)-1]
}

// MockEmbedder provides a mock implementation of llm.Embedder
type MockEmbedder struct {
	EmbedFunc func(ctx context.Context, text string, hint llm.TaskHint) ([]float32, error)
	// Dimension of the default vectors; 8 when zero.
	Dimension int

	mu    sync.Mutex
	hints []llm.TaskHint
}

func (m *MockEmbedder) Embed(ctx context.Context, text string, hint llm.TaskHint) ([]float32, error) {
	m.mu.Lock()
	m.hints = append(m.hints, hint)
	m.mu.Unlock()

	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, text, hint)
	}
	return HashVector(text, m.Dimension), nil
}

// Calls returns how many times Embed was invoked.
func (m *MockEmbedder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hints)
}

// Hints returns a copy of every task hint received.
func (m *MockEmbedder) Hints() []llm.TaskHint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.TaskHint(nil), m.hints...)
}

// HashVector returns a deterministic non-zero vector derived from text.
func HashVector(text string, dim int) []float32 {
	if dim <= 0 {
		dim = 8
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	v := make([]float32, dim)
	for i := range v {
		seed = seed*6364136223846793005 + 1442695040888963407
		v[i] = float32(seed>>40)/float32(1<<24) + 0.01
	}
	return v
}
