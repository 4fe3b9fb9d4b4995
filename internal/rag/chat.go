package rag

import (
	"context"
	"fmt"
	"strings"

	"newsdesk/internal/core"
	"newsdesk/internal/llm"
)

// Chat answers message from the most similar stored articles.
func (s *Service) Chat(ctx context.Context, message string) core.ChatResponse {
	vector, err := s.embedder.Embed(ctx, message, llm.QueryHint())
	if err != nil || len(vector) == 0 {
		s.log.Error("Failed to embed question", "error", err)
		return core.ChatResponse{Response: EmbedFailureResponse}
	}

	matches, err := s.retriever.Query(ctx, vector, s.opts.TopK)
	if err != nil {
		s.log.Warn("Retrieval failed, answering without context", "error", err)
		matches = nil
	}

	prompt := llm.AnswerPrompt(s.opts.Language, BuildContext(matches, s.opts.ContextBudgetChars), message)
	answer, err := s.generator.Generate(ctx, prompt, s.opts.Generation)
	if err != nil {
		s.log.Error("Failed to generate answer", "error", fmt.Errorf("%w: %v", core.ErrComposition, err))
		return core.ChatResponse{Response: GenerationFailureResponse}
	}

	return core.ChatResponse{Response: strings.TrimSpace(answer)}
}

// BuildContext renders matches as Title/Content/Source blocks separated by
// blank lines. Content is the full text, falling back to the summary.
// Each block's content is cut to an even share of budget and the whole
// context never exceeds budget runes.
func BuildContext(matches []core.Match, budget int) string {
	if len(matches) == 0 {
		return ""
	}
	if budget <= 0 {
		budget = DefaultContextBudgetChars
	}
	share := budget / len(matches)

	var b strings.Builder
	used := 0
	for _, m := range matches {
		content := m.Metadata[core.MetaFullText]
		if strings.TrimSpace(content) == "" {
			content = m.Metadata[core.MetaSummary]
		}

		block := fmt.Sprintf("Title: %s\nContent: %s\nSource: %s\n\n",
			m.Metadata[core.MetaTitle], truncateRunes(content, share), m.Metadata[core.MetaSource])

		n := len([]rune(block))
		if used+n > budget {
			block = truncateRunes(block, budget-used)
			n = len([]rune(block))
		}
		b.WriteString(block)
		used += n
		if used >= budget {
			break
		}
	}
	return b.String()
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
