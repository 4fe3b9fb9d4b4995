package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"newsdesk/internal/core"
	"newsdesk/internal/llm"
)

// Briefing groups recent articles into categories with translated titles
// and one-sentence takeaways. Any failure yields an empty briefing.
func (s *Service) Briefing(ctx context.Context) core.Briefing {
	matches, err := s.retriever.FetchRecent(ctx, s.opts.RecentFetchLimit)
	if err != nil {
		s.log.Error("Failed to fetch recent articles", "error", err)
		return core.EmptyBriefing()
	}
	if len(matches) == 0 {
		s.log.Info("No articles available for briefing")
		return core.EmptyBriefing()
	}
	if len(matches) > s.opts.BriefingLimit {
		matches = matches[:s.opts.BriefingLimit]
	}

	prompt := llm.BriefingPrompt(s.opts.Language, BriefingInput(matches))
	raw, err := s.generator.Generate(ctx, prompt, s.opts.Generation.WithJSON())
	if err != nil {
		s.log.Error("Failed to generate briefing", "error", fmt.Errorf("%w: %v", core.ErrComposition, err))
		return core.EmptyBriefing()
	}

	briefing, err := ParseBriefing(raw)
	if err != nil {
		s.log.Error("Failed to parse briefing", "error", err, "raw_response", raw)
		return core.EmptyBriefing()
	}
	return briefing
}

// BriefingInput renders matches as numbered ID/Title/Summary blocks.
func BriefingInput(matches []core.Match) string {
	var b strings.Builder
	for i, m := range matches {
		fmt.Fprintf(&b, "ID: %d\nTitle: %s\nSummary: %s\n\n", i, m.Metadata[core.MetaTitle], m.Metadata[core.MetaSummary])
	}
	return b.String()
}

// ParseBriefing decodes a model response, stripping code fences and
// repairing common JSON defects before giving up.
func ParseBriefing(raw string) (core.Briefing, error) {
	text := StripFences(raw)

	var briefing core.Briefing
	err := json.Unmarshal([]byte(text), &briefing)
	if err != nil {
		repaired := RepairJSON(text)
		if err2 := json.Unmarshal([]byte(repaired), &briefing); err2 != nil {
			return core.EmptyBriefing(), fmt.Errorf("%w: invalid briefing JSON: %v", core.ErrComposition, err)
		}
	}

	return cleanBriefing(briefing), nil
}

func cleanBriefing(in core.Briefing) core.Briefing {
	out := core.EmptyBriefing()
	for _, c := range in.Categories {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		if c.Articles == nil {
			c.Articles = []core.BriefingEntry{}
		}
		out.Categories = append(out.Categories, c)
	}
	return out
}

// StripFences trims whitespace and removes a leading ```json or ``` fence
// and a trailing ``` fence.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
