package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"newsdesk/internal/core"
)

var briefingDate = time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

func TestMarkdownBriefing_Empty(t *testing.T) {
	content := MarkdownBriefing(core.EmptyBriefing(), briefingDate)

	if !strings.HasPrefix(content, "# Daily Briefing - 2026-03-14\n\n") {
		t.Errorf("unexpected heading: %q", content)
	}
	if !strings.Contains(content, "No stories available") {
		t.Error("empty briefing should say no stories are available")
	}
}

func TestMarkdownBriefing_WithCategories(t *testing.T) {
	briefing := core.Briefing{Categories: []core.BriefingCategory{
		{
			Name: "World",
			Articles: []core.BriefingEntry{
				{OriginalTitle: "Summit opens", LocalizedTitle: "峰會開幕", Takeaway: "各國領袖齊聚。"},
				{OriginalTitle: "Ceasefire holds"},
			},
		},
		{
			Name: "Business",
			Articles: []core.BriefingEntry{
				{OriginalTitle: "Rates unchanged", LocalizedTitle: "Rates unchanged", Takeaway: "Markets steady."},
			},
		},
	}}

	content := MarkdownBriefing(briefing, briefingDate)

	expected := "# Daily Briefing - 2026-03-14\n\n" +
		"## World\n\n" +
		"1. **峰會開幕**\n" +
		"   *Summit opens*\n" +
		"   各國領袖齊聚。\n" +
		"2. **Ceasefire holds**\n" +
		"\n" +
		"## Business\n\n" +
		"1. **Rates unchanged**\n" +
		"   Markets steady.\n" +
		"\n"

	if content != expected {
		t.Errorf("unexpected markdown:\n%s\nwant:\n%s", content, expected)
	}
}

func TestHTMLBriefing(t *testing.T) {
	briefing := core.Briefing{Categories: []core.BriefingCategory{
		{Name: "World", Articles: []core.BriefingEntry{{OriginalTitle: "Summit opens", Takeaway: "Leaders meet."}}},
	}}

	content := HTMLBriefing(briefing, briefingDate)

	for _, want := range []string{
		"<title>Daily Briefing - 2026-03-14</title>",
		"<h2 id=\"world\">World</h2>",
		"<strong>Summit opens</strong>",
		"Leaders meet.",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("HTML briefing missing %q:\n%s", want, content)
		}
	}
}

func TestBriefingFilename(t *testing.T) {
	if got := BriefingFilename(briefingDate, "markdown"); got != "briefing_2026-03-14.md" {
		t.Errorf("BriefingFilename(markdown) = %q", got)
	}
	if got := BriefingFilename(briefingDate, "html"); got != "briefing_2026-03-14.html" {
		t.Errorf("BriefingFilename(html) = %q", got)
	}
}

func TestWriteBriefingToFile(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "nested")

	filePath, err := WriteBriefingToFile("# hello\n", tmpDir, "briefing.md")
	if err != nil {
		t.Fatalf("WriteBriefingToFile failed: %v", err)
	}
	if filePath != filepath.Join(tmpDir, "briefing.md") {
		t.Errorf("unexpected path %q", filePath)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("Failed to read briefing file: %v", err)
	}
	if string(content) != "# hello\n" {
		t.Errorf("unexpected content %q", content)
	}
}

func TestWriteBriefingToFile_InvalidDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := WriteBriefingToFile("x", filepath.Join(blocker, "sub"), "b.md"); err == nil {
		t.Error("expected an error when the output directory cannot be created")
	}
}
