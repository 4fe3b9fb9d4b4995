package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"newsdesk/internal/core"
)

// DefaultOutputDir is where briefing files go when no directory is given.
const DefaultOutputDir = "briefings"

// MarkdownBriefing renders a briefing as a Markdown document dated with date.
// Entries with a localized title show it as the heading and keep the
// original title underneath.
func MarkdownBriefing(briefing core.Briefing, date time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Daily Briefing - %s\n\n", date.Format("2006-01-02"))

	if len(briefing.Categories) == 0 {
		b.WriteString("No stories available for this briefing.\n")
		return b.String()
	}

	for _, category := range briefing.Categories {
		fmt.Fprintf(&b, "## %s\n\n", category.Name)
		for i, entry := range category.Articles {
			title := entry.LocalizedTitle
			if title == "" {
				title = entry.OriginalTitle
			}
			fmt.Fprintf(&b, "%d. **%s**\n", i+1, title)
			if entry.LocalizedTitle != "" && entry.OriginalTitle != "" && entry.OriginalTitle != entry.LocalizedTitle {
				fmt.Fprintf(&b, "   *%s*\n", entry.OriginalTitle)
			}
			if entry.Takeaway != "" {
				fmt.Fprintf(&b, "   %s\n", entry.Takeaway)
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}

// HTMLBriefing renders the Markdown briefing as a standalone HTML page.
func HTMLBriefing(briefing core.Briefing, date time.Time) string {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	mdParser := parser.NewWithExtensions(extensions)

	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.HrefTargetBlank | html.CompletePage,
		Title: fmt.Sprintf("Daily Briefing - %s", date.Format("2006-01-02")),
	})

	return string(markdown.ToHTML([]byte(MarkdownBriefing(briefing, date)), mdParser, renderer))
}

// BriefingFilename is the file name used for the briefing of date in the
// given format ("markdown" or "html").
func BriefingFilename(date time.Time, format string) string {
	ext := "md"
	if format == "html" {
		ext = "html"
	}
	return fmt.Sprintf("briefing_%s.%s", date.Format("2006-01-02"), ext)
}

// WriteBriefingToFile writes content into outputDir and returns the file path.
func WriteBriefingToFile(content, outputDir, filename string) (string, error) {
	if outputDir == "" {
		outputDir = DefaultOutputDir
	}

	err := os.MkdirAll(outputDir, 0755)
	if err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	filePath := filepath.Join(outputDir, filename)

	err = os.WriteFile(filePath, []byte(content), 0644)
	if err != nil {
		return "", fmt.Errorf("failed to write briefing file %s: %w", filePath, err)
	}

	return filePath, nil
}
