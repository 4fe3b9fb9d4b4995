package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"newsdesk/internal/core"
	"newsdesk/internal/render"
)

// NewAskCmd creates the ask command for answering a question from stored news
func NewAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from the stored news",
		Long: `Answer a free-text question using the most similar stored articles as context.

Example:
  newsdesk ask "What happened at the climate summit?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd.Context(), cmd.OutOrStdout(), strings.Join(args, " "))
		},
	}
}

// NewBriefingCmd creates the briefing command for printing today's briefing
func NewBriefingCmd() *cobra.Command {
	var (
		format    string
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "briefing",
		Short: "Print the daily briefing",
		Long: `Group the most recent stored articles into categories with translated
titles and one-sentence takeaways, and print the result as JSON, Markdown
or HTML.

Examples:
  newsdesk briefing > briefing.json

  # Save a Markdown briefing as briefings/briefing_YYYY-MM-DD.md
  newsdesk briefing --format markdown --output briefings

  # Standalone HTML page
  newsdesk briefing --format html > briefing.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "json", "markdown", "html":
			default:
				return fmt.Errorf("unsupported format %q (use json, markdown or html)", format)
			}
			return runBriefing(cmd.Context(), cmd.OutOrStdout(), format, outputDir)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json, markdown or html")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "write a Markdown or HTML briefing file into this directory")

	return cmd
}

func runAsk(ctx context.Context, out io.Writer, question string) error {
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("question is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := newServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	resp := svc.news.Chat(ctx, question)
	fmt.Fprintln(out, resp.Response)
	return nil
}

func runBriefing(ctx context.Context, out io.Writer, format, outputDir string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := newServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	return writeBriefing(out, svc.news.Briefing(ctx), format, outputDir, time.Now())
}

func writeBriefing(out io.Writer, briefing core.Briefing, format, outputDir string, now time.Time) error {
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(briefing)
	}

	content := render.MarkdownBriefing(briefing, now)
	if format == "html" {
		content = render.HTMLBriefing(briefing, now)
	}
	if outputDir == "" {
		_, err := io.WriteString(out, content)
		return err
	}

	path, err := render.WriteBriefingToFile(content, outputDir, render.BriefingFilename(now, format))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Briefing saved to %s\n", path)
	return nil
}
