package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"newsdesk/internal/pipeline"
)

// NewIngestCmd creates the ingest command for a single ingestion run
func NewIngestCmd() *cobra.Command {
	var (
		snapshot string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Collect, enrich and store the latest articles once",
		Long: `Run one ingestion pass over every configured source.

The run collects items from each source, summarizes and embeds every new
article, and upserts the results into the vector store. A failing source or
article is reported in the run statistics and never stops the others.

Examples:
  # Ingest with the configured sources
  newsdesk ingest

  # Write the snapshot somewhere else and print machine-readable stats
  newsdesk ingest --snapshot /tmp/articles.json --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), cmd.OutOrStdout(), snapshot, asJSON, cmd.Flags().Changed("snapshot"))
		},
	}

	cmd.Flags().StringVar(&snapshot, "snapshot", "", "snapshot file path; empty disables it (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print run statistics as JSON")

	return cmd
}

func runIngest(ctx context.Context, out io.Writer, snapshot string, asJSON, snapshotSet bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if snapshotSet {
		cfg.Pipeline.SnapshotPath = snapshot
	}

	svc, err := newServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	p, err := svc.pipeline()
	if err != nil {
		return err
	}

	stats, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}
	printStats(out, stats)
	return nil
}

func printStats(out io.Writer, stats *pipeline.RunStats) {
	fmt.Fprintf(out, "Ingestion finished in %s\n\n", stats.Duration.Round(time.Millisecond))
	for _, src := range stats.Sources {
		if src.Error != "" {
			fmt.Fprintf(out, "  ✗ %-12s %3d items  %s\n", src.Name, src.Items, src.Error)
			continue
		}
		fmt.Fprintf(out, "  ✓ %-12s %3d items\n", src.Name, src.Items)
	}
	fmt.Fprintf(out, "\n  Collected: %d  Unique: %d  Enriched: %d  Dropped: %d\n",
		stats.Collected, stats.Unique, stats.Enriched, stats.Dropped)
	fmt.Fprintf(out, "  Persisted: %d  Failed chunks: %d  Published: %d\n",
		stats.Persisted, stats.FailedChunks, stats.Published)
	if stats.SnapshotPath != "" {
		fmt.Fprintf(out, "  Snapshot:  %s\n", stats.SnapshotPath)
	}
}
