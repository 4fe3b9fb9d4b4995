package handlers

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"newsdesk/internal/logger"
	"newsdesk/internal/vectorstore"
)

// NewMigrateCmd creates the migrate command for provisioning the vector store
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the vector store schema",
		Long: `Create the tables and indexes the configured vector store needs.

For pgvector this enables the vector extension and creates the table and its
HNSW index. The sqlite backend creates its table on open, so this is a no-op
beyond verifying the file can be opened. Running it again is safe.

Example:
  DATABASE_URL=postgres://localhost/news?sslmode=disable newsdesk migrate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func runMigrate(ctx context.Context, out io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := vectorstore.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open vector store: %w", err)
	}
	defer store.Close()

	migrator, ok := store.(vectorstore.Migrator)
	if !ok {
		fmt.Fprintf(out, "Backend %q needs no migration\n", cfg.Store.Backend)
		return nil
	}

	logger.Info("Applying vector store schema", "backend", cfg.Store.Backend)
	if err := migrator.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Fprintf(out, "✓ Vector store schema ready (%s)\n", cfg.Store.Backend)
	return nil
}
