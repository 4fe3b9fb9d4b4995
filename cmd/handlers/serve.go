package handlers

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"newsdesk/internal/config"
	"newsdesk/internal/logger"
	"newsdesk/internal/scheduler"
	"newsdesk/internal/server"
)

// NewServeCmd creates the serve command for starting the HTTP server
func NewServeCmd() *cobra.Command {
	var (
		port         int
		host         string
		staticDir    string
		withSchedule bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP server for the briefing and chat API",
		Long: `Start the newsdesk web server.

The server provides:
  • GET  /api/briefing  categorized daily briefing
  • POST /api/chat      answers grounded in the stored news
  • GET  /health        health check
  • POST /api/ingest    admin-triggered ingestion (requires server.admin_api_key)
  • the static front-end when server.static_dir is set

Examples:
  # Start server on the configured port (default 5000)
  newsdesk serve

  # Serve a front-end directory on a custom port
  newsdesk serve --port 8080 --static-dir ./frontend

  # Also run the ingestion schedule in the same process
  newsdesk serve --schedule`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port, host, staticDir, withSchedule)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "HTTP server port (default from config: 5000)")
	cmd.Flags().StringVar(&host, "host", "", "HTTP server host (default from config: 0.0.0.0)")
	cmd.Flags().StringVar(&staticDir, "static-dir", "", "Static files directory (default from config)")
	cmd.Flags().BoolVar(&withSchedule, "schedule", false, "Run scheduled ingestion alongside the server")

	return cmd
}

func runServe(ctx context.Context, port int, host, staticDir string, withSchedule bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.Get()

	// Override server config from flags if provided
	serverCfg := cfg.Server
	if port != 0 {
		serverCfg.Port = port
	}
	if host != "" {
		serverCfg.Host = host
	}
	if staticDir != "" {
		serverCfg.StaticDir = staticDir
	}

	svc, err := newServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	runner, err := svc.runner()
	if err != nil {
		return err
	}

	srv := server.New(svc.news, serverCfg, server.WithIngester(runner))

	if withSchedule {
		sched, err := scheduler.New(cfg.Schedule.Cron, cfg.Schedule.Timezone, scheduledIngest(runner))
		if err != nil {
			return fmt.Errorf("failed to create scheduler: %w", err)
		}
		sched.Start(ctx)
		defer sched.Stop()
	}

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	// Start server in a goroutine
	go func() {
		log.Info(fmt.Sprintf("Server listening on http://%s:%d", serverCfg.Host, serverCfg.Port))
		log.Info("Press Ctrl+C to stop")
		serverErrors <- srv.Start()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	// Block until we receive our signal or an error from server
	select {
	case err := <-serverErrors:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case sig := <-shutdown:
		log.Info("Server shutdown initiated", "signal", sig.String())

		// Create shutdown context with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			config.Duration(serverCfg.ShutdownTimeout, server.DefaultShutdownTimeout))
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}
