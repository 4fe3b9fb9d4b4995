package handlers

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"newsdesk/internal/logger"
	"newsdesk/internal/scheduler"
)

// NewScheduleCmd creates the schedule command for recurring ingestion
func NewScheduleCmd() *cobra.Command {
	var (
		spec     string
		timezone string
		now      bool
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run ingestion on a recurring schedule",
		Long: `Run ingestion repeatedly until interrupted.

The schedule is a five-field cron expression or a daily HH:MM time,
evaluated in the configured timezone. A run that is still in progress
when the next one is due causes that trigger to be skipped.

Examples:
  # Use schedule.cron and schedule.timezone from the config
  newsdesk schedule

  # Every day at 07:30 Taipei time, plus one run right away
  newsdesk schedule --cron 07:30 --timezone Asia/Taipei --now`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchedule(cmd.Context(), spec, timezone, now)
		},
	}

	cmd.Flags().StringVar(&spec, "cron", "", "cron expression or HH:MM (default from config)")
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA timezone (default from config)")
	cmd.Flags().BoolVar(&now, "now", false, "run once immediately before waiting for the schedule")

	return cmd
}

func runSchedule(ctx context.Context, spec, timezone string, now bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.Get()

	if spec == "" {
		spec = cfg.Schedule.Cron
	}
	if timezone == "" {
		timezone = cfg.Schedule.Timezone
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

	sched, err := scheduler.New(spec, timezone, scheduledIngest(runner))
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched.Start(ctx)
	defer sched.Stop()

	if now {
		sched.Trigger(ctx)
	}

	log.Info("Waiting for scheduled runs", "schedule", scheduler.ParseSpec(spec), "timezone", timezone, "next_run", sched.Next())
	<-ctx.Done()
	log.Info("Scheduler shutdown initiated")
	return nil
}
