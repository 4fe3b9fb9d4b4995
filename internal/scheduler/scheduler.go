// Package scheduler triggers recurring ingestion runs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"newsdesk/internal/logger"
)

// DefaultSpec runs ingestion daily at 06:00.
const DefaultSpec = "0 6 * * *"

var timeRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler runs a job on a cron schedule in a fixed timezone. A trigger that
// fires while the previous run is still in progress is skipped.
type Scheduler struct {
	cron     *cron.Cron
	location *time.Location
	job      Job
	entryID  cron.EntryID
	log      *slog.Logger

	running sync.Mutex
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

// New creates a scheduler. spec is a five-field cron expression or a daily
// HH:MM time; an empty spec uses DefaultSpec.
func New(spec, timezone string, job Job) (*Scheduler, error) {
	if timezone == "" {
		timezone = "UTC"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}

	s := &Scheduler{
		location: loc,
		job:      job,
		log:      logger.Component("scheduler"),
	}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cronLogger{s.log})),
	)

	entryID, err := s.cron.AddFunc(ParseSpec(spec), func() { s.Trigger(s.context()) })
	if err != nil {
		return nil, fmt.Errorf("add cron job %q: %w", spec, err)
	}
	s.entryID = entryID

	return s, nil
}

// ParseSpec converts a daily HH:MM time to a cron expression and passes any
// other non-empty spec through unchanged.
func ParseSpec(spec string) string {
	if spec == "" {
		return DefaultSpec
	}
	matches := timeRegex.FindStringSubmatch(spec)
	if len(matches) != 3 {
		return spec
	}
	hour, _ := strconv.Atoi(matches[1])
	minute, _ := strconv.Atoi(matches[2])
	// Cron format: minute hour day month weekday
	return fmt.Sprintf("%d %d * * *", minute, hour)
}

// Start begins firing the job. Runs use ctx and stop when it is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron.Start()
	s.started = true
	s.log.Info("Scheduler started", "next_run", s.cron.Entry(s.entryID).Next, "timezone", s.location.String())
}

// Stop halts the schedule, cancels a run in progress and waits for it to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.cancel()
	done := s.cron.Stop()
	s.mu.Unlock()

	<-done.Done()
	s.log.Info("Scheduler stopped")
}

// Trigger runs the job now unless a run is already in progress. It reports
// whether the job ran.
func (s *Scheduler) Trigger(ctx context.Context) bool {
	if !s.running.TryLock() {
		s.log.Warn("Previous run still in progress, skipping")
		return false
	}
	defer s.running.Unlock()

	start := time.Now()
	if err := s.job(ctx); err != nil {
		s.log.Error("Scheduled run failed", "error", err, "duration", time.Since(start))
		return true
	}
	s.log.Info("Scheduled run finished", "duration", time.Since(start))
	return true
}

// Next returns the next scheduled run time, or the zero time before Start.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entryID).Next
}

// Location returns the scheduler's timezone.
func (s *Scheduler) Location() *time.Location {
	return s.location
}

func (s *Scheduler) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
