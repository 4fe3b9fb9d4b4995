package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"newsdesk/internal/logger"
)

// ErrRunInProgress is returned when a run is requested while another is active.
var ErrRunInProgress = errors.New("ingestion already running")

// Ingester runs one ingestion pass
type Ingester interface {
	Run(ctx context.Context) (*RunStats, error)
}

// Runner serialises runs of one pipeline across every trigger (HTTP, cron,
// CLI). At most one pass is active; further requests are skipped, not queued.
type Runner struct {
	ingester Ingester
	slot     chan struct{}
	log      *slog.Logger
}

// NewRunner wraps ingester with a single-run guard.
func NewRunner(ingester Ingester) *Runner {
	return &Runner{
		ingester: ingester,
		slot:     make(chan struct{}, 1),
		log:      logger.Component("runner"),
	}
}

func (r *Runner) acquire() bool {
	select {
	case r.slot <- struct{}{}:
		return true
	default:
		return false
	}
}

func (r *Runner) release() {
	<-r.slot
}

// Run executes one pass synchronously, or returns ErrRunInProgress without
// running when another pass is active.
func (r *Runner) Run(ctx context.Context) (*RunStats, error) {
	if !r.acquire() {
		r.log.Warn("Ingestion already running, skipping")
		return nil, ErrRunInProgress
	}
	defer r.release()

	return r.ingester.Run(ctx)
}

// Start runs one pass in the background and reports the result to done,
// which may be nil. It returns false without running when a pass is active.
func (r *Runner) Start(ctx context.Context, done func(*RunStats, error)) bool {
	if !r.acquire() {
		return false
	}

	go func() {
		defer r.release()
		stats, err := r.ingester.Run(ctx)
		if err != nil {
			r.log.Error("Background ingestion failed", "error", err)
		}
		if done != nil {
			done(stats, err)
		}
	}()
	return true
}

// Wait blocks until no pass is active or ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	select {
	case r.slot <- struct{}{}:
		r.release()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
