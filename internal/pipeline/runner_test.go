package pipeline

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockIngester struct {
	RunFunc func(ctx context.Context) (*RunStats, error)
	calls   atomic.Int32
}

func (m *mockIngester) Run(ctx context.Context) (*RunStats, error) {
	m.calls.Add(1)
	return m.RunFunc(ctx)
}

// blockingIngester runs until release is closed and signals started once running.
func blockingIngester() (*mockIngester, chan struct{}, chan struct{}) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	return &mockIngester{RunFunc: func(ctx context.Context) (*RunStats, error) {
		started <- struct{}{}
		<-release
		return &RunStats{Persisted: 2}, nil
	}}, started, release
}

func TestRunnerRun(t *testing.T) {
	ingester := &mockIngester{RunFunc: func(ctx context.Context) (*RunStats, error) {
		return &RunStats{Persisted: 4}, nil
	}}
	runner := NewRunner(ingester)

	stats, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Persisted)

	// The guard is released after each run.
	_, err = runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), ingester.calls.Load())
}

func TestRunnerSkipsWhileBackgroundRunActive(t *testing.T) {
	ingester, started, release := blockingIngester()
	runner := NewRunner(ingester)

	done := make(chan *RunStats, 1)
	require.True(t, runner.Start(context.Background(), func(stats *RunStats, err error) {
		assert.NoError(t, err)
		done <- stats
	}))
	<-started

	stats, err := runner.Run(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)
	assert.Nil(t, stats)
	assert.False(t, runner.Start(context.Background(), nil))

	close(release)
	select {
	case stats := <-done:
		assert.Equal(t, 2, stats.Persisted)
	case <-time.After(2 * time.Second):
		t.Fatal("background run did not finish")
	}
	assert.Equal(t, int32(1), ingester.calls.Load())
}

func TestRunnerStartRefusedDuringRun(t *testing.T) {
	ingester, started, release := blockingIngester()
	runner := NewRunner(ingester)

	runErr := make(chan error, 1)
	go func() {
		_, err := runner.Run(context.Background())
		runErr <- err
	}()
	<-started

	assert.False(t, runner.Start(context.Background(), nil))

	close(release)
	require.NoError(t, <-runErr)
	assert.Equal(t, int32(1), ingester.calls.Load())
}

func TestRunnerWait(t *testing.T) {
	t.Run("idle", func(t *testing.T) {
		runner := NewRunner(&mockIngester{})
		assert.NoError(t, runner.Wait(context.Background()))
	})

	t.Run("times out while a run is active", func(t *testing.T) {
		ingester, started, release := blockingIngester()
		defer close(release)
		runner := NewRunner(ingester)

		require.True(t, runner.Start(context.Background(), nil))
		<-started

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, runner.Wait(ctx), context.DeadlineExceeded)
	})

	t.Run("returns once the run finishes", func(t *testing.T) {
		ingester, started, release := blockingIngester()
		runner := NewRunner(ingester)

		var finished atomic.Bool
		require.True(t, runner.Start(context.Background(), func(*RunStats, error) {
			finished.Store(true)
		}))
		<-started

		waitErr := make(chan error, 1)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			waitErr <- runner.Wait(ctx)
		}()

		close(release)
		require.NoError(t, <-waitErr)
		assert.True(t, finished.Load())

		// Wait does not hold the guard.
		assert.True(t, runner.Start(context.Background(), nil))
		require.NoError(t, runner.Wait(context.Background()))
	})
}
