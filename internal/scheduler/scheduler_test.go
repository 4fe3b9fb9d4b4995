package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(ctx context.Context) error { return nil }

func TestNew(t *testing.T) {
	s, err := New("0 6 * * *", "Asia/Taipei", noop)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Taipei", s.Location().String())
	assert.Len(t, s.cron.Entries(), 1)
}

func TestNewInvalid(t *testing.T) {
	_, err := New("0 6 * * *", "Invalid/Zone", noop)
	require.Error(t, err)

	_, err = New("every morning", "UTC", noop)
	require.Error(t, err)
}

func TestParseSpec(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", DefaultSpec},
		{"09:30", "30 9 * * *"},
		{"00:00", "0 0 * * *"},
		{"*/15 * * * *", "*/15 * * * *"},
		{"25:00", "25:00"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSpec(tt.input))
		})
	}
}

func TestStartSchedulesInLocation(t *testing.T) {
	s, err := New("06:00", "Asia/Taipei", noop)
	require.NoError(t, err)

	s.Start(context.Background())
	defer s.Stop()

	next := s.Next().In(s.Location())
	assert.Equal(t, 6, next.Hour())
	assert.Equal(t, 0, next.Minute())
	assert.True(t, next.After(time.Now()))
}

func TestTriggerRunsJob(t *testing.T) {
	var calls atomic.Int32
	s, err := New("", "", func(ctx context.Context) error {
		calls.Add(1)
		return errors.New("partial failure")
	})
	require.NoError(t, err)

	assert.True(t, s.Trigger(context.Background()))
	assert.True(t, s.Trigger(context.Background()))
	assert.Equal(t, int32(2), calls.Load())
}

func TestTriggerSkipsOverlappingRun(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	s, err := New("", "UTC", func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})
	require.NoError(t, err)

	done := make(chan bool)
	go func() { done <- s.Trigger(context.Background()) }()

	<-started
	assert.False(t, s.Trigger(context.Background()))

	close(release)
	assert.True(t, <-done)
}

func TestStopCancelsRun(t *testing.T) {
	s, err := New("* * * * *", "UTC", noop)
	require.NoError(t, err)

	s.Start(context.Background())
	ctx := s.context()
	s.Stop()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("run context was not cancelled")
	}
	s.Stop()
}
