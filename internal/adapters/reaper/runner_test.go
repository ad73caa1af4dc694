package reaper

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewRunner_Validation(t *testing.T) {
	_, err := NewRunner(RunnerOptions{})
	assert.Error(t, err)

	_, err = NewRunner(RunnerOptions{Pass: func(context.Context) error { return nil }, Schedule: "not a schedule"})
	assert.ErrorContains(t, err, "parse reaper schedule")

	r, err := NewRunner(RunnerOptions{Pass: func(context.Context) error { return nil }})
	require.NoError(t, err)
	assert.Equal(t, DefaultSchedule, r.spec)
}

func TestRunner_RunOnStartAndStop(t *testing.T) {
	var calls atomic.Int32
	r, err := NewRunner(RunnerOptions{
		Pass: func(context.Context) error {
			calls.Add(1)
			return errors.New("logged, not returned")
		},
		Schedule:   "@every 1h",
		RunOnStart: true,
		Logger:     discardLogger(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestRunner_Ticks(t *testing.T) {
	var calls atomic.Int32
	r, err := NewRunner(RunnerOptions{
		Pass: func(context.Context) error {
			calls.Add(1)
			return nil
		},
		Schedule: "@every 1s",
		Logger:   discardLogger(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Run(ctx) }()

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}
