// Package reaper schedules the upload reaper.
package reaper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule runs the reaper once a day at midnight.
const DefaultSchedule = "@daily"

// Pass is one cleanup pass. It is satisfied by a closure over service.UploadReaperService.RunOnce.
type Pass func(ctx context.Context) error

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Pass     Pass
	Schedule string // cron expression or descriptor, e.g. "@every 6h"
	// RunOnStart performs a pass immediately instead of waiting for the first tick.
	RunOnStart bool
	Logger     *slog.Logger
}

// Runner runs cleanup passes on a cron schedule.
type Runner struct {
	pass       Pass
	schedule   cron.Schedule
	spec       string
	runOnStart bool
	logger     *slog.Logger
}

// NewRunner validates the schedule and creates a Runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Pass == nil {
		return nil, errors.New("cleanup pass is required")
	}
	spec := strings.TrimSpace(opts.Schedule)
	if spec == "" {
		spec = DefaultSchedule
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse reaper schedule %q: %w", spec, err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		pass:       opts.Pass,
		schedule:   schedule,
		spec:       spec,
		runOnStart: opts.RunOnStart,
		logger:     logger.With("component", "reaper_runner"),
	}, nil
}

// Run schedules passes until ctx is cancelled and waits for a running pass to finish.
// Returns nil on graceful shutdown.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting reaper runner", "schedule", r.spec)

	if r.runOnStart {
		r.runPass(ctx)
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(r.schedule, cron.FuncJob(func() { r.runPass(ctx) }))
	c.Start()

	<-ctx.Done()
	r.logger.InfoContext(ctx, "reaper runner stopping", "reason", ctx.Err())
	<-c.Stop().Done()
	return nil
}

func (r *Runner) runPass(ctx context.Context) {
	if err := r.pass(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			r.logger.DebugContext(ctx, "cleanup cancelled by context", "error", err)
			return
		}
		r.logger.ErrorContext(ctx, "cleanup failed", "error", err)
	}
}
