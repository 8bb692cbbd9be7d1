package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// JobFunc is one periodic job entry point.
type JobFunc func(ctx context.Context) error

// Job couples a named job with its period. InitialDelay staggers startup so
// jobs sharing a store do not all fire at once.
type Job struct {
	Name         string
	Interval     time.Duration
	InitialDelay time.Duration
	Run          JobFunc
}

// Runner drives a set of independent periodic jobs. Each job gets its own
// goroutine; within one job, runs are strictly sequential: a run that outlives
// its interval causes the missed ticks to be dropped rather than queued, which
// bounds worst-case resource use.
type Runner struct {
	jobs   []Job
	logger zerolog.Logger
}

// New constructs a Runner.
func New(logger zerolog.Logger) *Runner {
	return &Runner{logger: logger.With().Str("component", "scheduler").Logger()}
}

// Every registers a job to run on a fixed period.
func (r *Runner) Every(interval time.Duration, name string, fn JobFunc) {
	if interval <= 0 {
		panic(fmt.Sprintf("scheduler: job %q interval must be positive", name))
	}
	r.jobs = append(r.jobs, Job{Name: name, Interval: interval, Run: fn})
}

// Add registers a fully specified job.
func (r *Runner) Add(job Job) {
	if job.Interval <= 0 {
		panic(fmt.Sprintf("scheduler: job %q interval must be positive", job.Name))
	}
	r.jobs = append(r.jobs, job)
}

// Start blocks until ctx is cancelled, then waits for in-flight runs to
// complete before returning. Job errors are logged, never fatal; the schedule
// always continues.
func (r *Runner) Start(ctx context.Context) error {
	if len(r.jobs) == 0 {
		return fmt.Errorf("scheduler: no jobs registered")
	}

	var wg sync.WaitGroup
	for _, job := range r.jobs {
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			r.runJob(ctx, job)
		}(job)
	}

	wg.Wait()
	return ctx.Err()
}

func (r *Runner) runJob(ctx context.Context, job Job) {
	logger := r.logger.With().Str("job", job.Name).Logger()

	if job.InitialDelay > 0 {
		timer := time.NewTimer(job.InitialDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	logger.Info().Dur("interval", job.Interval).Msg("job scheduled")
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("job stopped")
			return
		case <-ticker.C:
			r.execute(ctx, job, logger)
		}
	}
}

func (r *Runner) execute(ctx context.Context, job Job, logger zerolog.Logger) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error().Interface("panic", rec).Msg("job panicked")
		}
	}()

	started := time.Now()
	if err := job.Run(ctx); err != nil {
		logger.Error().Err(err).Dur("elapsed", time.Since(started)).Msg("job run failed")
		return
	}
	logger.Debug().Dur("elapsed", time.Since(started)).Msg("job run complete")
}
