// Package scheduler runs the monthly jobs: per-headcount emission
// assignment and month-over-month point scoring. Each job arms a one-shot
// timer for its next fire time and re-arms after every run.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/emilianohg/carbontrack/internal/logging"
)

const (
	MinDay = 1
	MaxDay = 28
)

type Job struct {
	Name       string
	Day        int
	RunOnStart bool
	Run        func(ctx context.Context) error
}

type Options struct {
	Clock    clockwork.Clock
	Location *time.Location
	Logger   zerolog.Logger
}

type Scheduler struct {
	clock clockwork.Clock
	loc   *time.Location
	jobs  []Job
	log   zerolog.Logger
}

func New(opts Options, jobs ...Job) (*Scheduler, error) {
	seen := make(map[string]bool, len(jobs))
	for _, j := range jobs {
		if j.Day < MinDay || j.Day > MaxDay {
			return nil, fmt.Errorf("job %q: day %d outside %d..%d", j.Name, j.Day, MinDay, MaxDay)
		}
		if j.Run == nil {
			return nil, fmt.Errorf("job %q: no run function", j.Name)
		}
		if seen[j.Name] {
			return nil, fmt.Errorf("job %q registered twice", j.Name)
		}
		seen[j.Name] = true
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Scheduler{
		clock: opts.Clock,
		loc:   opts.Location,
		jobs:  jobs,
		log:   logging.Component(opts.Logger, "scheduler"),
	}, nil
}

// Run blocks until ctx is cancelled. Job failures are logged and never stop
// the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, job := range s.jobs {
		job := job
		g.Go(func() error {
			s.loop(ctx, job)
			return nil
		})
	}
	return g.Wait()
}

// RunNow executes the named job once and returns its error.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.Name == name {
			return job.Run(ctx)
		}
	}
	return fmt.Errorf("unknown job %q", name)
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	log := s.log.With().Str("job", job.Name).Logger()
	if job.RunOnStart {
		s.runOnce(ctx, job)
	}

	for {
		now := s.clock.Now().In(s.loc)
		next := NextFireTime(now, job.Day)
		timer := s.clock.NewTimer(next.Sub(now))
		log.Info().Time("next_run", next).Msg("job armed")

		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info().Msg("job loop stopped")
			return
		case <-timer.Chan():
			s.runOnce(ctx, job)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	log := s.log.With().Str("job", job.Name).Str("run_id", uuid.NewString()).Logger()
	start := s.clock.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("job panicked")
		}
	}()

	if err := job.Run(log.WithContext(ctx)); err != nil {
		log.Error().Err(err).Dur("elapsed", s.clock.Since(start)).Msg("job failed")
		return
	}
	log.Info().Dur("elapsed", s.clock.Since(start)).Msg("job finished")
}
