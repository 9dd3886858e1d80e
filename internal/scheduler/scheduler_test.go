package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesJobs(t *testing.T) {
	run := func(context.Context) error { return nil }

	_, err := New(Options{}, Job{Name: "assign", Day: 29, Run: run})
	assert.Error(t, err)
	_, err = New(Options{}, Job{Name: "assign", Day: 0, Run: run})
	assert.Error(t, err)
	_, err = New(Options{}, Job{Name: "assign", Day: 10})
	assert.Error(t, err)
	_, err = New(Options{}, Job{Name: "assign", Day: 10, Run: run}, Job{Name: "assign", Day: 27, Run: run})
	assert.Error(t, err)

	s, err := New(Options{}, Job{Name: "assign", Day: 10, Run: run})
	require.NoError(t, err)
	assert.Error(t, s.RunNow(context.Background(), "points"))
	assert.NoError(t, s.RunNow(context.Background(), "assign"))
}

func TestSchedulerFiresMonthlyAndRearms(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	clock := clockwork.NewFakeClockAt(time.Date(2025, time.May, 5, 12, 0, 0, 0, time.UTC))
	fired := make(chan time.Time, 4)
	calls := 0
	job := Job{
		Name: "assign",
		Day:  10,
		Run: func(context.Context) error {
			calls++
			fired <- clock.Now()
			if calls == 1 {
				return errors.New("first run fails")
			}
			return nil
		},
	}

	s, err := New(Options{Clock: clock, Location: time.UTC, Logger: zerolog.Nop()}, job)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(4*24*time.Hour + 11*time.Hour)
	select {
	case <-fired:
		t.Fatal("job fired before its day")
	default:
	}

	clock.Advance(time.Hour)
	select {
	case at := <-fired:
		assert.True(t, at.Equal(time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC)))
	case <-ctx.Done():
		t.Fatal("job did not fire on the 10th")
	}

	// the failed run still re-arms for June
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(31 * 24 * time.Hour)
	select {
	case at := <-fired:
		assert.True(t, at.Equal(time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)))
	case <-ctx.Done():
		t.Fatal("job did not re-arm")
	}

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	cancel()
	assert.NoError(t, <-done)
}

func TestSchedulerRunsIndependentJobs(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	clock := clockwork.NewFakeClockAt(time.Date(2025, time.May, 20, 0, 0, 0, 0, time.UTC))
	fired := make(chan string, 4)
	record := func(name string) func(context.Context) error {
		return func(context.Context) error {
			fired <- name
			return nil
		}
	}

	s, err := New(Options{Clock: clock, Location: time.UTC, Logger: zerolog.Nop()},
		Job{Name: "assign", Day: 10, Run: record("assign")},
		Job{Name: "points", Day: 27, Run: func(context.Context) error { panic("boom") }},
		Job{Name: "startup", Day: 1, RunOnStart: true, Run: record("startup")},
	)
	require.NoError(t, err)

	go func() { _ = s.Run(ctx) }()

	assert.Equal(t, "startup", <-fired)
	require.NoError(t, clock.BlockUntilContext(ctx, 3))

	// May 27 fires points, which panics and must re-arm.
	clock.Advance(7 * 24 * time.Hour)
	require.NoError(t, clock.BlockUntilContext(ctx, 3))

	// June 1 fires startup, June 10 fires assign.
	clock.Advance(21 * 24 * time.Hour)
	got := []string{<-fired, <-fired}
	assert.ElementsMatch(t, []string{"startup", "assign"}, got)
}
