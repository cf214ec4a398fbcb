package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cadencehq/audit-engine/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatal(msg)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestInitializeRunsRegisteredJobs(t *testing.T) {
	var runs atomic.Int64
	c := New(zap.NewNop())
	defer c.Stop()

	c.Initialize([]JobSpec{{
		Name:     "tick",
		Interval: 10 * time.Millisecond,
		Task: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	}})

	waitFor(t, func() bool { return runs.Load() >= 3 }, "job never ticked")

	st := c.Status()
	assert.True(t, st.Active)
	require.Len(t, st.Jobs, 1)
	assert.Equal(t, "tick", st.Jobs[0].Name)
	assert.Equal(t, "10ms", st.Jobs[0].Interval)
}

func TestReinitializeReplacesWithoutDuplicating(t *testing.T) {
	var runs atomic.Int64
	c := New(zap.NewNop())
	defer c.Stop()

	spec := JobSpec{
		Name:     "tick",
		Interval: 10 * time.Millisecond,
		Task: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	}
	c.Initialize([]JobSpec{spec})
	c.Initialize([]JobSpec{spec})

	st := c.Status()
	require.Len(t, st.Jobs, 1, "re-registering a name replaces the prior instance")
	waitFor(t, func() bool { return runs.Load() >= 1 }, "replaced job never ticked")
}

func TestZeroIntervalDisablesJob(t *testing.T) {
	var runs atomic.Int64
	c := New(zap.NewNop())
	defer c.Stop()

	c.Initialize([]JobSpec{
		{Name: "disabled", Interval: 0, Task: func(context.Context) error {
			runs.Add(1)
			return nil
		}},
		{Name: "live", Interval: 10 * time.Millisecond, Task: func(context.Context) error {
			return nil
		}},
	})

	st := c.Status()
	require.Len(t, st.Jobs, 1)
	assert.Equal(t, "live", st.Jobs[0].Name)
	assert.Zero(t, runs.Load())
}

func TestStopHaltsJobsAndClearsStatus(t *testing.T) {
	var runs atomic.Int64
	c := New(zap.NewNop())

	c.Initialize([]JobSpec{{
		Name:     "tick",
		Interval: 10 * time.Millisecond,
		Task: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	}})

	waitFor(t, func() bool { return runs.Load() >= 1 }, "job never ticked")
	c.Stop()

	st := c.Status()
	assert.False(t, st.Active)
	assert.Empty(t, st.Jobs)

	seen := runs.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, seen, runs.Load(), "ticks continued after Stop")
}

func TestRestartMergesIntervalOverrides(t *testing.T) {
	c := New(zap.NewNop())
	defer c.Stop()

	noop := func(context.Context) error { return nil }
	c.Initialize([]JobSpec{
		{Name: "alpha", Interval: time.Hour, Task: noop},
		{Name: "beta", Interval: 30 * time.Minute, Task: noop},
	})

	c.Restart(map[string]time.Duration{
		"alpha":   time.Minute,
		"unknown": time.Second, // ignored
	})

	st := c.Status()
	require.Len(t, st.Jobs, 2)
	byName := map[string]string{}
	for _, j := range st.Jobs {
		byName[j.Name] = j.Interval
	}
	assert.Equal(t, "1m0s", byName["alpha"])
	assert.Equal(t, "30m0s", byName["beta"], "unnamed jobs keep their interval")
}

func TestRestartAfterStopResumesFromRememberedSpecs(t *testing.T) {
	var runs atomic.Int64
	c := New(zap.NewNop())
	defer c.Stop()

	c.Initialize([]JobSpec{{
		Name:     "tick",
		Interval: time.Hour,
		Task: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	}})
	c.Stop()
	assert.False(t, c.Status().Active)

	c.Restart(map[string]time.Duration{"tick": 10 * time.Millisecond})

	waitFor(t, func() bool { return runs.Load() >= 1 }, "restarted job never ticked")
	assert.True(t, c.Status().Active)
}

func TestSlowRunSkipsOverlappingTicks(t *testing.T) {
	var started atomic.Int64
	release := make(chan struct{})

	c := New(zap.NewNop())
	defer c.Stop()

	c.Initialize([]JobSpec{{
		Name:     "slow",
		Interval: 10 * time.Millisecond,
		Task: func(ctx context.Context) error {
			started.Add(1)
			select {
			case <-release:
			case <-ctx.Done():
			}
			return nil
		},
	}})

	waitFor(t, func() bool { return started.Load() == 1 }, "job never started")
	waitFor(t, func() bool {
		return testutil.ToFloat64(metrics.JobRunsTotal.WithLabelValues("slow", "skipped")) >= 1
	}, "no tick was skipped while the run was in flight")
	assert.Equal(t, int64(1), started.Load(), "ticks overlapped a running job")

	close(release)
	waitFor(t, func() bool { return started.Load() >= 2 }, "job never resumed after release")
}

func TestFailingAndPanickingTasksKeepTicking(t *testing.T) {
	var failures, panics atomic.Int64
	c := New(zap.NewNop())
	defer c.Stop()

	c.Initialize([]JobSpec{
		{Name: "failing", Interval: 10 * time.Millisecond, Task: func(context.Context) error {
			failures.Add(1)
			return errors.New("boom")
		}},
		{Name: "panicking", Interval: 10 * time.Millisecond, Task: func(context.Context) error {
			panics.Add(1)
			panic("boom")
		}},
	})

	waitFor(t, func() bool { return failures.Load() >= 2 && panics.Load() >= 2 },
		"broken tasks stopped ticking")
}
