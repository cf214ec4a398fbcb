// Package scheduler runs the engine's named periodic jobs. The Coordinator
// is an explicit registry constructed once at process start and injected
// wherever its status is queried or its jobs restarted; there is no global
// instance.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cadencehq/audit-engine/internal/metrics"
	"go.uber.org/zap"
)

// Task is one scheduled job body. Errors are logged and counted; they
// never crash the coordinator or cancel future runs.
type Task func(ctx context.Context) error

// JobSpec names a job and binds it to an interval and a task.
type JobSpec struct {
	Name     string
	Interval time.Duration
	Task     Task
}

// JobStatus is the externally visible state of one registered job.
type JobStatus struct {
	Name     string `json:"name"`
	Interval string `json:"interval"`
	Running  bool   `json:"running"`
}

// Status reports whether any job is active plus per-job detail.
type Status struct {
	Active bool        `json:"active"`
	Jobs   []JobStatus `json:"jobs"`
}

type job struct {
	spec    JobSpec
	cancel  context.CancelFunc
	done    chan struct{}
	running atomic.Bool
	wg      sync.WaitGroup
}

// Coordinator is a registry of named, independently ticking jobs. The
// registry map is the only shared mutable state and is guarded by mu.
type Coordinator struct {
	log *zap.Logger

	mu    sync.Mutex
	specs map[string]JobSpec // configuration memory, survives Stop
	jobs  map[string]*job    // currently running instances
}

func New(log *zap.Logger) *Coordinator {
	return &Coordinator{
		log:   log,
		specs: make(map[string]JobSpec),
		jobs:  make(map[string]*job),
	}
}

// Initialize registers and starts all given jobs, stopping any prior
// instances first. Specs with a zero interval or nil task are remembered
// but not started, which is how a job is disabled by configuration.
func (c *Coordinator) Initialize(specs []JobSpec) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopAllLocked()
	c.specs = make(map[string]JobSpec, len(specs))
	for _, s := range specs {
		c.specs[s.Name] = s
	}
	c.startAllLocked()
}

// Restart stops everything and re-initializes with a merged configuration:
// intervals named in overrides replace the prior values, everything else
// is retained.
func (c *Coordinator) Restart(overrides map[string]time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for name, interval := range overrides {
		s, ok := c.specs[name]
		if !ok {
			c.log.Warn("restart ignores unknown job", zap.String("job", name))
			continue
		}
		s.Interval = interval
		c.specs[name] = s
	}

	c.stopAllLocked()
	c.startAllLocked()
}

// Stop cancels every running job, waits for in-flight runs to return, and
// clears the registry. The configuration memory is kept so a later
// Restart can re-initialize from it.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopAllLocked()
}

// Status reports the registry contents. Active is true while at least one
// job is registered and ticking.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{Active: len(c.jobs) > 0}
	for _, j := range c.jobs {
		st.Jobs = append(st.Jobs, JobStatus{
			Name:     j.spec.Name,
			Interval: j.spec.Interval.String(),
			Running:  j.running.Load(),
		})
	}
	return st
}

func (c *Coordinator) startAllLocked() {
	for _, s := range c.specs {
		if s.Interval <= 0 || s.Task == nil {
			continue
		}
		ctx, cancel := context.WithCancel(context.Background())
		j := &job{spec: s, cancel: cancel, done: make(chan struct{})}
		c.jobs[s.Name] = j
		go c.run(ctx, j)
		c.log.Info("job registered",
			zap.String("job", s.Name),
			zap.Duration("interval", s.Interval))
	}
}

func (c *Coordinator) stopAllLocked() {
	for _, j := range c.jobs {
		j.cancel()
	}
	for name, j := range c.jobs {
		<-j.done
		c.log.Info("job stopped", zap.String("job", name))
	}
	c.jobs = make(map[string]*job)
}

// run owns the job's ticker. Each tick executes in its own goroutine; a
// tick that arrives while the previous run is still in flight is skipped
// rather than overlapped.
func (c *Coordinator) run(ctx context.Context, j *job) {
	defer close(j.done)

	t := time.NewTicker(j.spec.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			j.wg.Wait()
			return
		case <-t.C:
			if !j.running.CompareAndSwap(false, true) {
				metrics.JobRunsTotal.WithLabelValues(j.spec.Name, "skipped").Inc()
				c.log.Warn("job still running, tick skipped", zap.String("job", j.spec.Name))
				continue
			}
			j.wg.Add(1)
			go func() {
				defer j.wg.Done()
				defer j.running.Store(false)
				c.fire(ctx, j)
			}()
		}
	}
}

// fire executes one run with error isolation and panic recovery.
func (c *Coordinator) fire(ctx context.Context, j *job) {
	defer func() {
		if r := recover(); r != nil {
			metrics.JobRunsTotal.WithLabelValues(j.spec.Name, "error").Inc()
			c.log.Error("job panicked",
				zap.String("job", j.spec.Name),
				zap.Any("panic", r))
		}
	}()

	start := time.Now()
	if err := j.spec.Task(ctx); err != nil {
		metrics.JobRunsTotal.WithLabelValues(j.spec.Name, "error").Inc()
		c.log.Error("job run failed",
			zap.String("job", j.spec.Name),
			zap.Duration("took", time.Since(start)),
			zap.Error(err))
		return
	}
	metrics.JobRunsTotal.WithLabelValues(j.spec.Name, "ok").Inc()
	c.log.Debug("job run finished",
		zap.String("job", j.spec.Name),
		zap.Duration("took", time.Since(start)))
}
