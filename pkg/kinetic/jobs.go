package kinetic

import (
	"sync"
	"sync/atomic"
	"time"
)

// Job is one cancellable unit of scheduled work owned by an instance.
// Cancellation is checked before every invocation, so a cancelled job never
// fires again even if its timer has already expired.
type Job struct {
	id        uint64
	in        *Instance
	cancelled atomic.Bool
	stop      chan struct{}
}

// Cancel stops the job. Safe to call more than once and after the job has
// already fired.
func (j *Job) Cancel() {
	if j.cancelled.Swap(true) {
		return
	}
	close(j.stop)
	j.in.removeJob(j.id)
}

// Cancelled reports whether the job has been cancelled or has finished.
func (j *Job) Cancelled() bool {
	return j.cancelled.Load()
}

func (in *Instance) newJob() *Job {
	j := &Job{id: nextID(), in: in, stop: make(chan struct{})}
	in.jobMu.Lock()
	if in.jobs != nil {
		in.jobs[j.id] = j
	}
	in.jobMu.Unlock()
	in.rt.metrics.recordJobScheduled()
	return j
}

func (in *Instance) removeJob(id uint64) {
	in.jobMu.Lock()
	_, ok := in.jobs[id]
	delete(in.jobs, id)
	in.jobMu.Unlock()
	if ok {
		in.rt.metrics.recordJobsFinished(1)
	}
}

// finish retires a one-shot job right before its single invocation.
func (j *Job) finish() {
	j.cancelled.Store(true)
	j.in.removeJob(j.id)
}

// Jobs reports the number of outstanding scheduled jobs.
func (in *Instance) Jobs() int {
	in.jobMu.Lock()
	defer in.jobMu.Unlock()
	return len(in.jobs)
}

// Defer schedules fn on the next tick of the dispatch loop.
func (in *Instance) Defer(fn func()) (*Job, error) {
	if err := in.guard("defer"); err != nil {
		return nil, err
	}
	j := in.newJob()
	in.rt.Dispatch(func() {
		if j.cancelled.Load() || in.destroyed.Load() {
			return
		}
		j.finish()
		fn()
	})
	return j, nil
}

// Delay schedules fn once after d, on the dispatch loop.
func (in *Instance) Delay(d time.Duration, fn func()) (*Job, error) {
	if err := in.guard("delay"); err != nil {
		return nil, err
	}
	j := in.newJob()
	go func() {
		select {
		case <-in.rt.clock.After(d):
			in.rt.Dispatch(func() {
				if j.cancelled.Load() || in.destroyed.Load() {
					return
				}
				j.finish()
				fn()
			})
		case <-j.stop:
		case <-in.done:
		}
	}()
	return j, nil
}

// Every schedules fn repeatedly with period d until the job is cancelled or
// the instance is destroyed. The cancellation flag is checked both before
// the wait and again before each invocation.
func (in *Instance) Every(d time.Duration, fn func()) (*Job, error) {
	if err := in.guard("every"); err != nil {
		return nil, err
	}
	j := in.newJob()
	go func() {
		ticker := in.rt.clock.NewTicker(d)
		defer ticker.Stop()
		for {
			if j.cancelled.Load() {
				return
			}
			select {
			case <-ticker.C():
				if j.cancelled.Load() || in.destroyed.Load() {
					return
				}
				in.rt.Dispatch(func() {
					if j.cancelled.Load() || in.destroyed.Load() {
						return
					}
					fn()
				})
			case <-j.stop:
				return
			case <-in.done:
				return
			}
		}
	}()
	return j, nil
}

// Debounce wraps fn so that a burst of calls collapses into a single
// invocation d after the burst goes quiet, with the arguments of the last
// call. Each wrapper keeps its own window; CancelJobs cancels a pending
// firing but the wrapper itself stays usable.
func (in *Instance) Debounce(fn func(args ...any), d time.Duration) func(args ...any) {
	var mu sync.Mutex
	var pending *Job
	return func(args ...any) {
		mu.Lock()
		defer mu.Unlock()
		if pending != nil {
			pending.Cancel()
		}
		captured := args
		j, err := in.Delay(d, func() {
			fn(captured...)
		})
		if err != nil {
			return
		}
		pending = j
	}
}

// Throttle wraps fn so that the first call in a window of length d fires
// immediately and at most one later call is queued; the queued call flushes
// with its latest arguments when the window closes, which opens a new window.
func (in *Instance) Throttle(fn func(args ...any), d time.Duration) func(args ...any) {
	var mu sync.Mutex
	var inWindow bool
	var queued []any
	var hasQueued bool

	var openWindow func()
	openWindow = func() {
		_, err := in.Delay(d, func() {
			mu.Lock()
			if !hasQueued {
				inWindow = false
				mu.Unlock()
				return
			}
			args := queued
			queued, hasQueued = nil, false
			mu.Unlock()
			fn(args...)
			openWindow()
		})
		if err != nil {
			mu.Lock()
			inWindow = false
			mu.Unlock()
		}
	}

	return func(args ...any) {
		mu.Lock()
		if inWindow {
			queued = args
			hasQueued = true
			mu.Unlock()
			return
		}
		inWindow = true
		mu.Unlock()
		fn(args...)
		openWindow()
	}
}

// CancelJobs cancels every outstanding job at once.
func (in *Instance) CancelJobs() error {
	if err := in.guard("cancelJobs"); err != nil {
		return err
	}
	in.cancelAllJobs()
	return nil
}

// cancelAllJobs force-cancels all jobs. Called by CancelJobs and by the
// destroy sequence; must not rely on the destroyed guard.
func (in *Instance) cancelAllJobs() {
	in.jobMu.Lock()
	jobs := in.jobs
	in.jobs = make(map[uint64]*Job)
	in.jobMu.Unlock()
	for _, j := range jobs {
		if !j.cancelled.Swap(true) {
			close(j.stop)
		}
	}
	in.rt.metrics.recordJobsFinished(len(jobs))
}
