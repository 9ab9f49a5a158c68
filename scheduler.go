package kinetic

import (
	"errors"
	"fmt"
	"sort"
)

// Deferred is a handle to a task queued on a Scheduler.
type Deferred struct {
	priority  int
	serial    uint64
	fn        func() error
	cancelled bool
	done      bool

	// Err holds the task's error once it has run.
	Err error
}

// Pending reports whether the task is still waiting to run.
func (d *Deferred) Pending() bool { return d != nil && !d.cancelled && !d.done }

// Scheduler is a host's queue of deferred tasks. Tasks queued during a tick
// run together when RunPending is called, highest priority first and in
// queue order within a priority. Tasks queued while RunPending is running
// wait for the next call.
type Scheduler struct {
	pending []*Deferred
	serial  uint64

	// OnError, if set, receives each failing task's error.
	OnError func(err error)
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Defer queues fn with the given priority.
func (s *Scheduler) Defer(priority int, fn func() error) *Deferred {
	s.serial++
	d := &Deferred{priority: priority, serial: s.serial, fn: fn}
	s.pending = append(s.pending, d)
	return d
}

// Undefer cancels a queued task. It reports whether the task was pending.
func (s *Scheduler) Undefer(d *Deferred) bool {
	if !d.Pending() {
		return false
	}
	d.cancelled = true
	for i, p := range s.pending {
		if p == d {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			break
		}
	}
	return true
}

// Pending returns the number of queued tasks.
func (s *Scheduler) Pending() int { return len(s.pending) }

// RunPending runs every queued task. A panicking task is recorded as an
// error. The errors of all failing tasks are reported to OnError and
// returned joined.
func (s *Scheduler) RunPending() error {
	if len(s.pending) == 0 {
		return nil
	}
	batch := s.pending
	s.pending = nil
	sort.SliceStable(batch, func(i, j int) bool {
		if batch[i].priority != batch[j].priority {
			return batch[i].priority > batch[j].priority
		}
		return batch[i].serial < batch[j].serial
	})

	var errs []error
	for _, d := range batch {
		if d.cancelled {
			continue
		}
		d.done = true
		if err := runTask(d.fn); err != nil {
			d.Err = err
			errs = append(errs, err)
			if s.OnError != nil {
				s.OnError(err)
			}
		}
	}
	return errors.Join(errs...)
}

func runTask(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("kinetic: deferred task: %w", &PanicError{Value: r})
		}
	}()
	return fn()
}

// Scheduled ties an update routine to a Scheduler so that it runs at most
// once per tick however often it is requested.
type Scheduled struct {
	host     *Scheduler
	priority int
	update   func() error
	task     *Deferred
}

// NewScheduled creates a Scheduled running update on host with priority.
// host may be nil and set later with SetHost.
func NewScheduled(host *Scheduler, priority int, update func() error) *Scheduled {
	return &Scheduled{host: host, priority: priority, update: update}
}

// SetHost moves the Scheduled to another scheduler, carrying over a pending
// update.
func (s *Scheduled) SetHost(host *Scheduler) {
	if s.host == host {
		return
	}
	pending := s.Pending()
	s.CancelUpdate()
	s.host = host
	if pending {
		s.ScheduleUpdate()
	}
}

// Host returns the scheduler the updates are queued on.
func (s *Scheduled) Host() *Scheduler { return s.host }

// Pending reports whether an update is queued.
func (s *Scheduled) Pending() bool { return s.task.Pending() }

// ScheduleUpdate queues the update unless one is already queued. Without a
// host the update runs immediately.
func (s *Scheduled) ScheduleUpdate() error {
	if s.task.Pending() {
		return nil
	}
	if s.host == nil {
		return s.update()
	}
	s.task = s.host.Defer(s.priority, s.run)
	return nil
}

// CancelUpdate withdraws a queued update. It is a no-op when nothing is
// queued, including from inside the update itself.
func (s *Scheduled) CancelUpdate() {
	if s.task.Pending() && s.host != nil {
		s.host.Undefer(s.task)
	}
	s.task = nil
}

func (s *Scheduled) run() error {
	s.task = nil
	return s.update()
}
