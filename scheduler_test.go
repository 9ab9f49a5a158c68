package kinetic

import (
	"errors"
	"strings"
	"testing"
)

func TestSchedulerPriorityOrder(t *testing.T) {
	s := NewScheduler()
	var order []string
	add := func(name string, priority int) {
		s.Defer(priority, func() error {
			order = append(order, name)
			return nil
		})
	}
	add("low", -1)
	add("high-1", 5)
	add("mid", 0)
	add("high-2", 5)

	if s.Pending() != 4 {
		t.Fatalf("Pending = %d, want 4", s.Pending())
	}
	if err := s.RunPending(); err != nil {
		t.Fatal(err)
	}
	want := "high-1 high-2 mid low"
	if got := strings.Join(order, " "); got != want {
		t.Errorf("order = %q, want %q", got, want)
	}
	if s.Pending() != 0 {
		t.Errorf("Pending after run = %d", s.Pending())
	}
}

func TestSchedulerUndefer(t *testing.T) {
	s := NewScheduler()
	ran := false
	d := s.Defer(0, func() error { ran = true; return nil })
	if !d.Pending() {
		t.Fatal("task should be pending")
	}
	if !s.Undefer(d) {
		t.Error("Undefer should report a pending task")
	}
	if s.Undefer(d) {
		t.Error("second Undefer should report false")
	}
	s.RunPending()
	if ran {
		t.Error("cancelled task ran")
	}

	var nilTask *Deferred
	if nilTask.Pending() {
		t.Error("nil Deferred should not be pending")
	}
}

func TestSchedulerTasksQueuedWhileRunningWait(t *testing.T) {
	s := NewScheduler()
	runs := 0
	s.Defer(0, func() error {
		runs++
		s.Defer(0, func() error { runs++; return nil })
		return nil
	})
	s.RunPending()
	if runs != 1 || s.Pending() != 1 {
		t.Fatalf("runs %d pending %d", runs, s.Pending())
	}
	s.RunPending()
	if runs != 2 {
		t.Errorf("runs = %d, want 2", runs)
	}
}

func TestSchedulerCancelDuringRun(t *testing.T) {
	s := NewScheduler()
	ran := false
	var later *Deferred
	s.Defer(1, func() error { s.Undefer(later); return nil })
	later = s.Defer(0, func() error { ran = true; return nil })
	s.RunPending()
	if ran {
		t.Error("task cancelled by an earlier task still ran")
	}
}

func TestSchedulerErrorsAndPanics(t *testing.T) {
	s := NewScheduler()
	var reported []error
	s.OnError = func(err error) { reported = append(reported, err) }

	boom := errors.New("boom")
	failing := s.Defer(1, func() error { return boom })
	s.Defer(0, func() error { panic("bad task") })
	ok := false
	s.Defer(-1, func() error { ok = true; return nil })

	err := s.RunPending()
	if !errors.Is(err, boom) {
		t.Errorf("joined error %v should wrap boom", err)
	}
	var pe *PanicError
	if !errors.As(err, &pe) || pe.Value != "bad task" {
		t.Errorf("joined error %v should carry the panic", err)
	}
	if len(reported) != 2 {
		t.Errorf("reported %d errors, want 2", len(reported))
	}
	if !errors.Is(failing.Err, boom) {
		t.Errorf("task Err = %v", failing.Err)
	}
	if !ok {
		t.Error("tasks after a failure should still run")
	}
}

func TestScheduledRunsOncePerTick(t *testing.T) {
	host := NewScheduler()
	runs := 0
	sc := NewScheduled(host, 0, func() error { runs++; return nil })

	for i := 0; i < 3; i++ {
		if err := sc.ScheduleUpdate(); err != nil {
			t.Fatal(err)
		}
	}
	if !sc.Pending() || host.Pending() != 1 {
		t.Fatalf("pending %v, host %d", sc.Pending(), host.Pending())
	}
	host.RunPending()
	if runs != 1 || sc.Pending() {
		t.Errorf("runs %d, pending %v", runs, sc.Pending())
	}

	sc.ScheduleUpdate()
	host.RunPending()
	if runs != 2 {
		t.Errorf("runs = %d, want 2", runs)
	}
}

func TestScheduledWithoutHostRunsImmediately(t *testing.T) {
	runs := 0
	boom := errors.New("boom")
	sc := NewScheduled(nil, 0, func() error { runs++; return boom })
	if err := sc.ScheduleUpdate(); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
	if runs != 1 || sc.Pending() {
		t.Errorf("runs %d, pending %v", runs, sc.Pending())
	}
}

func TestScheduledCancelAndSetHost(t *testing.T) {
	first, second := NewScheduler(), NewScheduler()
	runs := 0
	sc := NewScheduled(first, 0, func() error { runs++; return nil })

	sc.ScheduleUpdate()
	sc.CancelUpdate()
	first.RunPending()
	if runs != 0 {
		t.Fatal("cancelled update ran")
	}
	sc.CancelUpdate()

	sc.ScheduleUpdate()
	sc.SetHost(second)
	if first.Pending() != 0 || second.Pending() != 1 {
		t.Fatalf("first %d second %d", first.Pending(), second.Pending())
	}
	if sc.Host() != second {
		t.Error("Host not updated")
	}
	second.RunPending()
	if runs != 1 {
		t.Errorf("runs = %d, want 1", runs)
	}
}

func TestScheduledRescheduleFromUpdate(t *testing.T) {
	host := NewScheduler()
	runs := 0
	var sc *Scheduled
	sc = NewScheduled(host, 0, func() error {
		runs++
		if runs == 1 {
			return sc.ScheduleUpdate()
		}
		return nil
	})
	sc.ScheduleUpdate()
	host.RunPending()
	if !sc.Pending() {
		t.Fatal("update rescheduled from itself should be pending")
	}
	host.RunPending()
	if runs != 2 {
		t.Errorf("runs = %d, want 2", runs)
	}
}
