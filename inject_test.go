package kinetic

import (
	"errors"
	"testing"
)

func TestInjectValueAppliesNextTick(t *testing.T) {
	w := NewWorld(WorldConfig{})
	o := w.NewObject("o", stimulusSchema())

	w.InjectValue(o, "alpha", 0.5)
	if w.Injected() != 1 {
		t.Fatalf("Injected = %d, want 1", w.Injected())
	}
	assertValue(t, "before tick", o.MustGet("alpha"), Scalar(1))

	w.Advance(0)
	assertValue(t, "after tick", o.MustGet("alpha"), Scalar(0.5))
	if w.Injected() != 0 {
		t.Errorf("Injected = %d after tick", w.Injected())
	}
}

func TestInjectCancelsDynamicBeforeItRuns(t *testing.T) {
	w := NewWorld(WorldConfig{})
	o := w.NewObject("o", stimulusSchema())
	calls := 0
	o.SetDynamic("alpha", ScalarFunc(func(float64) float64 { calls++; return 0 }))

	w.InjectValue(o, "alpha", 0.25)
	w.Advance(1)
	if calls != 0 {
		t.Errorf("dynamic ran %d times after being replaced", calls)
	}
	assertValue(t, "alpha", o.MustGet("alpha"), Scalar(0.25))
}

func TestInjectDynamicAndLink(t *testing.T) {
	w := NewWorld(WorldConfig{})
	s := stimulusSchema()
	a := w.NewObject("a", s)
	b := w.NewObject("b", s)

	w.Inject(a, "alpha", Dynamic(Clock(0.5, false)))
	w.Inject(b, "position", LinkTo(a))
	w.Advance(1)

	assertValue(t, "alpha", a.MustGet("alpha"), Scalar(0.5))
	a.SetValue("position", 7, 8)
	assertValue(t, "linked", b.MustGet("position"), Vec(7, 8))
}

func TestInjectRamp(t *testing.T) {
	w := NewWorld(WorldConfig{})
	o := w.NewObject("o", stimulusSchema())

	w.InjectRamp(o, "position", Vec(0, 10), Vec(1, 20), 3)
	if w.Injected() != 3 {
		t.Fatalf("Injected = %d, want 3", w.Injected())
	}
	want := []Value{Vec(0, 10), Vec(0.5, 15), Vec(1, 20)}
	for i, v := range want {
		w.Advance(float64(i))
		assertValue(t, "ramp", o.MustGet("position"), v)
		if got := w.Injected(); got != 2-i {
			t.Errorf("tick %d: Injected = %d, want %d", i, got, 2-i)
		}
	}
}

func TestInjectRampMinimumFrames(t *testing.T) {
	w := NewWorld(WorldConfig{})
	o := w.NewObject("o", stimulusSchema())
	w.InjectRamp(o, "alpha", Scalar(0), Scalar(1), 0)
	if w.Injected() != 2 {
		t.Errorf("Injected = %d, want 2", w.Injected())
	}
}

func TestInjectRampShapeMismatch(t *testing.T) {
	var reported []error
	w := NewWorld(WorldConfig{OnError: func(err error) { reported = append(reported, err) }})
	o := w.NewObject("o", stimulusSchema())
	w.InjectRamp(o, "color", Vec(0, 0), Vec(1, 1, 1), 4)

	var sme *ShapeMismatchError
	if len(reported) != 1 || !errors.As(reported[0], &sme) {
		t.Errorf("reported = %v", reported)
	}
	if w.Injected() != 0 {
		t.Errorf("Injected = %d, want 0", w.Injected())
	}
}

func TestInjectStateChange(t *testing.T) {
	w := NewWorld(WorldConfig{})
	m := NewStateMachine()
	m.MustAddState(StateConfig{Name: "wait"})
	m.MustAddState(StateConfig{Name: "respond"})
	w.AddMachine(m)
	w.Advance(0)

	w.InjectStateChange(m, To("respond"))
	if m.Current().Name != "wait" {
		t.Fatal("state change applied before the tick")
	}
	w.Advance(0.5)
	if m.Current().Name != "respond" || m.ChangeTime() != 0.5 {
		t.Errorf("current %q change %v", m.Current().Name, m.ChangeTime())
	}
}

func TestInjectErrorsReported(t *testing.T) {
	var reported []error
	w := NewWorld(WorldConfig{OnError: func(err error) { reported = append(reported, err) }})
	o := w.NewObject("o", stimulusSchema())
	w.InjectValue(o, "missing", 1)
	w.InjectValue(o, "alpha", 0.5)
	w.Advance(0)

	var upe *UnknownPropertyError
	if len(reported) != 1 || !errors.As(reported[0], &upe) {
		t.Errorf("reported = %v", reported)
	}
	assertValue(t, "later injection still applied", o.MustGet("alpha"), Scalar(0.5))
}
