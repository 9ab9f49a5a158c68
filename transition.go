package kinetic

import (
	"fmt"
	"math"

	"github.com/tanema/gween/ease"
)

// ShapeFunc maps a linear progress fraction in [0, 1] onto a reshaped
// fraction, normally also in [0, 1] with f(0)=0 and f(1)=1.
type ShapeFunc func(x float64) float64

// RaisedCosine is half a Hann window: a smooth rise from 0 to 1.
func RaisedCosine(x float64) float64 {
	return 0.5 - 0.5*math.Cos(x*math.Pi)
}

// Hann rises from 0 to 1 at x=0.5 and falls back to 0 at x=1.
func Hann(x float64) float64 {
	return 0.5 - 0.5*math.Cos(2*x*math.Pi)
}

// Ease adapts a gween easing function to a ShapeFunc.
func Ease(fn ease.TweenFunc) ShapeFunc {
	return func(x float64) float64 {
		return float64(fn(float32(x), 0, 1, 1))
	}
}

// TransitionConfig configures Transition. Start and End default to 0 and 1
// and broadcast against each other when one is a scalar. A zero Duration
// completes on the first call whose elapsed time is positive.
type TransitionConfig struct {
	Start, End Value
	Duration   float64
	Delay      float64
	Shape      ShapeFunc
	// Finish, if set, is called once when the transition completes.
	Finish func()
}

type transition struct {
	cfg   TransitionConfig
	speed float64

	started  bool
	t0       float64
	hasPrev  bool
	tPrev    float64
	prev     Outcome
	finished bool
}

// Transition returns a Function that interpolates from Start to End over
// Duration, beginning Delay after its first call. It stops with End when the
// progress reaches 1; later calls keep returning that Stop.
func Transition(cfg TransitionConfig) *Function {
	return NewFunction(newTransition(cfg))
}

func newTransition(cfg TransitionConfig) *transition {
	if cfg.Start == nil {
		cfg.Start = Scalar(0)
	}
	if cfg.End == nil {
		cfg.End = Scalar(1)
	}
	if _, err := Lerp(cfg.Start, cfg.End, 0); err != nil {
		panic(fmt.Sprintf("kinetic: Transition start and end: %v", err))
	}
	cfg.Start, cfg.End = cfg.Start.Clone(), cfg.End.Clone()
	tr := &transition{cfg: cfg, speed: math.Inf(1)}
	if cfg.Duration != 0 {
		tr.speed = 1 / cfg.Duration
	}
	return tr
}

// progress returns the linear progress fraction at t, anchoring the time
// origin on the first call.
func (tr *transition) progress(t float64) float64 {
	if !tr.started {
		tr.started, tr.t0 = true, t
	}
	x := max(0, t-tr.t0-tr.cfg.Delay)
	if x != 0 {
		x *= tr.speed
	}
	return min(1, x)
}

func (tr *transition) Eval(t float64) Outcome {
	if tr.hasPrev && t == tr.tPrev {
		return tr.prev
	}
	tr.hasPrev, tr.tPrev = true, t

	x := tr.progress(t)
	done := x == 1
	if tr.cfg.Shape != nil {
		x = tr.cfg.Shape(x)
	}
	f, _ := Lerp(tr.cfg.Start, tr.cfg.End, x)
	if done {
		if !tr.finished {
			tr.finished = true
			if tr.cfg.Finish != nil {
				tr.cfg.Finish()
			}
		}
		tr.prev = Stop(f)
	} else {
		tr.prev = Emit(f)
	}
	return tr.prev
}

func (tr *transition) resetTimeBase() error {
	tr.started = false
	tr.hasPrev = false
	tr.finished = false
	return nil
}

type timeOut struct {
	src      Generator
	duration float64

	started bool
	t0      float64
	hasPrev bool
	tPrev   float64
	prev    Outcome
}

// TimeOut passes src through unchanged until t exceeds the first call's t by
// more than duration, then stops with src's value at that t.
func TimeOut(src any, duration float64) *Function {
	return NewFunction(&timeOut{src: toGenerator(src), duration: duration})
}

func (to *timeOut) Eval(t float64) Outcome {
	if !to.started {
		to.started, to.t0 = true, t
	}
	if to.hasPrev && t == to.tPrev {
		return to.prev
	}
	to.hasPrev, to.tPrev = true, t
	out := to.src.Eval(t)
	if out.Kind <= OutcomeValue && t > to.t0+to.duration {
		out = Stop(out.Value)
	}
	to.prev = out
	return out
}

func (to *timeOut) resetTimeBase() error {
	to.started = false
	to.hasPrev = false
	return nil
}
