package kinetic

import (
	"fmt"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 4 elements of a value simultaneously with gween
// tweens. It is a Generator: install it as a property dynamic and it stops
// with the target value once every tween has finished. Time is measured from
// the first Eval call.
//
// Update offers the same group for callers that step by frame delta instead
// of absolute time.
type TweenGroup struct {
	tweens [maxArity]*gween.Tween
	count  int
	Done   bool

	started bool
	t0      float64
	hasPrev bool
	tPrev   float64
	prev    Outcome
}

// NewTweenGroup creates a TweenGroup from from to to over duration seconds
// using the easing function. from and to must have the same length, between
// 1 and 4, or one of them must be a scalar.
func NewTweenGroup(from, to Value, duration float32, fn ease.TweenFunc) *TweenGroup {
	n := max(len(from), len(to))
	if n < 1 || n > maxArity || (len(from) != n && len(from) != 1) || (len(to) != n && len(to) != 1) {
		panic(fmt.Sprintf("kinetic: NewTweenGroup with %d and %d elements", len(from), len(to)))
	}
	g := &TweenGroup{count: n}
	for i := 0; i < n; i++ {
		a, b := from[0], to[0]
		if len(from) > 1 {
			a = from[i]
		}
		if len(to) > 1 {
			b = to[i]
		}
		g.tweens[i] = gween.New(float32(a), float32(b), duration, fn)
	}
	return g
}

// Eval sets every tween to the time elapsed since the first call.
func (g *TweenGroup) Eval(t float64) Outcome {
	if g.hasPrev && t == g.tPrev {
		return g.prev
	}
	if !g.started {
		g.started, g.t0 = true, t
	}
	g.hasPrev, g.tPrev = true, t

	elapsed := float32(t - g.t0)
	out := make(Value, g.count)
	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Set(elapsed)
		out[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
	if allDone {
		g.prev = Stop(out)
	} else {
		g.prev = Emit(out)
	}
	return g.prev
}

// Update advances all tweens by dt seconds and returns the current values.
func (g *TweenGroup) Update(dt float32) Value {
	out := make(Value, g.count)
	if g.Done {
		for i := 0; i < g.count; i++ {
			val, _ := g.tweens[i].Update(0)
			out[i] = float64(val)
		}
		return out
	}
	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		out[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
	return out
}

func (g *TweenGroup) resetTimeBase() error {
	g.started = false
	g.hasPrev = false
	g.Done = false
	for i := 0; i < g.count; i++ {
		g.tweens[i].Reset()
	}
	return nil
}

// TweenProperty installs a TweenGroup on the named property of o, animating
// from its current value to to.
func TweenProperty(o *Object, name string, to Value, duration float32, fn ease.TweenFunc) (*TweenGroup, error) {
	from, err := o.Get(name)
	if err != nil {
		return nil, err
	}
	if len(to) != 1 && len(to) != len(from) {
		return nil, &ArityMismatchError{Property: name, Arity: len(from), Got: len(to)}
	}
	g := NewTweenGroup(from, to, duration, fn)
	if err := o.SetDynamic(name, g); err != nil {
		return nil, err
	}
	return g, nil
}
