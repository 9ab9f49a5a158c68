package kinetic

import "sort"

type stitchMarker struct{}

// Stitch, placed between two pieces of a Sequence, drops the terminal value
// of the piece before it: the next piece starts in the same tick instead of
// the terminal value being shown for one tick first.
var Stitch = stitchMarker{}

type seqPiece struct {
	gen    Generator
	value  Value
	stitch bool
}

func (p *seqPiece) eval(t float64) Outcome {
	if p.gen != nil {
		return p.gen.Eval(t)
	}
	return Stop(p.value.Clone())
}

func makePiece(x any) seqPiece {
	tm := operandTerm(modePlain, OpAdd, x)
	switch {
	case tm.fn != nil:
		return seqPiece{gen: tm.fn}
	case tm.gen != nil:
		return seqPiece{gen: tm.gen}
	default:
		return seqPiece{value: tm.value}
	}
}

// sequence runs its pieces one after the other. A piece runs until it stops;
// a constant piece stops at once with its own value.
type sequence struct {
	pieces []seqPiece
	idx    int

	started bool
	t0      float64
	hasPrev bool
	tPrev   float64
	prev    Outcome
	done    bool
}

// Sequence returns a Function defined piecewise by items, taken in turn.
// Each item is a Function operand. Generator items run until they stop;
// constant items last one tick. When an item stops, its terminal value is
// emitted for that tick and the next item starts on the following tick,
// unless Stitch follows the item, in which case the next item is evaluated
// straight away. Items see time measured from the Sequence's first call.
// The Sequence stops when its last item does.
func Sequence(items ...any) *Function {
	s := &sequence{}
	for _, x := range items {
		if _, ok := x.(stitchMarker); ok {
			if n := len(s.pieces); n > 0 {
				s.pieces[n-1].stitch = true
			}
			continue
		}
		s.pieces = append(s.pieces, makePiece(x))
	}
	return NewFunction(s)
}

func (s *sequence) Eval(t float64) Outcome {
	if !s.started {
		s.started, s.t0 = true, t
	}
	tt := t - s.t0
	if s.hasPrev && tt == s.tPrev {
		return s.prev
	}
	s.hasPrev, s.tPrev = true, tt
	if s.done {
		return s.prev
	}
	if len(s.pieces) == 0 {
		s.done = true
		s.prev = Stop(nil)
		return s.prev
	}

	for {
		p := &s.pieces[s.idx]
		out := p.eval(tt)
		if out.Kind != OutcomeStop {
			s.prev = out
			return out
		}
		if s.idx == len(s.pieces)-1 {
			s.done = true
			s.prev = out
			return out
		}
		s.idx++
		if p.stitch {
			continue
		}
		s.prev = Emit(out.Value)
		return s.prev
	}
}

func (s *sequence) resetTimeBase() error {
	return ErrResetUnsupported
}

// timeline switches between pieces at fixed offsets from its first call.
type timeline struct {
	keys   []float64
	pieces []seqPiece
	active int

	held    Value
	holding bool

	started bool
	t0      float64
	hasPrev bool
	tPrev   float64
	prev    Outcome
	done    bool
}

// Timeline returns a Function whose output at relative time tt comes from
// the item with the greatest key not after tt. Items are Function operands.
// A generator item that stops holds its terminal value until the next key.
// Before the first key the Timeline yields no value. It stops when the item
// at the last key has stopped, immediately for a constant.
func Timeline(items map[float64]any) *Function {
	tl := &timeline{active: -1}
	for k := range items {
		tl.keys = append(tl.keys, k)
	}
	sort.Float64s(tl.keys)
	for _, k := range tl.keys {
		tl.pieces = append(tl.pieces, makePiece(items[k]))
	}
	return NewFunction(tl)
}

func (tl *timeline) Eval(t float64) Outcome {
	if !tl.started {
		tl.started, tl.t0 = true, t
	}
	tt := t - tl.t0
	if tl.hasPrev && tt == tl.tPrev {
		return tl.prev
	}
	tl.hasPrev, tl.tPrev = true, tt
	if tl.done {
		return tl.prev
	}

	for tl.active+1 < len(tl.keys) && tl.keys[tl.active+1] <= tt {
		tl.active++
		tl.held, tl.holding = nil, false
	}
	if tl.active < 0 {
		tl.prev = Continue()
		return tl.prev
	}
	last := tl.active == len(tl.keys)-1

	var out Outcome
	if tl.holding {
		out = Stop(tl.held.Clone())
	} else {
		out = tl.pieces[tl.active].eval(tt)
	}
	switch out.Kind {
	case OutcomeStop:
		tl.held, tl.holding = out.Value, true
		if last {
			tl.done = true
		} else {
			out = Emit(out.Value)
		}
	}
	tl.prev = out
	return out
}

func (tl *timeline) resetTimeBase() error {
	return ErrResetUnsupported
}

// CallOnce returns a generator that calls fn on its first evaluation and
// stops with fn's result. It is meant as a side-effect piece of a Sequence.
func CallOnce(fn func() Value) Generator {
	called := false
	var result Value
	return GeneratorFunc(func(float64) Outcome {
		if !called {
			called = true
			result = fn()
		}
		return Stop(result.Clone())
	})
}

// WaitUntil returns a generator that yields ongoing until cond reports true,
// then stops with final. Nil values write nothing.
func WaitUntil(cond func() bool, ongoing, final Value) Generator {
	return GeneratorFunc(func(float64) Outcome {
		if cond() {
			return Stop(final.Clone())
		}
		return Emit(ongoing.Clone())
	})
}
