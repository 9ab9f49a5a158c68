package kinetic

import (
	"math"
	"sort"
)

// firCutoff is the distance, in sigmas, beyond which FIR samples are dropped.
const firCutoff = 5.0

type smoothSample struct {
	t    float64
	x, y Value
}

// smoother filters its source over time. With ewa set it is a first-order
// exponentially weighted average whose sigma is a half-life; otherwise a
// finite impulse response with weights exp(-0.5 * (|dt|/sigma)^exponent).
type smoother struct {
	src      Generator
	sigma    float64
	exponent float64
	ewa      bool

	memory []smoothSample // ascending t
	last   Value
}

// Smoother returns a Function yielding an exponentially weighted moving
// average of src whose weight halves every halfLife. A zero halfLife passes
// src through.
func Smoother(src any, halfLife float64) *Function {
	return NewFunction(&smoother{src: toGenerator(src), sigma: halfLife, ewa: true})
}

// FIRSmoother returns a Function yielding a kernel-weighted average of the
// recent samples of src. exponent 2 gives a Gaussian kernel with standard
// deviation sigma. Samples further than 5 sigma from the current t are
// forgotten.
func FIRSmoother(src any, sigma, exponent float64) *Function {
	return NewFunction(&smoother{src: toGenerator(src), sigma: sigma, exponent: exponent})
}

func (s *smoother) Eval(t float64) Outcome {
	i := sort.Search(len(s.memory), func(i int) bool { return s.memory[i].t >= t })
	if i < len(s.memory) && s.memory[i].t == t && s.memory[i].y != nil {
		s.last = s.memory[i].y
		return Emit(s.last.Clone())
	}

	out := s.src.Eval(t)
	if out.Kind == OutcomeAbort || out.Kind == OutcomeError {
		return out
	}
	x := out.Value.Clone()
	if x == nil || s.sigma == 0 {
		s.last = x
		return rewrap(out.Kind, x)
	}

	if i < len(s.memory) && s.memory[i].t == t {
		s.memory[i].x = x
	} else {
		s.memory = append(s.memory, smoothSample{})
		copy(s.memory[i+1:], s.memory[i:])
		s.memory[i] = smoothSample{t: t, x: x}
	}

	var y Value
	if s.ewa {
		y = s.ewaStep(t)
	} else {
		y = s.firStep(t)
	}
	for j := range s.memory {
		if s.memory[j].t == t {
			s.memory[j].y = y
		}
	}
	s.last = y
	return rewrap(out.Kind, y.Clone())
}

func rewrap(kind OutcomeKind, v Value) Outcome {
	if kind == OutcomeStop {
		return Stop(v)
	}
	return Emit(v)
}

// ewaStep keeps the two most recent samples and blends the previous output
// with the current input.
func (s *smoother) ewaStep(t float64) Value {
	n := len(s.memory)
	cur := s.memory[n-1]
	if n == 1 {
		return cur.x.Clone()
	}
	prev := s.memory[n-2]
	s.memory = append(s.memory[:0], prev, cur)
	lambda := math.Pow(0.5, (cur.t-prev.t)/s.sigma)

	yPrev := prev.y
	if yPrev == nil {
		yPrev = prev.x
	}
	a, err := OpMul.Apply(yPrev, Scalar(lambda))
	if err != nil {
		return cur.x.Clone()
	}
	b, err := OpMul.Apply(cur.x, Scalar(1-lambda))
	if err != nil {
		return cur.x.Clone()
	}
	y, err := OpAdd.Apply(a, b)
	if err != nil {
		return cur.x.Clone()
	}
	return y
}

// firStep prunes samples beyond the cutoff and returns the weighted mean.
func (s *smoother) firStep(t float64) Value {
	kept := s.memory[:0]
	var sumW float64
	var sumWX Value
	for _, m := range s.memory {
		nsig := math.Abs(t-m.t) / s.sigma
		if nsig > firCutoff {
			continue
		}
		kept = append(kept, m)
		w := math.Exp(-0.5 * math.Pow(nsig, s.exponent))
		sumW += w
		wx, err := OpMul.Apply(m.x, Scalar(w))
		if err != nil {
			continue
		}
		if sumWX == nil {
			sumWX = wx
		} else if acc, err := OpAdd.Apply(sumWX, wx); err == nil {
			sumWX = acc
		}
	}
	s.memory = kept
	y, _ := OpDiv.Apply(sumWX, Scalar(sumW))
	return y
}

func (s *smoother) resetTimeBase() error {
	s.memory = nil
	return ResetTimeBase(s.src)
}
