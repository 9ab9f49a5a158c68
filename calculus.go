package kinetic

import (
	"fmt"
	"math"
)

// IntegrationRule selects how an Integral accumulates between samples.
type IntegrationRule uint8

const (
	// Trapezium assumes the integrand moved linearly since the last sample.
	Trapezium IntegrationRule = iota
	// Rectangle assumes the integrand stepped to its new value right after
	// the last sample.
	Rectangle
)

// IntegralConfig configures IntegralWith. The zero value integrates with the
// trapezium rule from an initial value of 0.
type IntegralConfig struct {
	Rule    IntegrationRule
	Initial Value
}

// timeBaseResetter is implemented by generators that remember earlier calls.
type timeBaseResetter interface {
	resetTimeBase() error
}

// ResetTimeBase erases the memory of previous calls in g and, recursively,
// in every term of a Function chain, so the next t is treated as time zero.
// Integrals keep their accumulated value. Sequences and state machines
// cannot be rewound and yield ErrResetUnsupported. Calling ResetTimeBase on
// a generator that is being evaluated is not supported.
func ResetTimeBase(g Generator) error {
	switch x := g.(type) {
	case *Function:
		for i := range x.terms {
			tm := &x.terms[i]
			var err error
			switch {
			case tm.fn != nil:
				err = ResetTimeBase(tm.fn)
			case tm.gen != nil:
				err = ResetTimeBase(tm.gen)
			}
			if err != nil {
				return err
			}
		}
		return nil
	case timeBaseResetter:
		return x.resetTimeBase()
	default:
		return nil
	}
}

// toGenerator converts a Function operand into a Generator.
func toGenerator(x any) Generator {
	tm := operandTerm(modePlain, OpAdd, x)
	switch {
	case tm.fn != nil:
		return tm.fn
	case tm.gen != nil:
		return tm.gen
	case tm.value != nil:
		v := tm.value
		return GeneratorFunc(func(float64) Outcome { return Emit(v.Clone()) })
	default:
		panic(fmt.Sprintf("kinetic: cannot use %v as a generator", x))
	}
}

// calculus integrates or differentiates its source over the distinct t
// values it is called with.
type calculus struct {
	src       Generator
	integrate bool
	rule      IntegrationRule

	hasPrev bool
	tPrev   float64
	fPrev   Value
	y       Value
}

// Integral returns a Function yielding the running integral of the sum of
// operands over the t values it is called with, by the trapezium rule.
// With no operands it integrates the constant 1.
func Integral(operands ...any) *Function {
	return IntegralWith(IntegralConfig{}, operands...)
}

// IntegralWith is Integral with an explicit rule and initial value. Each
// operand is integrated separately and the results are summed.
func IntegralWith(cfg IntegralConfig, operands ...any) *Function {
	if len(operands) == 0 {
		operands = []any{1.0}
	}
	initial := cfg.Initial
	if initial == nil {
		initial = Scalar(0)
	}
	terms := make([]any, len(operands))
	for i, x := range operands {
		terms[i] = &calculus{src: toGenerator(x), integrate: true, rule: cfg.Rule, y: initial.Clone()}
	}
	return NewFunction(terms...)
}

// Derivative returns a Function yielding the discrete time derivative of
// the sum of operands. The output is NaN on the first call and after a time
// base reset, until a second sample exists.
func Derivative(operands ...any) *Function {
	if len(operands) == 0 {
		operands = []any{1.0}
	}
	terms := make([]any, len(operands))
	for i, x := range operands {
		terms[i] = &calculus{src: toGenerator(x), y: Scalar(0)}
	}
	return NewFunction(terms...)
}

// Eval samples the source at t and updates the accumulator. When the source
// stops, its final sample is included and the result is returned as Stop.
func (c *calculus) Eval(t float64) Outcome {
	hasDt := c.hasPrev
	dt := t - c.tPrev

	out := c.src.Eval(t)
	switch out.Kind {
	case OutcomeAbort, OutcomeError:
		c.tPrev, c.hasPrev = t, true
		return out
	case OutcomeContinue:
		return Emit(c.y.Clone())
	}
	v := out.Value
	if v == nil {
		return Emit(c.y.Clone())
	}

	remember := !v.IsNaN() || !c.integrate
	if remember {
		c.tPrev, c.hasPrev = t, true
	}

	var err error
	switch {
	case !hasDt && len(c.y) == 1 && len(v) > 1:
		c.y = filled(len(v), c.y[0])
	case hasDt && dt != 0 && remember:
		switch {
		case !c.integrate:
			var diff Value
			if diff, err = OpSub.Apply(v, c.fPrev); err == nil {
				c.y, err = OpDiv.Apply(diff, Scalar(dt))
			}
		case c.rule == Rectangle:
			var area Value
			if area, err = OpMul.Apply(v, Scalar(dt)); err == nil {
				c.y, err = OpAdd.Apply(c.y, area)
			}
		default:
			var sum Value
			if sum, err = OpAdd.Apply(v, c.fPrev); err == nil {
				var area Value
				if area, err = OpMul.Apply(sum, Scalar(0.5*dt)); err == nil {
					c.y, err = OpAdd.Apply(c.y, area)
				}
			}
		}
	}
	if err != nil {
		return Fail(err)
	}
	if ((hasDt && dt != 0) || c.fPrev == nil) && remember {
		c.fPrev = v.Clone()
	}
	if !hasDt && !c.integrate {
		c.y = filled(max(len(v), 1), math.NaN())
	}

	if out.Kind == OutcomeStop {
		return Stop(c.y.Clone())
	}
	return Emit(c.y.Clone())
}

func (c *calculus) resetTimeBase() error {
	c.hasPrev = false
	return ResetTimeBase(c.src)
}

// Clock returns a Function yielding speed * t. When startNow is true, t is
// measured from the first call.
func Clock(speed float64, startNow bool) *Function {
	started := false
	var t0 float64
	return NewFunction(GeneratorFunc(func(t float64) Outcome {
		if !startNow {
			return Emit(Value{speed * t})
		}
		if !started {
			started, t0 = true, t
		}
		return Emit(Value{speed * (t - t0)})
	}))
}

// Impulse returns a Function yielding magnitude at the t of its first call
// and 0 at any other t. With autostop it stops with 0 after the impulse.
func Impulse(magnitude float64, autostop bool) *Function {
	started := false
	var t0 float64
	return NewFunction(GeneratorFunc(func(t float64) Outcome {
		if !started {
			started, t0 = true, t
		}
		switch {
		case t == t0:
			return Emit(Value{magnitude})
		case autostop:
			return Stop(Value{0})
		default:
			return Emit(Value{0})
		}
	}))
}

// Sinusoid returns sin(2π(cycles + phaseDeg/360)): a sine of an argument in
// cycles with a phase offset in degrees.
func Sinusoid(cycles, phaseDeg float64) float64 {
	return math.Sin(2 * math.Pi * (cycles + phaseDeg/360))
}

// Oscillator returns a Function whose output oscillates sinusoidally at freq
// cycles per unit time, from the integral of freq.
func Oscillator(freq, phaseDeg float64) *Function {
	return Integral(freq).Map(func(cycles float64) float64 {
		return Sinusoid(cycles, phaseDeg)
	})
}
