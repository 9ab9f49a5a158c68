package kinetic

import (
	"fmt"
	"math"
)

// termMode says how a term's output combines with the running result.
type termMode uint8

const (
	modePlain   termMode = iota // replace the result
	modeLeft                    // result OP term
	modeRight                   // term OP result
	modeThrough                 // result = fn(result)
	modeWatch                   // inspect the result, maybe terminate
)

// WatchFunc inspects a Function's running result. Returning Continue, or a
// Value or Stop outcome with a nil value, lets the chain proceed. Abort stops
// the chain immediately with the payload. A non-nil Value or Stop outcome
// replaces the result and makes the Function stop once the rest of the chain
// has run.
type WatchFunc func(v Value) Outcome

type term struct {
	mode    termMode
	op      Op
	value   Value     // constant operand
	fn      *Function // nested chain, deep-copied on Clone
	gen     Generator // external generator, shared on Clone
	through func(Value) Value
	watch   WatchFunc
}

// Function is a composable generator: an ordered chain of constant,
// generator and nested-Function terms combined by arithmetic operators, plus
// transform and watch steps. Non-mutating operators return a copy of the
// receiver whose nested Functions are deep copies; stateful generators such
// as integrals and transitions are shared between copies.
//
// Evaluation folds the terms left to right. A term that stops marks the
// whole Function as stopped, and the final result is returned as Stop after
// every remaining term has run. An Abort or error from any term ends the
// evaluation immediately.
type Function struct {
	terms []term
}

// NewFunction returns a Function summing the given operands. Operands may be
// float64, int, Value, []float64, *Function, Generator, func(float64)
// float64 or func(float64) Value. Other types panic.
func NewFunction(operands ...any) *Function {
	f := &Function{}
	for i, x := range operands {
		if i == 0 {
			f.terms = append(f.terms, operandTerm(modePlain, OpAdd, x))
			continue
		}
		f.CombineInPlace(OpAdd, x)
	}
	return f
}

// Constant returns a Function that always yields v.
func Constant(v ...float64) *Function {
	return NewFunction(Vec(v...))
}

func operandTerm(mode termMode, op Op, x any) term {
	t := term{mode: mode, op: op}
	switch v := x.(type) {
	case nil:
	case float64:
		t.value = Value{v}
	case int:
		t.value = Value{float64(v)}
	case Value:
		t.value = v.Clone()
	case []float64:
		t.value = Vec(v...)
	case *Function:
		t.fn = v.Clone()
	case Generator:
		t.gen = v
	case func(float64) float64:
		t.gen = ScalarFunc(v)
	case func(float64) Value:
		t.gen = ValueFunc(v)
	case func(float64) Outcome:
		t.gen = GeneratorFunc(v)
	default:
		panic(fmt.Sprintf("kinetic: unsupported Function operand of type %T", x))
	}
	return t
}

// Clone returns a deep copy of the chain. Nested Functions are copied;
// generators, transform and watch callbacks are shared.
func (f *Function) Clone() *Function {
	out := &Function{terms: make([]term, len(f.terms))}
	copy(out.terms, f.terms)
	for i := range out.terms {
		if out.terms[i].fn != nil {
			out.terms[i].fn = out.terms[i].fn.Clone()
		}
	}
	return out
}

// Len returns the number of terms in the chain.
func (f *Function) Len() int { return len(f.terms) }

// Eval evaluates the chain at t.
func (f *Function) Eval(t float64) Outcome {
	var result Value
	stopped := false
	for i := range f.terms {
		tm := &f.terms[i]
		var v Value
		switch tm.mode {
		case modeThrough:
			result = tm.through(result)
			continue
		case modeWatch:
			if result == nil {
				continue
			}
			out := tm.watch(result)
			switch out.Kind {
			case OutcomeContinue:
				continue
			case OutcomeAbort, OutcomeError:
				return out
			}
			if out.Value == nil {
				continue
			}
			result = out.Value
			stopped = true
			continue
		}

		switch {
		case tm.fn != nil:
			out := tm.fn.Eval(t)
			if v, stopped = termValue(out, stopped); out.Kind >= OutcomeAbort {
				return out
			}
		case tm.gen != nil:
			out := tm.gen.Eval(t)
			if v, stopped = termValue(out, stopped); out.Kind >= OutcomeAbort {
				return out
			}
		default:
			v = tm.value.Clone()
		}

		if result == nil || tm.mode == modePlain {
			result = v
			continue
		}
		if v == nil {
			continue
		}
		var err error
		if tm.mode == modeLeft {
			result, err = tm.op.Apply(result, v)
		} else {
			result, err = tm.op.Apply(v, result)
		}
		if err != nil {
			return Fail(err)
		}
	}
	if stopped {
		return Stop(result)
	}
	return Emit(result)
}

func termValue(out Outcome, stopped bool) (Value, bool) {
	switch out.Kind {
	case OutcomeValue:
		return out.Value, stopped
	case OutcomeStop:
		return out.Value, true
	default:
		return nil, stopped
	}
}

// CombineInPlace appends "f OP x" to f itself and returns f.
func (f *Function) CombineInPlace(op Op, x any) *Function {
	f.terms = append(f.terms, operandTerm(modeLeft, op, x))
	return f
}

// Combine returns a copy of f extended with "f OP x".
func (f *Function) Combine(op Op, x any) *Function {
	return f.Clone().CombineInPlace(op, x)
}

// CombineReflected returns a copy of f extended with "x OP f".
func (f *Function) CombineReflected(op Op, x any) *Function {
	out := f.Clone()
	out.terms = append(out.terms, operandTerm(modeRight, op, x))
	return out
}

// Add, Sub, Mul, Div, FloorDiv, Pow, Mod, And, Or and Xor return a copy of f
// extended with "f OP x". x is a number, a Value, a *Function or a Generator.
func (f *Function) Add(x any) *Function      { return f.Combine(OpAdd, x) }
func (f *Function) Sub(x any) *Function      { return f.Combine(OpSub, x) }
func (f *Function) Mul(x any) *Function      { return f.Combine(OpMul, x) }
func (f *Function) Div(x any) *Function      { return f.Combine(OpDiv, x) }
func (f *Function) FloorDiv(x any) *Function { return f.Combine(OpFloorDiv, x) }
func (f *Function) Pow(x any) *Function      { return f.Combine(OpPow, x) }
func (f *Function) Mod(x any) *Function      { return f.Combine(OpMod, x) }
func (f *Function) And(x any) *Function      { return f.Combine(OpAnd, x) }
func (f *Function) Or(x any) *Function       { return f.Combine(OpOr, x) }
func (f *Function) Xor(x any) *Function      { return f.Combine(OpXor, x) }

// RAdd through RXor are the reflected forms: each returns a copy of f
// extended with "x OP f".
func (f *Function) RAdd(x any) *Function      { return f.CombineReflected(OpAdd, x) }
func (f *Function) RSub(x any) *Function      { return f.CombineReflected(OpSub, x) }
func (f *Function) RMul(x any) *Function      { return f.CombineReflected(OpMul, x) }
func (f *Function) RDiv(x any) *Function      { return f.CombineReflected(OpDiv, x) }
func (f *Function) RFloorDiv(x any) *Function { return f.CombineReflected(OpFloorDiv, x) }
func (f *Function) RPow(x any) *Function      { return f.CombineReflected(OpPow, x) }
func (f *Function) RMod(x any) *Function      { return f.CombineReflected(OpMod, x) }
func (f *Function) RAnd(x any) *Function      { return f.CombineReflected(OpAnd, x) }
func (f *Function) ROr(x any) *Function       { return f.CombineReflected(OpOr, x) }
func (f *Function) RXor(x any) *Function      { return f.CombineReflected(OpXor, x) }

// Neg returns a copy computing -f.
func (f *Function) Neg() *Function {
	return f.CombineReflected(OpSub, 0.0)
}

// Abs returns a copy computing |f| element-wise.
func (f *Function) Abs() *Function {
	return f.Clone().Map(math.Abs)
}

// Transform appends fn as a downstream step: the running result is replaced
// by fn(result). The receiver is modified and returned. fn may receive nil
// when no earlier term produced a value.
func (f *Function) Transform(fn func(Value) Value) *Function {
	f.terms = append(f.terms, term{mode: modeThrough, through: fn})
	return f
}

// Map is Transform with an element-wise scalar function. Nil results pass
// through unchanged.
func (f *Function) Map(fn func(float64) float64) *Function {
	return f.Transform(func(v Value) Value {
		if v == nil {
			return nil
		}
		out := make(Value, len(v))
		for i, x := range v {
			out[i] = fn(x)
		}
		return out
	})
}

// Watch appends a watch step. The receiver is modified and returned.
func (f *Function) Watch(fn WatchFunc) *Function {
	f.terms = append(f.terms, term{mode: modeWatch, watch: fn})
	return f
}

// Apply returns a copy of f with fn appended as a transform, leaving f
// untouched.
func Apply(fn func(Value) Value, f *Function) *Function {
	return f.Clone().Transform(fn)
}

// Tap exposes the value flowing through a point of a Function chain.
type Tap struct {
	value Value
}

// Tap installs a watch at the current end of the chain that records the
// running result, and returns it. Later steps do not affect what the tap sees.
func (f *Function) Tap(initial Value) *Tap {
	tp := &Tap{value: initial}
	f.Watch(func(v Value) Outcome {
		tp.value = v.Clone()
		return Continue()
	})
	return tp
}

// Value returns the most recently recorded value.
func (tp *Tap) Value() Value { return tp.value.Clone() }
