package kinetic

import (
	"fmt"
	"math"
)

// Value is the numeric payload of a property or generator: a short vector of
// float64. A scalar is a Value of length 1.
type Value []float64

// Scalar returns a length-1 Value holding x.
func Scalar(x float64) Value {
	return Value{x}
}

// Vec returns a Value holding a copy of xs.
func Vec(xs ...float64) Value {
	v := make(Value, len(xs))
	copy(v, xs)
	return v
}

// Clone returns an independent copy of v. A nil Value clones to nil.
func (v Value) Clone() Value {
	if v == nil {
		return nil
	}
	out := make(Value, len(v))
	copy(out, v)
	return out
}

// Float returns the first element of v, or NaN if v is empty.
func (v Value) Float() float64 {
	if len(v) == 0 {
		return math.NaN()
	}
	return v[0]
}

// Equal reports whether v and o have the same length and elements.
// NaN elements never compare equal.
func (v Value) Equal(o Value) bool {
	if len(v) != len(o) {
		return false
	}
	for i := range v {
		if v[i] != o[i] {
			return false
		}
	}
	return true
}

// IsNaN reports whether every element of v is NaN. An empty Value is not NaN.
func (v Value) IsNaN() bool {
	if len(v) == 0 {
		return false
	}
	for _, x := range v {
		if !math.IsNaN(x) {
			return false
		}
	}
	return true
}

// filled returns a Value of length n with every element set to x.
func filled(n int, x float64) Value {
	v := make(Value, n)
	for i := range v {
		v[i] = x
	}
	return v
}

// Op selects a binary element-wise operator for Function chains and Value
// arithmetic.
type Op uint8

const (
	OpAdd      Op = iota // a + b
	OpSub                // a - b
	OpMul                // a * b
	OpDiv                // a / b
	OpFloorDiv           // floor(a / b)
	OpPow                // a ** b
	OpMod                // floored modulo, result takes the sign of b
	OpAnd                // bitwise and of the integer parts
	OpOr                 // bitwise or of the integer parts
	OpXor                // bitwise xor of the integer parts
)

var opNames = [...]string{
	OpAdd:      "+",
	OpSub:      "-",
	OpMul:      "*",
	OpDiv:      "/",
	OpFloorDiv: "//",
	OpPow:      "**",
	OpMod:      "%",
	OpAnd:      "&",
	OpOr:       "|",
	OpXor:      "^",
}

// String returns the operator symbol.
func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", uint8(op))
}

func (op Op) scalar(a, b float64) float64 {
	switch op {
	case OpAdd:
		return a + b
	case OpSub:
		return a - b
	case OpMul:
		return a * b
	case OpDiv:
		return a / b
	case OpFloorDiv:
		return math.Floor(a / b)
	case OpPow:
		return math.Pow(a, b)
	case OpMod:
		r := math.Mod(a, b)
		if r != 0 && (r < 0) != (b < 0) {
			r += b
		}
		return r
	case OpAnd:
		return float64(int64(a) & int64(b))
	case OpOr:
		return float64(int64(a) | int64(b))
	case OpXor:
		return float64(int64(a) ^ int64(b))
	default:
		panic(fmt.Sprintf("kinetic: unknown operator %d", uint8(op)))
	}
}

// Apply combines a and b element-wise and returns a new Value. A length-1
// operand is broadcast against the other; otherwise the lengths must match.
func (op Op) Apply(a, b Value) (Value, error) {
	switch {
	case len(a) == 0 || len(b) == 0:
		return nil, &ShapeMismatchError{Op: op, Left: len(a), Right: len(b)}
	case len(a) == len(b):
		out := make(Value, len(a))
		for i := range a {
			out[i] = op.scalar(a[i], b[i])
		}
		return out, nil
	case len(a) == 1:
		out := make(Value, len(b))
		for i := range b {
			out[i] = op.scalar(a[0], b[i])
		}
		return out, nil
	case len(b) == 1:
		out := make(Value, len(a))
		for i := range a {
			out[i] = op.scalar(a[i], b[0])
		}
		return out, nil
	default:
		return nil, &ShapeMismatchError{Op: op, Left: len(a), Right: len(b)}
	}
}

// Lerp interpolates element-wise between a and b by fraction x, broadcasting
// length-1 operands.
func Lerp(a, b Value, x float64) (Value, error) {
	if len(a) == 0 || len(b) == 0 || (len(a) != len(b) && len(a) != 1 && len(b) != 1) {
		return nil, &ShapeMismatchError{Op: OpAdd, Left: len(a), Right: len(b)}
	}
	n := max(len(a), len(b))
	out := make(Value, n)
	for i := range out {
		ai := a[0]
		if len(a) > 1 {
			ai = a[i]
		}
		bi := b[0]
		if len(b) > 1 {
			bi = b[i]
		}
		out[i] = (1-x)*ai + x*bi
	}
	return out, nil
}
