package kinetic

import "fmt"

// Generator produces a property value for a tick time t. Generators are
// evaluated synchronously, once per distinct t, by the object that owns
// them. A generator that keeps state should return its cached result when
// called again with the t of its previous call.
type Generator interface {
	Eval(t float64) Outcome
}

// GeneratorFunc adapts an ordinary function to the Generator interface.
type GeneratorFunc func(t float64) Outcome

// Eval calls f(t).
func (f GeneratorFunc) Eval(t float64) Outcome {
	return f(t)
}

// ValueFunc adapts a function of time that never terminates.
func ValueFunc(fn func(t float64) Value) Generator {
	return GeneratorFunc(func(t float64) Outcome {
		return Emit(fn(t))
	})
}

// ScalarFunc adapts a scalar function of time that never terminates.
func ScalarFunc(fn func(t float64) float64) Generator {
	return GeneratorFunc(func(t float64) Outcome {
		return Emit(Value{fn(t)})
	})
}

// OutcomeKind discriminates the result of a generator evaluation.
type OutcomeKind uint8

const (
	// OutcomeContinue keeps the dynamic without writing a value.
	OutcomeContinue OutcomeKind = iota
	// OutcomeValue writes Value (when non-nil) and keeps the dynamic.
	OutcomeValue
	// OutcomeStop writes Value (when non-nil) one last time and removes the dynamic.
	OutcomeStop
	// OutcomeAbort removes the dynamic and applies Payload as a batch of assignments.
	OutcomeAbort
	// OutcomeError removes the dynamic and reports Err.
	OutcomeError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeContinue:
		return "continue"
	case OutcomeValue:
		return "value"
	case OutcomeStop:
		return "stop"
	case OutcomeAbort:
		return "abort"
	case OutcomeError:
		return "error"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", uint8(k))
	}
}

// Outcome is the result of one generator evaluation.
type Outcome struct {
	Kind    OutcomeKind
	Value   Value
	Payload map[string]Assignment
	Err     error
}

// Emit returns an outcome carrying v. A nil v behaves like Continue.
func Emit(v Value) Outcome {
	return Outcome{Kind: OutcomeValue, Value: v}
}

// Continue returns an outcome that keeps the dynamic without a new value.
func Continue() Outcome {
	return Outcome{Kind: OutcomeContinue}
}

// Stop returns a terminal outcome carrying the final value v.
func Stop(v Value) Outcome {
	return Outcome{Kind: OutcomeStop, Value: v}
}

// Abort returns a terminal outcome whose payload maps property names to
// assignments applied to the owning object after the current pass.
func Abort(payload map[string]Assignment) Outcome {
	return Outcome{Kind: OutcomeAbort, Payload: payload}
}

// Fail returns an error outcome.
func Fail(err error) Outcome {
	return Outcome{Kind: OutcomeError, Err: err}
}

// Terminal reports whether the outcome ends the generator's life as a dynamic.
func (o Outcome) Terminal() bool {
	return o.Kind >= OutcomeStop
}

// AssignKind discriminates the intent of an Assignment.
type AssignKind uint8

const (
	// AssignStatic writes a fixed value and cancels any dynamic.
	AssignStatic AssignKind = iota
	// AssignDynamic installs a generator as the property's dynamic.
	AssignDynamic
	// AssignLink shares another object's storage for the property.
	AssignLink
)

// Assignment is the intent of a property write: a static value, a dynamic
// generator, or a link to another object's storage.
type Assignment struct {
	Kind      AssignKind
	Value     Value
	Generator Generator
	Target    *Object
}

// Static returns an assignment of the fixed value v.
func Static(v ...float64) Assignment {
	return Assignment{Kind: AssignStatic, Value: Vec(v...)}
}

// StaticValue returns an assignment of the fixed value v.
func StaticValue(v Value) Assignment {
	return Assignment{Kind: AssignStatic, Value: v}
}

// Dynamic returns an assignment installing g as a dynamic.
func Dynamic(g Generator) Assignment {
	return Assignment{Kind: AssignDynamic, Generator: g}
}

// LinkTo returns an assignment sharing o's storage. Assigning LinkTo(o) to
// o itself makes the property independent.
func LinkTo(o *Object) Assignment {
	return Assignment{Kind: AssignLink, Target: o}
}
