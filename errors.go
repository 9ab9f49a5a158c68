package kinetic

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArity is returned when a property default has fewer than 1 or
	// more than 4 elements.
	ErrInvalidArity = errors.New("kinetic: property arity must be between 1 and 4")

	// ErrDuplicateName is returned when a schema declares the same property
	// name or alias twice.
	ErrDuplicateName = errors.New("kinetic: duplicate property name")

	// ErrShortcutLink is returned when a link is requested on a shortcut.
	// Shortcuts are views into another property and have no storage of their own.
	ErrShortcutLink = errors.New("kinetic: shortcuts cannot be linked")

	// ErrResetUnsupported is returned by ResetTimeBase for generators whose
	// memory cannot be rewound, such as sequences and state machines.
	ErrResetUnsupported = errors.New("kinetic: generator does not support time-base reset")

	// ErrTransitionLoop is returned when a state machine performs more chained
	// transitions in a single tick than it allows.
	ErrTransitionLoop = errors.New("kinetic: too many chained state transitions in one tick")

	// ErrInvalidTarget is returned when a state's next function asks for the
	// next state, which would recurse without end.
	ErrInvalidTarget = errors.New("kinetic: invalid transition target")

	// ErrRemoved is returned when an operation is attempted on an object that
	// has been removed from its world.
	ErrRemoved = errors.New("kinetic: object has been removed")
)

// ArityMismatchError reports a static assignment whose length neither matches
// nor evenly divides the property's arity.
type ArityMismatchError struct {
	Property string
	Arity    int
	Got      int
}

func (e *ArityMismatchError) Error() string {
	return fmt.Sprintf("kinetic: property %q has arity %d, cannot assign %d values", e.Property, e.Arity, e.Got)
}

// ShapeMismatchError reports an element-wise operation between two
// non-scalar values of different lengths.
type ShapeMismatchError struct {
	Op          Op
	Left, Right int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("kinetic: operands of %s have incompatible lengths %d and %d", e.Op, e.Left, e.Right)
}

// UnknownPropertyError reports a name that is neither a property, a shortcut
// nor an alias in a schema.
type UnknownPropertyError struct {
	Schema string
	Name   string
}

func (e *UnknownPropertyError) Error() string {
	return fmt.Sprintf("kinetic: schema %q has no property %q", e.Schema, e.Name)
}

// UnknownStateError reports a transition request naming a state that was
// never added to the machine.
type UnknownStateError struct {
	Name string
}

func (e *UnknownStateError) Error() string {
	return fmt.Sprintf("kinetic: unknown state %q", e.Name)
}

// IncompatibleLinkError reports a link between objects whose storage cannot
// be shared.
type IncompatibleLinkError struct {
	Property string
	Reason   string
}

func (e *IncompatibleLinkError) Error() string {
	return fmt.Sprintf("kinetic: cannot link property %q: %s", e.Property, e.Reason)
}

// GeneratorRuntimeError wraps a failure raised by a dynamic while an object
// was being advanced. The offending dynamic has already been removed when
// this error reaches a handler.
type GeneratorRuntimeError struct {
	Object   string
	Property string
	Time     float64
	Err      error
}

func (e *GeneratorRuntimeError) Error() string {
	return fmt.Sprintf("kinetic: dynamic %s.%s failed at t=%g: %v", e.Object, e.Property, e.Time, e.Err)
}

func (e *GeneratorRuntimeError) Unwrap() error {
	return e.Err
}

// PanicError carries a value recovered from a panicking generator.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
