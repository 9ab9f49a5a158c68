package kinetic

import (
	"fmt"
	"math"
)

// maxChainedTransitions bounds the number of transitions one Advance call may
// perform, catching cycles of zero-duration states.
const maxChainedTransitions = 1024

// TargetKind discriminates a transition request.
type TargetKind uint8

const (
	// TargetNone is the zero Target: no transition requested.
	TargetNone TargetKind = iota
	// TargetState requests the state named by Target.Name.
	TargetState
	// TargetNext requests whatever the current state's Next resolves to.
	TargetNext
	// TargetTerminal requests that the machine be in no state.
	TargetTerminal
	// TargetCancel declines a transition that would otherwise happen.
	TargetCancel
)

// Target is a transition request returned by Next and Ongoing functions or
// passed to ChangeState.
type Target struct {
	Kind TargetKind
	Name string
}

// To returns a request for the named state.
func To(name string) Target { return Target{Kind: TargetState, Name: name} }

var (
	// NextState requests the current state's successor.
	NextState = Target{Kind: TargetNext}
	// Terminal requests that the machine stop in no state.
	Terminal = Target{Kind: TargetTerminal}
	// Cancel declines the pending transition.
	Cancel = Target{Kind: TargetCancel}
)

// IsZero reports whether t requests nothing.
func (t Target) IsZero() bool { return t.Kind == TargetNone }

func (t Target) String() string {
	switch t.Kind {
	case TargetNone:
		return "<none>"
	case TargetState:
		return t.Name
	case TargetNext:
		return "<next>"
	case TargetTerminal:
		return "<terminal>"
	case TargetCancel:
		return "<cancel>"
	default:
		return fmt.Sprintf("Target(%d)", uint8(t.Kind))
	}
}

// DurationFunc returns how long a state lasts. ok=false means indefinitely.
// It is called once per visit, on the first tick spent in the state.
type DurationFunc func(s *State) (d float64, ok bool)

// After returns a DurationFunc with the fixed duration d.
func After(d float64) DurationFunc {
	return func(*State) (float64, bool) { return d, true }
}

// NextFunc chooses the successor of a state.
type NextFunc func(s *State) Target

// Then returns a NextFunc that always chooses the named state.
func Then(name string) NextFunc {
	return func(*State) Target { return To(name) }
}

// Halt returns a NextFunc that leaves the machine in no state.
func Halt() NextFunc {
	return func(*State) Target { return Terminal }
}

// StateConfig declares one state of a StateMachine.
type StateConfig struct {
	Name string
	// Duration is nil for states that only end on request.
	Duration DurationFunc
	// Next is nil to mean "the state added after this one", or no state when
	// none is added.
	Next    NextFunc
	Onset   func(s *State)
	Ongoing func(s *State) Target
	Offset  func(s *State)
}

// State is a registered state of a StateMachine.
type State struct {
	Name    string
	machine *StateMachine
	cfg     StateConfig
	next    NextFunc
}

// Machine returns the machine that owns s.
func (s *State) Machine() *StateMachine { return s.machine }

// Elapsed returns the time since the machine last changed state.
func (s *State) Elapsed() float64 { return s.machine.ElapsedCurrent() }

// Fresh reports whether the machine entered its current state on this tick.
func (s *State) Fresh() bool { return s.machine.Fresh() }

// Time returns the t of the machine's latest Advance call.
func (s *State) Time() float64 { return s.machine.callTime }

// StateMachine is a discrete-time state machine advanced once per tick.
// Durations are measured from the exact time of the last change, which is
// back-computed as origin + duration for automatic transitions, so sampling
// jitter never accumulates across states.
type StateMachine struct {
	// Name identifies the machine to scripts and state tables.
	Name string

	states  map[string]*State
	order   []*State
	last    *State
	current *State

	started        bool
	firstCallTime  float64
	callTime       float64
	changeTime     float64
	changeCallTime float64

	duration      float64
	hasDuration   bool
	durationKnown bool

	pending   []Target
	advancing bool
}

// NewStateMachine creates an empty machine. The first state added becomes
// current on the first Advance.
func NewStateMachine() *StateMachine {
	return &StateMachine{states: make(map[string]*State)}
}

// AddState registers a state. A state whose Next is nil transitions to the
// state added after it.
func (m *StateMachine) AddState(cfg StateConfig) (*State, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("kinetic: state name must not be empty")
	}
	if _, ok := m.states[cfg.Name]; ok {
		return nil, fmt.Errorf("kinetic: state %q already added", cfg.Name)
	}
	s := &State{Name: cfg.Name, machine: m, cfg: cfg, next: cfg.Next}
	if len(m.states) == 0 {
		m.pending = append(m.pending, To(s.Name))
	}
	m.states[s.Name] = s
	m.order = append(m.order, s)
	if m.last != nil && m.last.next == nil {
		m.last.next = Then(s.Name)
	}
	m.last = s
	return s, nil
}

// MustAddState is like AddState but panics on error.
func (m *StateMachine) MustAddState(cfg StateConfig) *State {
	s, err := m.AddState(cfg)
	if err != nil {
		panic(err)
	}
	return s
}

// State returns the named state.
func (m *StateMachine) State(name string) (*State, bool) {
	s, ok := m.states[name]
	return s, ok
}

// States returns every state in the order added.
func (m *StateMachine) States() []*State {
	return append([]*State(nil), m.order...)
}

// Current returns the current state, or nil when the machine is in no state.
func (m *StateMachine) Current() *State { return m.current }

// Fresh reports whether the current state was entered on the latest tick.
func (m *StateMachine) Fresh() bool {
	return m.started && m.changeCallTime == m.callTime
}

// ElapsedCurrent returns the time from the last state change to the latest
// tick, or 0 before the first tick.
func (m *StateMachine) ElapsedCurrent() float64 {
	if !m.started {
		return 0
	}
	return m.callTime - m.changeTime
}

// ElapsedTotal returns the time from the first tick to the latest tick.
func (m *StateMachine) ElapsedTotal() float64 {
	if !m.started {
		return 0
	}
	return m.callTime - m.firstCallTime
}

// ElapsedAt returns the time from the last state change to t.
func (m *StateMachine) ElapsedAt(t float64) float64 { return t - m.changeTime }

// ChangeTime returns the exact time of the last state change.
func (m *StateMachine) ChangeTime() float64 { return m.changeTime }

// ChangeState requests a transition. Called from outside Advance, the
// request is queued and applied at the start of the next tick with that
// tick's time. Called from a hook during Advance, it is applied at once.
func (m *StateMachine) ChangeState(target Target) error {
	if target.Kind == TargetState {
		if _, ok := m.states[target.Name]; !ok {
			return &UnknownStateError{Name: target.Name}
		}
	}
	if !m.advancing {
		m.pending = append(m.pending, target)
		return nil
	}
	_, err := m.apply(target, m.callTime)
	return err
}

// Advance moves the machine to tick t and returns the current state.
// Repeated calls with the same t do nothing. Hook panics propagate.
func (m *StateMachine) Advance(t float64) (*State, error) {
	if m.started && t == m.callTime {
		return m.current, nil
	}
	m.callTime = t
	if !m.started {
		m.started = true
		m.firstCallTime, m.changeTime, m.changeCallTime = t, t, t
	}
	m.advancing = true
	defer func() { m.advancing = false }()

	for len(m.pending) > 0 {
		target := m.pending[0]
		m.pending = m.pending[1:]
		if _, err := m.apply(target, t); err != nil {
			return m.current, err
		}
	}

	for n := 0; ; {
		// automatic transitions, possibly several when a tick spans short states
		for m.current != nil {
			d, ok := m.currentDuration()
			if !ok || t-m.changeTime < d {
				break
			}
			if n++; n > maxChainedTransitions {
				return m.current, ErrTransitionLoop
			}
			changed, err := m.apply(NextState, m.changeTime+d)
			if err != nil {
				return m.current, err
			}
			if !changed {
				break
			}
		}

		if m.current == nil || m.current.cfg.Ongoing == nil {
			break
		}
		target := m.current.cfg.Ongoing(m.current)
		if target.IsZero() || target.Kind == TargetCancel {
			break
		}
		if n++; n > maxChainedTransitions {
			return m.current, ErrTransitionLoop
		}
		changed, err := m.apply(target, t)
		if err != nil {
			return m.current, err
		}
		if !changed {
			break
		}
	}
	return m.current, nil
}

func (m *StateMachine) currentDuration() (float64, bool) {
	if !m.durationKnown {
		m.durationKnown = true
		m.duration, m.hasDuration = 0, false
		if m.current != nil && m.current.cfg.Duration != nil {
			m.duration, m.hasDuration = m.current.cfg.Duration(m.current)
			if math.IsNaN(m.duration) {
				m.hasDuration = false
			}
		}
	}
	return m.duration, m.hasDuration
}

// resolve turns a target into the state to enter, nil meaning no state.
func (m *StateMachine) resolve(target Target) (next *State, cancel bool, err error) {
	if target.Kind == TargetNext {
		if m.current == nil || m.current.next == nil {
			return nil, false, nil
		}
		target = m.current.next(m.current)
		if target.Kind == TargetNext {
			return nil, false, fmt.Errorf("%w: state %q names NextState as its successor", ErrInvalidTarget, m.current.Name)
		}
	}
	switch target.Kind {
	case TargetCancel, TargetNone:
		return nil, true, nil
	case TargetTerminal:
		return nil, false, nil
	case TargetState:
		s, ok := m.states[target.Name]
		if !ok {
			return nil, false, &UnknownStateError{Name: target.Name}
		}
		return s, false, nil
	default:
		return nil, false, fmt.Errorf("%w: %v", ErrInvalidTarget, target)
	}
}

// apply performs a transition at time toc. It reports false when the target
// cancelled the transition.
func (m *StateMachine) apply(target Target, toc float64) (bool, error) {
	next, cancel, err := m.resolve(target)
	if err != nil || cancel {
		return false, err
	}
	prev := m.current
	if prev != nil && prev.cfg.Offset != nil {
		prev.cfg.Offset(prev)
	}
	if prev != nil || next != nil {
		m.changeTime = toc
		m.changeCallTime = m.callTime
	}
	m.durationKnown = false
	m.current = next
	if next != nil && next.cfg.Onset != nil {
		next.cfg.Onset(next)
	}
	return true, nil
}

// Output adapts the machine into a Generator: each Eval advances the machine
// to t and returns fn's outcome for the resulting state. Errors from the
// machine become error outcomes.
func (m *StateMachine) Output(fn func(m *StateMachine) Outcome) Generator {
	return &machineOutput{machine: m, fn: fn}
}

type machineOutput struct {
	machine *StateMachine
	fn      func(*StateMachine) Outcome
}

func (o *machineOutput) Eval(t float64) Outcome {
	if _, err := o.machine.Advance(t); err != nil {
		return Fail(err)
	}
	return o.fn(o.machine)
}

func (o *machineOutput) resetTimeBase() error {
	return ErrResetUnsupported
}
