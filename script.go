package kinetic

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// scriptStep is a single action in a script.
type scriptStep struct {
	Action   string    `yaml:"action"`
	Object   string    `yaml:"object,omitempty"`
	Property string    `yaml:"property,omitempty"`
	Value    []float64 `yaml:"value,omitempty"`
	From     []float64 `yaml:"from,omitempty"`
	To       []float64 `yaml:"to,omitempty"`
	Target   string    `yaml:"target,omitempty"`
	Expr     string    `yaml:"expr,omitempty"`
	Machine  string    `yaml:"machine,omitempty"`
	State    string    `yaml:"state,omitempty"`
	Frames   int       `yaml:"frames,omitempty"`
}

// script is the top-level structure of a script document.
type script struct {
	Steps []scriptStep `yaml:"steps"`
}

var scriptActions = map[string]bool{
	"set": true, "ramp": true, "dynamic": true, "link": true,
	"unlink": true, "state": true, "wait": true,
}

// ScriptRunner sequences injected property writes and state changes across
// ticks for automated testing. Attach to a World via SetScript.
type ScriptRunner struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool
}

// LoadScript parses a YAML (or JSON) script and returns a ScriptRunner
// ready to be attached to a World via SetScript.
//
//	steps:
//	  - {action: set, object: patch, property: contrast, value: [0.5]}
//	  - {action: wait, frames: 3}
//	  - {action: ramp, object: patch, property: position, from: [0, 0], to: [100, 0], frames: 10}
//	  - {action: dynamic, object: patch, property: phase, expr: "t * 2"}
//	  - {action: link, object: b, property: position, target: a}
//	  - {action: unlink, object: b, property: position}
//	  - {action: state, machine: trial, state: response}
func LoadScript(data []byte) (*ScriptRunner, error) {
	var sc script
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("parse script: no steps")
	}
	for i, st := range sc.Steps {
		if !scriptActions[st.Action] {
			return nil, fmt.Errorf("parse script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &ScriptRunner{steps: sc.Steps}, nil
}

// SetScript attaches a ScriptRunner to the world. The runner's step method
// is called at the start of every tick, before injections are processed.
func (w *World) SetScript(r *ScriptRunner) {
	w.script = r
}

// Done reports whether all steps in the script have been executed.
func (r *ScriptRunner) Done() bool {
	return r.done
}

// step advances the runner by one tick.
func (r *ScriptRunner) step(w *World, t float64) {
	if r.done {
		return
	}
	// Pending injections drain before the next step.
	if len(w.injectQueue) > 0 {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++
	if err := r.exec(w, st); err != nil {
		w.reportError(fmt.Errorf("script step %d (%s) at t=%g: %w", r.cursor-1, st.Action, t, err))
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 && len(w.injectQueue) == 0 {
		r.done = true
	}
}

func (r *ScriptRunner) exec(w *World, st scriptStep) error {
	switch st.Action {
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this tick counts as one
		}
		return nil
	case "state":
		m, ok := w.Machine(st.Machine)
		if !ok {
			return fmt.Errorf("unknown machine %q", st.Machine)
		}
		target := Terminal
		if st.State != "" {
			target = To(st.State)
		}
		if _, ok := m.State(st.State); st.State != "" && !ok {
			return &UnknownStateError{Name: st.State}
		}
		w.InjectStateChange(m, target)
		return nil
	}

	o, ok := w.Object(st.Object)
	if !ok {
		return fmt.Errorf("unknown object %q", st.Object)
	}
	switch st.Action {
	case "set":
		w.Inject(o, st.Property, StaticValue(st.Value))
	case "ramp":
		w.InjectRamp(o, st.Property, st.From, st.To, st.Frames)
	case "dynamic":
		f, err := Expr(st.Expr)
		if err != nil {
			return err
		}
		w.Inject(o, st.Property, Dynamic(f))
	case "link":
		target, ok := w.Object(st.Target)
		if !ok {
			return fmt.Errorf("unknown object %q", st.Target)
		}
		w.Inject(o, st.Property, LinkTo(target))
	case "unlink":
		return o.Unlink(st.Property)
	}
	return nil
}
