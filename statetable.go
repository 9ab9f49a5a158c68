package kinetic

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// StateHooks resolves the hook names used in a state table to functions.
type StateHooks struct {
	Onset    map[string]func(s *State)
	Ongoing  map[string]func(s *State) Target
	Offset   map[string]func(s *State)
	Duration map[string]DurationFunc
	Next     map[string]NextFunc
}

// stateRow is one state in a state table document.
type stateRow struct {
	Name         string   `yaml:"name"`
	Duration     *float64 `yaml:"duration,omitempty"`
	DurationHook string   `yaml:"duration_hook,omitempty"`
	Next         string   `yaml:"next,omitempty"`
	NextHook     string   `yaml:"next_hook,omitempty"`
	Terminal     bool     `yaml:"terminal,omitempty"`
	Onset        string   `yaml:"onset,omitempty"`
	Ongoing      string   `yaml:"ongoing,omitempty"`
	Offset       string   `yaml:"offset,omitempty"`
}

// stateTable is the top-level structure of a state table document.
type stateTable struct {
	Name   string     `yaml:"name"`
	States []stateRow `yaml:"states"`
}

// LoadStateTable builds a StateMachine from a YAML state table. Hook fields
// name entries of hooks; a state without next or terminal continues with the
// state listed after it.
//
//	name: trial
//	states:
//	  - {name: fixation, duration: 0.5, onset: showCross}
//	  - {name: stimulus, duration_hook: jittered, offset: hideStimulus}
//	  - {name: response, ongoing: awaitKey, next: fixation}
func LoadStateTable(data []byte, hooks StateHooks) (*StateMachine, error) {
	var table stateTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse state table: %w", err)
	}
	if len(table.States) == 0 {
		return nil, fmt.Errorf("parse state table: no states")
	}

	m := NewStateMachine()
	m.Name = table.Name
	names := make(map[string]bool, len(table.States))
	for _, row := range table.States {
		names[row.Name] = true
	}

	var errs []error
	for _, row := range table.States {
		cfg, err := row.config(hooks, names)
		if err != nil {
			errs = append(errs, fmt.Errorf("state %q: %w", row.Name, err))
			continue
		}
		if _, err := m.AddState(cfg); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("parse state table: %w", errors.Join(errs...))
	}
	return m, nil
}

func (row stateRow) config(hooks StateHooks, names map[string]bool) (StateConfig, error) {
	cfg := StateConfig{Name: row.Name}

	switch {
	case row.Duration != nil && row.DurationHook != "":
		return cfg, fmt.Errorf("both duration and duration_hook given")
	case row.Duration != nil:
		cfg.Duration = After(*row.Duration)
	case row.DurationHook != "":
		fn, ok := hooks.Duration[row.DurationHook]
		if !ok {
			return cfg, fmt.Errorf("unknown duration hook %q", row.DurationHook)
		}
		cfg.Duration = fn
	}

	set := 0
	if row.Next != "" {
		set++
		if !names[row.Next] {
			return cfg, &UnknownStateError{Name: row.Next}
		}
		cfg.Next = Then(row.Next)
	}
	if row.NextHook != "" {
		set++
		fn, ok := hooks.Next[row.NextHook]
		if !ok {
			return cfg, fmt.Errorf("unknown next hook %q", row.NextHook)
		}
		cfg.Next = fn
	}
	if row.Terminal {
		set++
		cfg.Next = Halt()
	}
	if set > 1 {
		return cfg, fmt.Errorf("only one of next, next_hook and terminal may be given")
	}

	if row.Onset != "" {
		fn, ok := hooks.Onset[row.Onset]
		if !ok {
			return cfg, fmt.Errorf("unknown onset hook %q", row.Onset)
		}
		cfg.Onset = fn
	}
	if row.Ongoing != "" {
		fn, ok := hooks.Ongoing[row.Ongoing]
		if !ok {
			return cfg, fmt.Errorf("unknown ongoing hook %q", row.Ongoing)
		}
		cfg.Ongoing = fn
	}
	if row.Offset != "" {
		fn, ok := hooks.Offset[row.Offset]
		if !ok {
			return cfg, fmt.Errorf("unknown offset hook %q", row.Offset)
		}
		cfg.Offset = fn
	}
	return cfg, nil
}
