package kinetic

import (
	"log/slog"
	"sort"
)

// dynamicEntry is one active generator driving one property of an object.
type dynamicEntry struct {
	prop  *Property
	gen   Generator
	order float64
}

// dynamics is an object's registry of active generators, keyed by canonical
// property name. It is allocated on the first dynamic assignment.
type dynamics struct {
	entries map[string]*dynamicEntry
	lastT   float64
	ticked  bool
}

func (o *Object) dynamics() *dynamics {
	if o.dyn == nil {
		o.dyn = &dynamics{entries: make(map[string]*dynamicEntry)}
	}
	return o.dyn
}

func (d *dynamics) install(p *Property, g Generator, order float64) {
	d.entries[p.name] = &dynamicEntry{prop: p, gen: g, order: order}
}

func (d *dynamics) cancel(name string) bool {
	if _, ok := d.entries[name]; !ok {
		return false
	}
	delete(d.entries, name)
	return true
}

// sorted returns the entries ordered by (order, name).
func (d *dynamics) sorted() []*dynamicEntry {
	out := make([]*dynamicEntry, 0, len(d.entries))
	for _, e := range d.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].order != out[j].order {
			return out[i].order < out[j].order
		}
		return out[i].prop.name < out[j].prop.name
	})
	return out
}

// Dynamic returns the generator currently driving the named property.
func (o *Object) Dynamic(name string) (Generator, bool) {
	p, ok := o.schema.Lookup(name)
	if !ok || o.dyn == nil {
		return nil, false
	}
	e, ok := o.dyn.entries[p.name]
	if !ok {
		return nil, false
	}
	return e.gen, true
}

// Dynamics returns the canonical names of properties that have an active
// dynamic, in evaluation order.
func (o *Object) Dynamics() []string {
	if o.dyn == nil {
		return nil
	}
	entries := o.dyn.sorted()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.prop.name
	}
	return names
}

// ClearDynamics removes the dynamics of the named properties, or every
// dynamic when no names are given. Stored values are left as they are.
func (o *Object) ClearDynamics(names ...string) {
	if o.dyn == nil {
		return
	}
	if len(names) == 0 {
		clear(o.dyn.entries)
		return
	}
	for _, name := range names {
		if p, ok := o.schema.Lookup(name); ok {
			o.dyn.cancel(p.name)
		}
	}
}

// Advance evaluates every dynamic once for tick t, in ascending order key.
// Calling Advance again with the same t does nothing.
//
// A generator's value is written to its property and the dynamic stays. A
// Stop removes the dynamic and then writes the final value statically. An
// Abort removes the dynamic; its payload is applied once all dynamics have
// run. Errors, panics and failed writes remove the dynamic and are reported
// to the error handler without affecting the other properties. A dynamic
// removed or replaced earlier in the same pass is skipped.
func (o *Object) Advance(t float64) {
	if o.dyn == nil || o.removed {
		return
	}
	d := o.dyn
	if d.ticked && d.lastT == t {
		return
	}
	d.ticked = true
	d.lastT = t

	var aborted []map[string]Assignment
	for _, e := range d.sorted() {
		if d.entries[e.prop.name] != e {
			continue
		}
		out := o.evalDynamic(e, t)
		switch out.Kind {
		case OutcomeContinue:
		case OutcomeValue:
			if out.Value == nil {
				continue
			}
			if err := e.prop.write(o, out.Value); err != nil {
				d.remove(e)
				o.reportError(o.runtimeError(e, t, err))
			}
		case OutcomeStop:
			d.remove(e)
			if out.Value == nil {
				continue
			}
			if err := e.prop.Assign(o, StaticValue(out.Value)); err != nil {
				o.reportError(o.runtimeError(e, t, err))
			}
		case OutcomeAbort:
			d.remove(e)
			if len(out.Payload) > 0 {
				aborted = append(aborted, out.Payload)
			}
		default:
			d.remove(e)
			o.reportError(o.runtimeError(e, t, out.Err))
		}
	}

	for _, payload := range aborted {
		if err := o.SetMany(payload); err != nil {
			o.reportError(err)
		}
	}
}

// remove drops e if it is still the registered entry for its property.
func (d *dynamics) remove(e *dynamicEntry) {
	if d.entries[e.prop.name] == e {
		delete(d.entries, e.prop.name)
	}
}

func (o *Object) evalDynamic(e *dynamicEntry, t float64) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Fail(&PanicError{Value: r})
		}
	}()
	return e.gen.Eval(t)
}

func (o *Object) runtimeError(e *dynamicEntry, t float64, err error) error {
	return &GeneratorRuntimeError{Object: o.Name, Property: e.prop.name, Time: t, Err: err}
}

// reportError routes err to the object's handler, then its world's, then the
// default logger.
func (o *Object) reportError(err error) {
	switch {
	case o.OnError != nil:
		o.OnError(err)
	case o.world != nil:
		o.world.reportError(err)
	default:
		slog.Default().Error("kinetic: dynamic failed", "object", o.Name, "err", err)
	}
}
