package kinetic

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// WorldConfig holds optional settings for NewWorld.
type WorldConfig struct {
	// Logger receives error reports and debug timings. Defaults to slog.Default().
	Logger *slog.Logger
	// OnError, if set, receives dynamic and deferred-task failures instead of
	// the logger.
	OnError func(err error)
	// Sink, if set, receives every property change of every object.
	Sink ChangeSink
	// Debug enables per-tick timing logs and misuse checks.
	Debug bool
}

// World is the host of a set of objects and state machines. Each call to
// Advance is one tick: queued injections are applied, the world's Animate
// callback runs, machines advance, then every object runs its Animate
// callback and dynamics at its own relative time, and finally deferred tasks
// run.
type World struct {
	// Animate, if set, runs at the start of every tick with the world time.
	Animate func(w *World, t float64)

	arena     *Arena
	objects   []*Object
	byName    map[string]*Object
	nameSeq   map[string]int
	machines  []*StateMachine
	scheduler *Scheduler
	logger    *slog.Logger
	onError   func(error)
	sink      ChangeSink
	debug     bool

	t      float64
	ticked bool
	frame  uint64

	injectQueue []injection
	script      *ScriptRunner
	scripting   bool
}

// NewWorld creates an empty world.
func NewWorld(cfg WorldConfig) *World {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	w := &World{
		arena:     NewArena(),
		byName:    make(map[string]*Object),
		nameSeq:   make(map[string]int),
		scheduler: NewScheduler(),
		logger:    logger,
		onError:   cfg.OnError,
		sink:      cfg.Sink,
		debug:     cfg.Debug,
	}
	w.scheduler.OnError = w.reportError
	return w
}

// Time returns the t of the latest tick.
func (w *World) Time() float64 { return w.t }

// Frame returns the number of distinct ticks advanced so far.
func (w *World) Frame() uint64 { return w.frame }

// Arena returns the storage shared by the world's objects.
func (w *World) Arena() *Arena { return w.arena }

// Scheduler returns the world's deferred-task queue.
func (w *World) Scheduler() *Scheduler { return w.scheduler }

// Logger returns the world's logger.
func (w *World) Logger() *slog.Logger { return w.logger }

// SetSink replaces the change sink. A nil sink disables it.
func (w *World) SetSink(s ChangeSink) { w.sink = s }

// SetDebugMode enables or disables debug mode.
func (w *World) SetDebugMode(enabled bool) { w.debug = enabled }

// NewObject creates an object of schema s whose time origin is the current
// world time. Names are made unique by appending a counter; an empty name
// uses the schema name.
func (w *World) NewObject(name string, s *Schema) *Object {
	if name == "" {
		name = s.Name()
	}
	unique := name
	if w.byName[unique] != nil {
		n := max(w.nameSeq[name], 2)
		for ; w.byName[unique] != nil; n++ {
			unique = fmt.Sprintf("%s%d", name, n)
		}
		w.nameSeq[name] = n
	}
	o := NewObject(unique, s, w.arena)
	o.world = w
	o.T0 = w.t
	w.objects = append(w.objects, o)
	w.byName[unique] = o
	if w.debug {
		debugCheckObjectCount(w)
	}
	return o
}

// Object returns the named object.
func (w *World) Object(name string) (*Object, bool) {
	o, ok := w.byName[name]
	return o, ok
}

// Objects returns the world's objects in creation order.
func (w *World) Objects() []*Object {
	return append([]*Object(nil), w.objects...)
}

// Remove detaches o from the world, drops its dynamics and releases its
// storage. Objects linked to o keep the shared values.
func (w *World) Remove(o *Object) {
	if o.world != w || o.removed {
		return
	}
	for i, x := range w.objects {
		if x == o {
			w.objects = append(w.objects[:i], w.objects[i+1:]...)
			break
		}
	}
	delete(w.byName, o.Name)
	o.ClearDynamics()
	o.release()
	o.removed = true
}

// AddMachine registers m to be advanced with the world time on every tick.
func (w *World) AddMachine(m *StateMachine) {
	w.machines = append(w.machines, m)
}

// Machine returns the registered machine with the given name.
func (w *World) Machine(name string) (*StateMachine, bool) {
	for _, m := range w.machines {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// Defer queues fn to run at the end of the current or next tick.
func (w *World) Defer(priority int, fn func() error) *Deferred {
	return w.scheduler.Defer(priority, fn)
}

// Undefer cancels a task queued with Defer.
func (w *World) Undefer(d *Deferred) bool {
	return w.scheduler.Undefer(d)
}

// Advance runs one tick at world time t. Dynamic and deferred-task failures
// are contained and reported; state machine failures are returned.
func (w *World) Advance(t float64) error {
	if w.ticked && t == w.t {
		return nil
	}
	w.t, w.ticked = t, true
	w.frame++

	var stats debugStats
	start := time.Now()

	if w.script != nil {
		w.scripting = true
		w.script.step(w, t)
		w.scripting = false
	}
	if err := w.processInjected(); err != nil {
		w.reportError(err)
	}
	if w.Animate != nil {
		w.Animate(w, t)
	}
	stats.prepareTime = time.Since(start)

	mark := time.Now()
	var errs []error
	for _, m := range w.machines {
		if _, err := m.Advance(t); err != nil {
			errs = append(errs, err)
		}
	}
	stats.machineTime = time.Since(mark)

	mark = time.Now()
	for _, o := range w.Objects() {
		if o.removed {
			continue
		}
		rt := t - o.T0
		if o.Animate != nil {
			o.Animate(o, rt)
		}
		o.Advance(rt)
		if o.dyn != nil {
			stats.dynamicCount += len(o.dyn.entries)
		}
	}
	stats.objectTime = time.Since(mark)
	stats.objectCount = len(w.objects)

	mark = time.Now()
	stats.deferredCount = w.scheduler.Pending()
	_ = w.scheduler.RunPending()
	stats.deferredTime = time.Since(mark)

	w.debugLog(stats)
	return errors.Join(errs...)
}

func (w *World) reportError(err error) {
	if w.onError != nil {
		w.onError(err)
		return
	}
	var gre *GeneratorRuntimeError
	if errors.As(err, &gre) {
		w.logger.Error("dynamic failed",
			"object", gre.Object,
			"property", gre.Property,
			"t", gre.Time,
			"err", gre.Err)
		return
	}
	w.logger.Error("kinetic error", "err", err)
}
