// Package kinetic is a managed-property core for real-time animated stimuli.
//
// Kinetic provides the bookkeeping that sits between an experiment or game
// and its renderer: typed, linkable property storage, per-tick dynamics that
// drive property values from the clock, a composable value-generator chain,
// a discrete-time state machine, and a deferred-update queue. It draws
// nothing; a host asks for the resolved value of each property after
// advancing the clock.
//
// # Quick start
//
// Declare a schema, create a world and objects, attach dynamics, and advance
// the world once per frame:
//
//	grating := kinetic.NewSchema("grating").
//		Property("position", kinetic.Vec(0, 0), "pos").
//		Property("contrast", kinetic.Scalar(1)).
//		Property("phase", kinetic.Scalar(0)).
//		Shortcut("position", 0, "x").
//		MustBuild()
//
//	w := kinetic.NewWorld(kinetic.WorldConfig{})
//	patch := w.NewObject("patch", grating)
//	patch.SetDynamic("phase", kinetic.Clock(1, false).Mul(360))
//	patch.SetDynamic("contrast", kinetic.Transition(kinetic.TransitionConfig{
//		Start: kinetic.Scalar(0), End: kinetic.Scalar(1), Duration: 0.5,
//		Shape: kinetic.RaisedCosine,
//	}))
//
//	for frame := 0; frame < 120; frame++ {
//		w.Advance(float64(frame) / 60)
//		draw(patch.MustGet("phase"), patch.MustGet("contrast"))
//	}
//
// For a windowed loop driven by [Ebitengine], see package ebitenhost.
//
// # Properties and linking
//
// A [Schema] declares named properties with a fixed arity of 1 to 4
// elements, optional aliases, and shortcuts that view a single element of
// a property. Each [Object] stores its values in an [Arena]. Linking a
// property to another object makes both read and write one shared slot;
// unlinking gives the property a private copy of the current value.
//
//	mask := w.NewObject("mask", grating)
//	mask.Link("position", patch)  // mask follows patch
//	mask.Unlink("position")       // mask keeps the last shared value
//
// Static writes broadcast scalars and tile short values whose length divides
// the arity, so SetValue("position", 3) stores [3 3].
//
// # Dynamics
//
// A dynamic is a [Generator] attached to a property. On every tick the
// object evaluates its dynamics in property order and writes the results.
// A generator reports its result as an [Outcome]: a value, Continue (keep
// the stored value), Stop (write a final value and detach), Abort (detach
// and apply a batch of assignments) or an error (detach and report).
//
// # Function chains
//
// [Function] composes constants, generators and other functions with
// element-wise arithmetic, transforms and watches:
//
//	wobble := kinetic.Oscillator(2, 0).Mul(10).Add(kinetic.Vec(320, 240))
//	envelope := kinetic.Integral(kinetic.Constant(1)).Transform(clamp01)
//
// Calculus wrappers ([Integral], [Derivative]), smoothers, transitions,
// sequences, timelines, gween tweens ([TweenGroup]), perceptual colour
// transitions ([ColorTransition]) and expression strings ([Expr]) are all
// available as building blocks.
//
// # State machines
//
// [StateMachine] advances through named states with durations measured
// from the exact back-computed change time, so frame jitter never
// accumulates. Machines can be declared in Go or loaded from YAML with
// [LoadStateTable], and registered with a [World] to advance each tick.
//
// # Deferred updates
//
// [Scheduler] queues deferred tasks that run at the end of a tick in
// priority order. [Scheduled] ties an update routine to a scheduler so it
// runs at most once per tick however often it is requested; [Recorder]
// uses it to sample changed properties once per tick.
//
// # Debug mode
//
// [World.SetDebugMode] enables per-tick phase timing at slog debug level
// and panics on writes to removed objects.
//
// [Ebitengine]: https://ebitengine.org
package kinetic
