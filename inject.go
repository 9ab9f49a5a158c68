package kinetic

import "errors"

// injection is one queued external change, applied at the start of the tick
// whose frame number reaches due.
type injection struct {
	due uint64

	object   *Object
	property string
	assign   Assignment

	machine *StateMachine
	target  Target
}

// dueFrame is the frame of the next injection pass: the current one while a
// script step runs, since injections are processed right after it.
func (w *World) dueFrame() uint64 {
	if w.scripting {
		return w.frame
	}
	return w.frame + 1
}

// Inject queues an assignment to be applied at the start of the next tick,
// before any Animate callback or dynamic runs.
func (w *World) Inject(o *Object, name string, a Assignment) {
	w.injectQueue = append(w.injectQueue, injection{
		due: w.dueFrame(), object: o, property: name, assign: a,
	})
}

// InjectValue queues a static assignment for the next tick.
func (w *World) InjectValue(o *Object, name string, v ...float64) {
	w.Inject(o, name, Static(v...))
}

// InjectStateChange queues a transition request for m, applied at the start
// of the next tick before machines advance.
func (w *World) InjectStateChange(m *StateMachine, target Target) {
	w.injectQueue = append(w.injectQueue, injection{
		due: w.dueFrame(), machine: m, target: target,
	})
}

// InjectRamp queues a linear ramp of static values from from to to, one per
// tick over the next frames ticks. The first tick receives from and the last
// receives to. Minimum frames is 2.
func (w *World) InjectRamp(o *Object, name string, from, to Value, frames int) {
	if frames < 2 {
		frames = 2
	}
	due := w.dueFrame()
	for i := 0; i < frames; i++ {
		x := float64(i) / float64(frames-1)
		v, err := Lerp(from, to, x)
		if err != nil {
			w.reportError(err)
			return
		}
		w.injectQueue = append(w.injectQueue, injection{
			due: due + uint64(i), object: o, property: name, assign: StaticValue(v),
		})
	}
}

// Injected returns the number of queued injections.
func (w *World) Injected() int { return len(w.injectQueue) }

// processInjected applies every injection due by the current frame, in queue
// order, and keeps the rest. Failures are collected and reported.
func (w *World) processInjected() error {
	if len(w.injectQueue) == 0 {
		return nil
	}
	var errs []error
	kept := w.injectQueue[:0]
	for _, in := range w.injectQueue {
		if in.due > w.frame {
			kept = append(kept, in)
			continue
		}
		var err error
		if in.machine != nil {
			err = in.machine.ChangeState(in.target)
		} else {
			err = in.object.Set(in.property, in.assign)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	w.injectQueue = kept
	return errors.Join(errs...)
}
