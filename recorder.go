package kinetic

// RecorderPriority is the deferred-task priority of a Recorder's sampling,
// low so that it sees the results of other deferred work.
const RecorderPriority = -100

// Sample is a snapshot of recorded properties taken at the end of a tick.
type Sample struct {
	Time   float64
	Frame  uint64
	Values map[string]Value
}

// Recorder captures the values of selected properties of an object whenever
// any of them change, at most once per tick. Sampling is deferred to the end
// of the tick so that a value written several times is captured once, in
// its final state.
type Recorder struct {
	object  *Object
	names   []string
	samples []Sample
	update  *Scheduled
	unsub   func()
	watched map[string]bool
}

// NewRecorder starts recording the named properties of o, or all of its
// properties when names is empty. o must belong to a World.
func NewRecorder(o *Object, names ...string) (*Recorder, error) {
	if o.world == nil {
		return nil, ErrInvalidTarget
	}
	if len(names) == 0 {
		for _, p := range o.schema.Properties() {
			names = append(names, p.Name())
		}
	}
	r := &Recorder{object: o, watched: make(map[string]bool, len(names))}
	for _, name := range names {
		p, err := o.property(name)
		if err != nil {
			return nil, err
		}
		r.names = append(r.names, p.Name())
		r.watched[p.Name()] = true
		if parent, _ := p.Parent(); parent != nil {
			r.watched[parent.Name()] = true
		}
	}
	r.update = NewScheduled(o.world.Scheduler(), RecorderPriority, r.sample)
	r.unsub = o.Subscribe(r.changed)
	return r, nil
}

func (r *Recorder) changed(e ChangeEvent) {
	watched := r.watched[e.Property]
	if p, ok := r.object.schema.Lookup(e.Property); !watched && ok {
		if parent, _ := p.Parent(); parent != nil {
			watched = r.watched[parent.Name()]
		}
	}
	if !watched {
		return
	}
	if err := r.update.ScheduleUpdate(); err != nil {
		r.object.reportError(err)
	}
}

func (r *Recorder) sample() error {
	w := r.object.world
	s := Sample{Values: make(map[string]Value, len(r.names))}
	if w != nil {
		s.Time, s.Frame = w.Time(), w.Frame()
	}
	for _, name := range r.names {
		v, err := r.object.Get(name)
		if err != nil {
			return err
		}
		s.Values[name] = v
	}
	r.samples = append(r.samples, s)
	return nil
}

// Samples returns the samples recorded so far.
func (r *Recorder) Samples() []Sample {
	return append([]Sample(nil), r.samples...)
}

// Stop ends recording and withdraws any pending sample.
func (r *Recorder) Stop() {
	if r.unsub != nil {
		r.unsub()
		r.unsub = nil
	}
	r.update.CancelUpdate()
}
