package kinetic

import (
	"errors"
	"fmt"
	"sort"
)

// --- ID counter ---

// objectIDCounter is a plain counter (no atomic: kinetic is single-threaded).
var objectIDCounter uint32

func nextObjectID() uint32 {
	objectIDCounter++
	return objectIDCounter
}

// ChangeKind describes what happened to a property in a ChangeEvent.
type ChangeKind uint8

const (
	ChangeValue  ChangeKind = iota // a value was written
	ChangeLink                     // storage now aliases another object's
	ChangeUnlink                   // storage became independent
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeValue:
		return "value"
	case ChangeLink:
		return "link"
	case ChangeUnlink:
		return "unlink"
	default:
		return fmt.Sprintf("ChangeKind(%d)", uint8(k))
	}
}

// ChangeEvent is delivered to change listeners and the world's ChangeSink
// after a property of an object changes. Old and New are copies.
type ChangeEvent struct {
	Kind       ChangeKind
	ObjectID   uint32
	ObjectName string
	Property   string
	Old        Value
	New        Value
	// LinkedTo is the ID of the object whose storage is now shared, for ChangeLink.
	LinkedTo uint32
}

// ChangeSink receives every ChangeEvent of the objects in a World. It is the
// hook point for transfer code such as ECS bridges or network replication.
type ChangeSink interface {
	EmitChange(event ChangeEvent)
}

// Object is an instance of a Schema: a set of property values held in an
// Arena plus the dynamics that drive them. A single flat struct serves every
// schema.
type Object struct {
	// Identity
	ID   uint32
	Name string

	// T0 is the object's time origin. A World advances the object at t - T0.
	T0 float64

	// Animate, if set, runs on every world tick before the object's dynamics,
	// with the object-relative time.
	Animate func(o *Object, t float64)

	// OnError, if set, receives failures of this object's dynamics instead of
	// the world's handler.
	OnError func(err error)

	// UserData is an arbitrary payload for callers.
	UserData any

	schema *Schema
	arena  *Arena
	slots  []int32 // arena index + 1 per property; zero means unallocated
	dyn    *dynamics
	world  *World

	listeners []changeListener
	listenerN int
	removed   bool
}

type changeListener struct {
	id int
	fn func(ChangeEvent)
}

// NewObject creates a standalone object of schema s whose storage lives in
// arena. A nil arena gets a private one; objects can only be linked when they
// share an arena. Objects that belong to a World are created with
// World.NewObject instead.
func NewObject(name string, s *Schema, arena *Arena) *Object {
	if s == nil {
		panic("kinetic: NewObject with nil schema")
	}
	if arena == nil {
		arena = NewArena()
	}
	return &Object{
		ID:     nextObjectID(),
		Name:   name,
		schema: s,
		arena:  arena,
	}
}

// Schema returns the object's schema.
func (o *Object) Schema() *Schema { return o.schema }

// Arena returns the arena holding the object's storage.
func (o *Object) Arena() *Arena { return o.arena }

// World returns the world the object belongs to, or nil.
func (o *Object) World() *World { return o.world }

// Removed reports whether the object has been removed from its world.
func (o *Object) Removed() bool { return o.removed }

// Subscribe registers fn to receive the object's change events and returns a
// function that unregisters it.
func (o *Object) Subscribe(fn func(ChangeEvent)) (unsubscribe func()) {
	o.listenerN++
	id := o.listenerN
	o.listeners = append(o.listeners, changeListener{id: id, fn: fn})
	return func() {
		for i, l := range o.listeners {
			if l.id == id {
				o.listeners = append(o.listeners[:i], o.listeners[i+1:]...)
				return
			}
		}
	}
}

func (o *Object) observed() bool {
	return len(o.listeners) > 0 || (o.world != nil && o.world.sink != nil)
}

func (o *Object) notify(e ChangeEvent) {
	e.ObjectID = o.ID
	e.ObjectName = o.Name
	for _, l := range append([]changeListener(nil), o.listeners...) {
		l.fn(e)
	}
	if o.world != nil && o.world.sink != nil {
		o.world.sink.EmitChange(e)
	}
}

// slot returns the arena index holding property index i, allocating it from
// def when the object has not used the property yet.
func (o *Object) slot(i int, def Value) int32 {
	if i >= len(o.slots) {
		o.growSlots()
	}
	if o.slots[i] == 0 {
		o.slots[i] = o.arena.alloc(def) + 1
	}
	return o.slots[i] - 1
}

// growSlots sizes the slot table to the schema, which may have gained
// custom properties since the object was created.
func (o *Object) growSlots() {
	if len(o.slots) >= len(o.schema.props) {
		return
	}
	grown := make([]int32, len(o.schema.props))
	copy(grown, o.slots)
	o.slots = grown
}

func (o *Object) hasSlot(i int) bool {
	return i < len(o.slots) && o.slots[i] != 0
}

// release returns every slot to the arena.
func (o *Object) release() {
	for i, s := range o.slots {
		if s != 0 {
			o.arena.release(s - 1)
			o.slots[i] = 0
		}
	}
}

func (o *Object) property(name string) (*Property, error) {
	return o.schema.Property(name)
}

// Get returns a copy of the current value of the named property or shortcut.
func (o *Object) Get(name string) (Value, error) {
	p, err := o.property(name)
	if err != nil {
		return nil, err
	}
	return p.Resolve(o), nil
}

// MustGet is like Get but panics for unknown names.
func (o *Object) MustGet(name string) Value {
	v, err := o.Get(name)
	if err != nil {
		panic(err)
	}
	return v
}

// Properties returns a snapshot of every property value, keyed by canonical
// name. Shortcuts are omitted.
func (o *Object) Properties() map[string]Value {
	out := make(map[string]Value, len(o.schema.props))
	for _, p := range o.schema.props {
		out[p.name] = p.Resolve(o)
	}
	return out
}

// Set applies an assignment to the named property or shortcut.
func (o *Object) Set(name string, a Assignment) error {
	p, err := o.property(name)
	if err != nil {
		return err
	}
	return p.Assign(o, a)
}

// SetValue statically assigns v, cancelling any dynamic on the property.
func (o *Object) SetValue(name string, v ...float64) error {
	return o.Set(name, Static(v...))
}

// SetDynamic installs g as the dynamic of the named property at the
// property's own order key.
func (o *Object) SetDynamic(name string, g Generator) error {
	return o.Set(name, Dynamic(g))
}

// SetDynamicOrdered installs g with an explicit order key.
func (o *Object) SetDynamicOrdered(name string, g Generator, order float64) error {
	p, err := o.property(name)
	if err != nil {
		return err
	}
	o.dynamics().install(p, g, order)
	return nil
}

// SetMany applies a batch of assignments in property evaluation order.
// Every assignment is attempted; failures are joined.
func (o *Object) SetMany(values map[string]Assignment) error {
	type item struct {
		p *Property
		a Assignment
	}
	items := make([]item, 0, len(values))
	var errs []error
	for name, a := range values {
		p, err := o.property(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		items = append(items, item{p, a})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].p.order != items[j].p.order {
			return items[i].p.order < items[j].p.order
		}
		return items[i].p.name < items[j].p.name
	})
	for _, it := range items {
		if err := it.p.Assign(o, it.a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Link makes the named property share other's storage.
func (o *Object) Link(name string, other *Object) error {
	p, err := o.property(name)
	if err != nil {
		return err
	}
	return p.Link(o, other)
}

// Unlink gives the named property a fresh independent copy of its value.
func (o *Object) Unlink(name string) error {
	p, err := o.property(name)
	if err != nil {
		return err
	}
	p.Unlink(o)
	return nil
}

// Linked reports whether o and other currently share storage for name.
func (o *Object) Linked(name string, other *Object) bool {
	p, ok := o.schema.Lookup(name)
	if !ok || p.parent != nil || !o.hasSlot(p.index) {
		return false
	}
	q, ok := other.schema.Lookup(p.name)
	if !ok || q.parent != nil || !other.hasSlot(q.index) || o.arena != other.arena {
		return false
	}
	return o.slots[p.index] == other.slots[q.index]
}

// Share links the named properties of every object in others to o's storage.
// With no names, every property o's schema declares is shared.
func (o *Object) Share(names []string, others ...*Object) error {
	if len(names) == 0 {
		for _, p := range o.schema.props {
			names = append(names, p.name)
		}
	}
	var errs []error
	for _, other := range others {
		for _, name := range names {
			if err := other.Link(name, o); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Inherit copies the named properties of other into o: the dynamic when
// other has one, otherwise the static value. Function dynamics are cloned;
// other generators are shared. With no names, every property and shortcut of
// o's schema that other also declares is inherited.
func (o *Object) Inherit(other *Object, names ...string) error {
	if len(names) == 0 {
		for _, p := range o.schema.Properties() {
			if _, ok := other.schema.Lookup(p.name); ok {
				names = append(names, p.name)
			}
		}
	}
	assign := make(map[string]Assignment, len(names))
	for _, name := range names {
		if g, ok := other.Dynamic(name); ok {
			if f, isFn := g.(*Function); isFn {
				g = f.Clone()
			}
			assign[name] = Dynamic(g)
			continue
		}
		v, err := other.Get(name)
		if err != nil {
			return err
		}
		assign[name] = StaticValue(v)
	}
	return o.SetMany(assign)
}

func checkRemoved(o *Object, op string) error {
	if !o.removed {
		return nil
	}
	if o.world != nil && o.world.debug {
		debugCheckRemoved(o, op)
	}
	return ErrRemoved
}

// Resolve returns a copy of p's current value on o, allocating storage from
// the default on first use.
func (p *Property) Resolve(o *Object) Value {
	p.mustBelong(o)
	if p.parent != nil {
		return Value{p.parent.storage(o)[p.element]}
	}
	return p.storage(o).Clone()
}

func (p *Property) storage(o *Object) Value {
	return o.arena.data(o.slot(p.index, p.def))
}

func (p *Property) mustBelong(o *Object) {
	if p.schema != o.schema {
		panic(fmt.Sprintf("kinetic: property %q of schema %q used on object %q of schema %q",
			p.name, p.schema.name, o.Name, o.schema.name))
	}
}

// Assign applies a to p on o. A static assignment cancels any dynamic first
// and then writes in place; a dynamic assignment replaces the current
// dynamic without touching storage; a link assignment delegates to Link.
func (p *Property) Assign(o *Object, a Assignment) error {
	p.mustBelong(o)
	if err := checkRemoved(o, "Assign"); err != nil {
		return err
	}
	switch a.Kind {
	case AssignDynamic:
		if a.Generator == nil {
			return fmt.Errorf("kinetic: nil generator assigned to %q", p.name)
		}
		o.dynamics().install(p, a.Generator, p.order)
		return nil
	case AssignLink:
		return p.Link(o, a.Target)
	default:
		if o.dyn != nil {
			o.dyn.cancel(p.name)
		}
		return p.write(o, a.Value)
	}
}

// write stores v without touching dynamics.
func (p *Property) write(o *Object, v Value) error {
	if p.parent != nil {
		if len(v) != 1 {
			return &ArityMismatchError{Property: p.name, Arity: 1, Got: len(v)}
		}
		dst := p.parent.storage(o)
		old := dst[p.element]
		dst[p.element] = v[0]
		if o.observed() {
			o.notify(ChangeEvent{Kind: ChangeValue, Property: p.name, Old: Value{old}, New: Value{v[0]}})
		}
		return nil
	}
	dst := p.storage(o)
	var old Value
	if o.observed() {
		old = dst.Clone()
	}
	if err := writeTiled(p.name, dst, v); err != nil {
		return err
	}
	if old != nil {
		o.notify(ChangeEvent{Kind: ChangeValue, Property: p.name, Old: old, New: dst.Clone()})
	}
	return nil
}

// Link makes o's storage for p an alias of other's. Linking o to itself
// makes the property independent instead.
func (p *Property) Link(o, other *Object) error {
	p.mustBelong(o)
	if err := checkRemoved(o, "Link"); err != nil {
		return err
	}
	if p.parent != nil {
		return ErrShortcutLink
	}
	if other == nil {
		return &IncompatibleLinkError{Property: p.name, Reason: "nil target"}
	}
	if other == o {
		p.Unlink(o)
		return nil
	}
	if other.removed {
		return &IncompatibleLinkError{Property: p.name, Reason: "target has been removed"}
	}
	if other.arena != o.arena {
		return &IncompatibleLinkError{Property: p.name, Reason: "objects live in different arenas"}
	}
	q, ok := other.schema.Lookup(p.name)
	if !ok || q.name != p.name {
		return &IncompatibleLinkError{Property: p.name, Reason: fmt.Sprintf("schema %q does not declare it", other.schema.name)}
	}
	if q.parent != nil {
		return ErrShortcutLink
	}
	if len(q.def) != len(p.def) {
		return &IncompatibleLinkError{Property: p.name, Reason: fmt.Sprintf("arity %d does not match %d", len(q.def), len(p.def))}
	}

	target := other.slot(q.index, q.def)
	if o.hasSlot(p.index) {
		cur := o.slots[p.index] - 1
		if cur == target {
			return nil
		}
		o.arena.release(cur)
	} else {
		o.growSlots()
	}
	o.arena.retain(target)
	o.slots[p.index] = target + 1

	if o.observed() {
		o.notify(ChangeEvent{Kind: ChangeLink, Property: p.name, New: o.arena.data(target).Clone(), LinkedTo: other.ID})
	}
	return nil
}

// Unlink replaces o's storage for p with a fresh slot holding a snapshot of
// the current value. It is a no-op when the storage is not shared.
func (p *Property) Unlink(o *Object) {
	p.mustBelong(o)
	if p.parent != nil || !o.hasSlot(p.index) {
		return
	}
	cur := o.slots[p.index] - 1
	if o.arena.refs(cur) <= 1 {
		return
	}
	snapshot := o.arena.data(cur)
	fresh := o.arena.alloc(snapshot)
	o.arena.release(cur)
	o.slots[p.index] = fresh + 1
	if o.observed() {
		o.notify(ChangeEvent{Kind: ChangeUnlink, Property: p.name, New: snapshot.Clone()})
	}
}
