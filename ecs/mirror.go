package ecs

import (
	"github.com/phanxgames/kinetic"

	"github.com/yohamta/donburi"
)

// PropertyState is the component data mirrored from one kinetic object.
type PropertyState struct {
	ObjectID   uint32
	ObjectName string
	// Values holds the resolved value of every property by canonical name.
	Values map[string]kinetic.Value
}

// PropertyData is the component type holding a tracked object's PropertyState.
var PropertyData = donburi.NewComponentType[PropertyState]()

// Mirror keeps one Donburi entity per tracked kinetic object, with a
// PropertyData component refreshed from ChangeEventType events. Changes are
// applied when the event type is processed, typically once per ECS update.
type Mirror struct {
	world    donburi.World
	objects  map[uint32]*kinetic.Object
	entities map[uint32]donburi.Entity
}

// NewMirror creates a mirror on world and subscribes it to ChangeEventType.
func NewMirror(world donburi.World) *Mirror {
	m := &Mirror{
		world:    world,
		objects:  make(map[uint32]*kinetic.Object),
		entities: make(map[uint32]donburi.Entity),
	}
	ChangeEventType.Subscribe(world, m.onChange)
	return m
}

// Track creates an entity for o holding a snapshot of its properties. Tracking
// an object twice returns the existing entity.
func (m *Mirror) Track(o *kinetic.Object) donburi.Entity {
	if e, ok := m.entities[o.ID]; ok {
		return e
	}
	e := m.world.Create(PropertyData)
	PropertyData.SetValue(m.world.Entry(e), PropertyState{
		ObjectID:   o.ID,
		ObjectName: o.Name,
		Values:     o.Properties(),
	})
	m.objects[o.ID] = o
	m.entities[o.ID] = e
	return e
}

// Untrack removes the entity mirroring o.
func (m *Mirror) Untrack(o *kinetic.Object) {
	e, ok := m.entities[o.ID]
	if !ok {
		return
	}
	delete(m.entities, o.ID)
	delete(m.objects, o.ID)
	if m.world.Valid(e) {
		m.world.Remove(e)
	}
}

// Entity returns the entity mirroring the object with the given ID.
func (m *Mirror) Entity(objectID uint32) (donburi.Entity, bool) {
	e, ok := m.entities[objectID]
	return e, ok
}

// State returns the mirrored state of the object with the given ID.
func (m *Mirror) State(objectID uint32) (*PropertyState, bool) {
	e, ok := m.entities[objectID]
	if !ok || !m.world.Valid(e) {
		return nil, false
	}
	return PropertyData.Get(m.world.Entry(e)), true
}

func (m *Mirror) onChange(w donburi.World, event kinetic.ChangeEvent) {
	o, ok := m.objects[event.ObjectID]
	if !ok || o.Removed() {
		return
	}
	e := m.entities[event.ObjectID]
	if !w.Valid(e) {
		return
	}
	state := PropertyData.Get(w.Entry(e))
	name := event.Property
	if p, ok := o.Schema().Lookup(name); ok {
		if parent, _ := p.Parent(); parent != nil {
			p = parent
		}
		name = p.Name()
	}
	v, err := o.Get(name)
	if err != nil {
		return
	}
	state.Values[name] = v
}
