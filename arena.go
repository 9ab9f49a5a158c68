package kinetic

// Arena owns the numeric storage of every property of every object created
// against it. Each (object, property) pair holds an index into the arena;
// linked pairs hold the same index, so a link group always resolves to one
// slot. Slots are reference counted and recycled through a free list.
//
// An Arena is not safe for concurrent use.
type Arena struct {
	slots []arenaSlot
	free  []int32
	live  int
}

type arenaSlot struct {
	data Value
	refs int32
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Live returns the number of slots currently referenced.
func (a *Arena) Live() int {
	return a.live
}

// alloc stores a copy of v in a fresh slot with one reference.
func (a *Arena) alloc(v Value) int32 {
	a.live++
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		a.slots[idx] = arenaSlot{data: v.Clone(), refs: 1}
		return idx
	}
	a.slots = append(a.slots, arenaSlot{data: v.Clone(), refs: 1})
	return int32(len(a.slots) - 1)
}

func (a *Arena) retain(idx int32) {
	a.slots[idx].refs++
}

func (a *Arena) release(idx int32) {
	s := &a.slots[idx]
	s.refs--
	if s.refs > 0 {
		return
	}
	s.data = nil
	s.refs = 0
	a.free = append(a.free, idx)
	a.live--
}

// data returns the slot's backing storage. Callers write through it in place.
func (a *Arena) data(idx int32) Value {
	return a.slots[idx].data
}

func (a *Arena) refs(idx int32) int32 {
	return a.slots[idx].refs
}
