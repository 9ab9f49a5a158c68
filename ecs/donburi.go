// Package ecs provides ECS adapters for kinetic.
package ecs

import (
	"github.com/phanxgames/kinetic"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// ChangeEventType is the Donburi event type for kinetic property changes.
// Subscribe to this in your ECS systems to receive value, link and unlink
// events.
var ChangeEventType = events.NewEventType[kinetic.ChangeEvent]()

type donburiSink struct {
	world donburi.World
}

// NewDonburiSink creates a ChangeSink backed by a Donburi world.
// Change events are published to ChangeEventType and can be consumed with
// events.Subscribe and ProcessEvents.
func NewDonburiSink(world donburi.World) kinetic.ChangeSink {
	return &donburiSink{world: world}
}

func (s *donburiSink) EmitChange(event kinetic.ChangeEvent) {
	ChangeEventType.Publish(s.world, event)
}
