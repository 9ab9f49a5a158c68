// Package ecs provides ECS adapters for kinetic's property change events.
//
// [NewDonburiSink] bridges every property change of a kinetic World into a
// [Donburi] world as typed events. Subscribe to [ChangeEventType] in your ECS
// systems to receive them.
//
// Usage:
//
//	sink := ecs.NewDonburiSink(ecsWorld)
//	world.SetSink(sink)
//
// [Mirror] goes one step further and keeps a [PropertyData] component per
// tracked object in sync with the object's resolved values, so ECS systems
// can query stimulus state like any other component.
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
