// Package inspector provides a read-only projection of a world for tools
// and UI, matching the stable iteration order the world guarantees. It
// performs no mutation and holds no independent state.
package inspector

import (
	"worldkernel/internal/kernel/entity"
	"worldkernel/internal/kernel/world"
)

// EntityView is a read-only, defensively-copied view of one entity.
type EntityView struct {
	ID        entity.ID
	Transform entity.Transform
}

// Snapshot is a point-in-time, read-only view of a world's shape:
// tick, seed, and every entity in stable insertion order. It is a plain
// value, safe to hand to a renderer or a UI panel.
type Snapshot struct {
	Tick     uint64
	Seed     uint64
	Entities []EntityView
}

// Inspect builds a read-only Snapshot of w. It performs no mutation.
func Inspect(w *world.World) Snapshot {
	out := Snapshot{Tick: w.Tick(), Seed: w.Seed()}
	w.Iter(func(d entity.Data) {
		out.Entities = append(out.Entities, EntityView{ID: d.ID, Transform: d.Transform})
	})
	return out
}

// Find returns the view of a single entity by id, matching the world's
// Get semantics.
func Find(w *world.World, id entity.ID) (EntityView, bool) {
	d, ok := w.Get(id)
	if !ok {
		return EntityView{}, false
	}
	return EntityView{ID: d.ID, Transform: d.Transform}, true
}

// Project renders the world's entities as the (id, transform) pairs a
// renderer consumes, in the world's stable iteration order.
func Project(w *world.World, fn func(entity.ID, entity.Transform)) {
	w.Iter(func(d entity.Data) { fn(d.ID, d.Transform) })
}
