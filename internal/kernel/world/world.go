// Package world owns the authoritative simulation state: the entity table,
// the tick/seed counters, and the event-sourced mutators that keep a
// pending log of every change. A World is single-owner and single-threaded;
// callers wanting concurrent access must provide their own exclusion.
package world

import (
	"fmt"

	"worldkernel/internal/kernel/entity"
	"worldkernel/internal/kernel/prng"
	"worldkernel/internal/worlderr"
)

// World is the tuple W = (E, T, tick, seed, pending) from the data model:
// an insertion-ordered entity table, a monotonic tick counter, a PRNG seed,
// and the events accumulated since the last drain.
type World struct {
	order   []entity.ID
	entries map[entity.ID]entity.Data

	tick uint64
	seed uint64

	pending []Event

	enforceSteppedSeed bool
}

// New creates an empty world at tick 0 with the given initial seed.
func New(seed uint64) *World {
	return &World{
		entries:            make(map[entity.ID]entity.Data),
		seed:               seed,
		enforceSteppedSeed: DefaultEnforceSteppedSeed,
	}
}

// Tick returns the current tick counter.
func (w *World) Tick() uint64 { return w.tick }

// Seed returns the current PRNG state.
func (w *World) Seed() uint64 { return w.seed }

// Len returns the number of live entities.
func (w *World) Len() int { return len(w.order) }

// Get returns the entity's data and whether it exists. The returned value
// is a defensive copy; mutating it does not affect the world.
func (w *World) Get(id entity.ID) (entity.Data, bool) {
	d, ok := w.entries[id]
	if !ok {
		return entity.Data{}, false
	}
	return d.Clone(), true
}

// Iter calls fn for every entity in deterministic insertion order. Iter
// itself performs no mutation; fn must not mutate the world either.
func (w *World) Iter(fn func(entity.Data)) {
	for _, id := range w.order {
		fn(w.entries[id].Clone())
	}
}

// Spawn generates a fresh v4 entity id, inserts it with the given
// transform, and appends a Spawned event. It never produces a colliding id.
func (w *World) Spawn(t entity.Transform) entity.ID {
	id := entity.NewID()
	for {
		if _, exists := w.entries[id]; !exists {
			break
		}
		id = entity.NewID()
	}
	w.insert(id, t)
	w.pending = append(w.pending, Event{Kind: EventSpawned, Tick: w.tick, EntityID: id, Transform: t})
	return id
}

// SpawnWith inserts an entity under a caller-supplied id, failing with
// ErrEntityAlreadyExists if id is already present.
func (w *World) SpawnWith(id entity.ID, t entity.Transform) error {
	if _, exists := w.entries[id]; exists {
		return fmt.Errorf("spawn %s: %w", id, worlderr.ErrEntityAlreadyExists)
	}
	w.insert(id, t)
	w.pending = append(w.pending, Event{Kind: EventSpawned, Tick: w.tick, EntityID: id, Transform: t})
	return nil
}

func (w *World) insert(id entity.ID, t entity.Transform) {
	w.entries[id] = entity.Data{ID: id, Transform: t}
	w.order = append(w.order, id)
}

// Despawn removes an entity, returning its transform immediately before
// removal and appending a Despawned event. Fails with ErrEntityNotFound if
// id is absent, leaving the world untouched.
func (w *World) Despawn(id entity.ID) (entity.Transform, error) {
	d, ok := w.entries[id]
	if !ok {
		return entity.Transform{}, fmt.Errorf("despawn %s: %w", id, worlderr.ErrEntityNotFound)
	}
	w.removeFromOrder(id)
	delete(w.entries, id)
	w.pending = append(w.pending, Event{Kind: EventDespawned, Tick: w.tick, EntityID: id, PrevTransform: d.Transform})
	return d.Transform, nil
}

func (w *World) removeFromOrder(id entity.ID) {
	for i, oid := range w.order {
		if oid == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			return
		}
	}
}

// SetTransform replaces an entity's transform, returning the previous value
// and appending a TransformSet event. Fails with ErrEntityNotFound if id is
// absent, leaving the world untouched.
func (w *World) SetTransform(id entity.ID, next entity.Transform) (entity.Transform, error) {
	d, ok := w.entries[id]
	if !ok {
		return entity.Transform{}, fmt.Errorf("set transform %s: %w", id, worlderr.ErrEntityNotFound)
	}
	prev := d.Transform
	d.Transform = next
	w.entries[id] = d
	w.pending = append(w.pending, Event{
		Kind: EventTransformSet, Tick: w.tick, EntityID: id,
		Transform: next, PrevTransform: prev,
	})
	return prev, nil
}

// Step advances the tick by exactly 1, replaces the seed with
// prng.Next(seed), and appends a Stepped event. The only way to advance
// seed is through Step.
func (w *World) Step() {
	w.tick++
	newSeed, _ := prng.Next(w.seed)
	w.seed = newSeed
	w.pending = append(w.pending, Event{Kind: EventStepped, Tick: w.tick, NewSeed: newSeed})
}

// DrainEvents removes and returns all pending events in order. It performs
// no other mutation.
func (w *World) DrainEvents() []Event {
	out := w.pending
	w.pending = nil
	return out
}

// PendingLen reports the number of events accumulated since the last drain,
// without draining them.
func (w *World) PendingLen() int { return len(w.pending) }

// FromState reconstructs a world directly from captured state: the given
// tick, seed, and entities in their original order, with an empty pending
// log. Entities are deep-copied and no events are emitted — restoring a
// snapshot is reconstruction, not new history, so it is exempt from the
// mutation-emits-event invariant. Ordinary simulation code must never use
// this to bypass the mutators.
func FromState(tick, seed uint64, entities []entity.Data) *World {
	w := New(seed)
	w.tick = tick
	for _, d := range entities {
		c := d.Clone()
		w.entries[c.ID] = c
		w.order = append(w.order, c.ID)
	}
	return w
}
