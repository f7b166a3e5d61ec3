// Package snapshot implements content-addressed, point-in-time captures of
// world state: a deep copy of (tick, seed, entities) plus a fingerprint
// used solely for corruption detection, never for cryptographic security.
package snapshot

import (
	"hash/fnv"

	"worldkernel/internal/kernel/codec"
	"worldkernel/internal/kernel/entity"
	"worldkernel/internal/kernel/world"
)

// Snapshot is a fingerprinted, deep-copied capture of a world's
// (tick, seed, entities) at some point in time.
type Snapshot struct {
	Tick        uint64
	Seed        uint64
	Entities    []entity.Data
	Fingerprint uint64
}

// Capture deep-copies w's (tick, seed, entities-in-insertion-order) and
// computes the fingerprint as FNV-1a/64 over their canonical encoding.
func Capture(w *world.World) Snapshot {
	entities := make([]entity.Data, 0, w.Len())
	w.Iter(func(d entity.Data) { entities = append(entities, d) })

	s := Snapshot{Tick: w.Tick(), Seed: w.Seed(), Entities: entities}
	s.Fingerprint = fingerprint(s.Tick, s.Seed, s.Entities)
	return s
}

// Verify recomputes the fingerprint and returns whether it still matches.
// Mutating any field of s after capture causes this to return false.
func (s Snapshot) Verify() bool {
	return fingerprint(s.Tick, s.Seed, s.Entities) == s.Fingerprint
}

// Restore produces a fresh world with the snapshot's tick, seed, and
// entities (in original order, component payloads included), and an empty
// pending log.
func (s Snapshot) Restore() *world.World {
	return world.FromState(s.Tick, s.Seed, s.Entities)
}

// fingerprint computes the FNV-1a/64 hash over the canonical encoding of
// (tick, seed, entities), using the standard library's hash/fnv
// implementation.
func fingerprint(tick, seed uint64, entities []entity.Data) uint64 {
	h := fnv.New64a()
	w := codec.NewHashWriter(h)

	w.U64(tick)
	w.U64(seed)
	w.U32(uint32(len(entities)))
	for _, e := range entities {
		encodeEntity(w, e)
	}
	return h.Sum64()
}

func encodeEntity(w *codec.Writer, e entity.Data) {
	w.Bytes(e.ID[:])
	encodeTransform(w, e.Transform)

	tags := codec.SortedKeys(e.Components)
	w.U32(uint32(len(tags)))
	for _, tag := range tags {
		w.String(string(tag))
		w.Bytes(e.Components[tag])
	}
}

func encodeTransform(w *codec.Writer, t entity.Transform) {
	w.F64(t.Position.X)
	w.F64(t.Position.Y)
	w.F64(t.Position.Z)
	w.F64(t.Rotation.X)
	w.F64(t.Rotation.Y)
	w.F64(t.Rotation.Z)
	w.F64(t.Rotation.W)
	w.F64(t.Scale.X)
	w.F64(t.Scale.Y)
	w.F64(t.Scale.Z)
}
