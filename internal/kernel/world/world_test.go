package world

import (
	"errors"
	"testing"

	"worldkernel/internal/kernel/entity"
	"worldkernel/internal/worlderr"
)

func transformAt(x, y, z float64) entity.Transform {
	t := entity.IdentityTransform
	t.Position = entity.Vec3{X: x, Y: y, Z: z}
	return t
}

// TestDeterminism_SameSeedSameActions checks that two worlds built from
// the same seed and driven through the same action sequence end up
// bit-identical.
func TestDeterminism_SameSeedSameActions(t *testing.T) {
	a := New(42)
	b := New(42)

	t0 := transformAt(0, 0, 0)
	t1 := transformAt(1, 2, 3)

	a.Spawn(t0)
	a.Step()
	a.Spawn(t1)
	a.Step()

	b.Spawn(t0)
	b.Step()
	b.Spawn(t1)
	b.Step()

	if a.Tick() != 2 || b.Tick() != 2 {
		t.Fatalf("expected tick 2, got a=%d b=%d", a.Tick(), b.Tick())
	}
	if a.Seed() != b.Seed() {
		t.Fatalf("seed diverged: %d vs %d", a.Seed(), b.Seed())
	}

	var aData, bData []entity.Data
	a.Iter(func(d entity.Data) { aData = append(aData, d) })
	b.Iter(func(d entity.Data) { bData = append(bData, d) })
	if len(aData) != len(bData) {
		t.Fatalf("entity count mismatch: %d vs %d", len(aData), len(bData))
	}
	for i := range aData {
		if aData[i].ID != bData[i].ID || !aData[i].Transform.Equal(bData[i].Transform) {
			t.Fatalf("entity %d mismatch: %+v vs %+v", i, aData[i], bData[i])
		}
	}
}

func TestDeterminism_DifferentSeedsDiverge(t *testing.T) {
	a := New(1)
	b := New(2)
	a.Step()
	b.Step()
	if a.Seed() == b.Seed() {
		t.Fatalf("expected seeds to diverge")
	}
}

func TestSpawnDespawnSetTransform_EmitsExactlyOneEvent(t *testing.T) {
	w := New(7)

	id := w.Spawn(entity.IdentityTransform)
	if got := w.PendingLen(); got != 1 {
		t.Fatalf("after spawn, pending=%d want 1", got)
	}

	if _, err := w.SetTransform(id, transformAt(1, 0, 0)); err != nil {
		t.Fatalf("set transform: %v", err)
	}
	if got := w.PendingLen(); got != 2 {
		t.Fatalf("after set transform, pending=%d want 2", got)
	}

	// Failing mutators must not touch pending.
	unknown := entity.NewID()
	if _, err := w.SetTransform(unknown, transformAt(9, 9, 9)); err == nil {
		t.Fatalf("expected error setting transform on unknown entity")
	}
	if got := w.PendingLen(); got != 2 {
		t.Fatalf("failed mutator changed pending len to %d", got)
	}

	if _, err := w.Despawn(id); err != nil {
		t.Fatalf("despawn: %v", err)
	}
	if got := w.PendingLen(); got != 3 {
		t.Fatalf("after despawn, pending=%d want 3", got)
	}
}

func TestSpawnWith_RejectsCollision(t *testing.T) {
	w := New(1)
	id := entity.NewID()
	if err := w.SpawnWith(id, entity.IdentityTransform); err != nil {
		t.Fatalf("first spawn_with: %v", err)
	}
	err := w.SpawnWith(id, entity.IdentityTransform)
	if err == nil {
		t.Fatalf("expected collision error")
	}
	if !errors.Is(err, worlderr.ErrEntityAlreadyExists) {
		t.Fatalf("expected ErrEntityAlreadyExists, got %v", err)
	}
}

func TestDespawn_UnknownFails(t *testing.T) {
	w := New(1)
	_, err := w.Despawn(entity.NewID())
	if !errors.Is(err, worlderr.ErrEntityNotFound) {
		t.Fatalf("expected ErrEntityNotFound, got %v", err)
	}
}

func TestDrainEvents_ClearsPendingOnly(t *testing.T) {
	w := New(1)
	w.Spawn(entity.IdentityTransform)
	w.Step()

	before := w.Len()
	events := w.DrainEvents()
	if len(events) != 2 {
		t.Fatalf("drained %d events, want 2", len(events))
	}
	if w.PendingLen() != 0 {
		t.Fatalf("pending not cleared after drain")
	}
	if w.Len() != before {
		t.Fatalf("drain mutated entity count: %d -> %d", before, w.Len())
	}
}

func TestReplay_ReproducesWorld(t *testing.T) {
	src := New(99)
	id := src.Spawn(transformAt(0, 0, 0))
	src.Step()
	src.SetTransform(id, transformAt(5, 5, 5))
	src.Step()
	src.Despawn(id)
	id2 := src.Spawn(transformAt(1, 1, 1))
	src.Step()

	events := src.DrainEvents()

	dst := New(99)
	if err := dst.Replay(events); err != nil {
		t.Fatalf("replay: %v", err)
	}

	if dst.Tick() != src.Tick() {
		t.Fatalf("tick mismatch: %d vs %d", dst.Tick(), src.Tick())
	}
	if dst.Seed() != src.Seed() {
		t.Fatalf("seed mismatch: %d vs %d", dst.Seed(), src.Seed())
	}
	if dst.Len() != src.Len() {
		t.Fatalf("entity count mismatch: %d vs %d", dst.Len(), src.Len())
	}
	got, ok := dst.Get(id2)
	if !ok {
		t.Fatalf("replayed world missing %s", id2)
	}
	if !got.Transform.Equal(transformAt(1, 1, 1)) {
		t.Fatalf("unexpected transform after replay: %+v", got.Transform)
	}
}

func TestFromState_DeepCopiesAndEmitsNothing(t *testing.T) {
	id := entity.NewID()
	src := []entity.Data{{
		ID:        id,
		Transform: transformAt(1, 2, 3),
		Components: map[entity.ComponentTag]entity.ComponentPayload{
			"tag": {1, 2, 3},
		},
	}}

	w := FromState(5, 77, src)
	if w.Tick() != 5 || w.Seed() != 77 || w.Len() != 1 {
		t.Fatalf("unexpected world shape: tick=%d seed=%d len=%d", w.Tick(), w.Seed(), w.Len())
	}
	if w.PendingLen() != 0 {
		t.Fatalf("FromState must not emit events, pending=%d", w.PendingLen())
	}

	src[0].Components["tag"][0] = 99
	got, _ := w.Get(id)
	if got.Components["tag"][0] != 1 {
		t.Fatalf("FromState did not deep-copy component payloads")
	}
}

func TestReplay_RejectsDespawnOfAbsentEntity(t *testing.T) {
	w := New(1)
	err := w.Replay([]Event{{Kind: EventDespawned, Tick: 1, EntityID: entity.NewID()}})
	if !errors.Is(err, worlderr.ErrReplayInconsistent) {
		t.Fatalf("expected ErrReplayInconsistent, got %v", err)
	}
}

func TestReplay_RejectsTransformSetOldMismatch(t *testing.T) {
	w := New(1)
	id := w.Spawn(transformAt(0, 0, 0))
	w.DrainEvents()

	bogus := Event{
		Kind: EventTransformSet, Tick: 1, EntityID: id,
		Transform: transformAt(2, 2, 2), PrevTransform: transformAt(9, 9, 9),
	}
	if err := w.Replay([]Event{bogus}); !errors.Is(err, worlderr.ErrReplayInconsistent) {
		t.Fatalf("expected ErrReplayInconsistent, got %v", err)
	}
}
