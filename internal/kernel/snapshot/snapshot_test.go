package snapshot

import (
	"testing"

	"worldkernel/internal/kernel/entity"
	"worldkernel/internal/kernel/world"
)

func buildThreeEntityWorld() *world.World {
	w := world.New(7)
	for i, pos := range []entity.Vec3{{X: 0}, {X: 1}, {X: 2}} {
		tr := entity.IdentityTransform
		tr.Position = pos
		if i == 1 {
			tr.Scale = entity.Vec3{X: 2, Y: 2, Z: 2}
		}
		w.Spawn(tr)
	}
	w.Step()
	return w
}

func TestCapture_Verifies(t *testing.T) {
	w := buildThreeEntityWorld()
	s := Capture(w)
	if !s.Verify() {
		t.Fatalf("freshly captured snapshot failed to verify")
	}
}

func TestVerify_DetectsTickMutation(t *testing.T) {
	w := buildThreeEntityWorld()
	s := Capture(w)
	s.Tick++
	if s.Verify() {
		t.Fatalf("expected verify to fail after mutating tick")
	}
}

func TestVerify_DetectsSeedMutation(t *testing.T) {
	w := buildThreeEntityWorld()
	s := Capture(w)
	s.Seed++
	if s.Verify() {
		t.Fatalf("expected verify to fail after mutating seed")
	}
}

func TestVerify_DetectsEntityMutation(t *testing.T) {
	w := buildThreeEntityWorld()
	s := Capture(w)
	s.Entities[0].Transform.Position.X += 100
	if s.Verify() {
		t.Fatalf("expected verify to fail after mutating an entity field")
	}
}

func TestRestore_ReproducesTickSeedEntities(t *testing.T) {
	w := buildThreeEntityWorld()
	s := Capture(w)

	restored := s.Restore()
	if restored.Tick() != w.Tick() {
		t.Fatalf("tick mismatch: %d vs %d", restored.Tick(), w.Tick())
	}
	if restored.Seed() != w.Seed() {
		t.Fatalf("seed mismatch: %d vs %d", restored.Seed(), w.Seed())
	}
	if restored.Len() != w.Len() {
		t.Fatalf("entity count mismatch: %d vs %d", restored.Len(), w.Len())
	}
	if restored.PendingLen() != 0 {
		t.Fatalf("restored world should have an empty pending log, got %d", restored.PendingLen())
	}

	var orig, got []entity.Data
	w.Iter(func(d entity.Data) { orig = append(orig, d) })
	restored.Iter(func(d entity.Data) { got = append(got, d) })
	for i := range orig {
		if orig[i].ID != got[i].ID || !orig[i].Transform.Equal(got[i].Transform) {
			t.Fatalf("entity %d mismatch after restore: %+v vs %+v", i, orig[i], got[i])
		}
	}
}

// TestRestore_RoundTripsComponentPayloads checks that capture and restore
// carry the opaque component blobs through unchanged, and that the
// fingerprint covers them.
func TestRestore_RoundTripsComponentPayloads(t *testing.T) {
	id := entity.NewID()
	src := world.FromState(3, 11, []entity.Data{{
		ID:        id,
		Transform: entity.IdentityTransform,
		Components: map[entity.ComponentTag]entity.ComponentPayload{
			"health": {0x64},
			"name":   []byte("turret"),
		},
	}})

	s := Capture(src)
	if !s.Verify() {
		t.Fatalf("snapshot with components failed to verify")
	}

	restored := s.Restore()
	d, ok := restored.Get(id)
	if !ok {
		t.Fatalf("restored world missing entity %s", id)
	}
	if len(d.Components) != 2 {
		t.Fatalf("expected 2 component payloads after restore, got %d", len(d.Components))
	}
	if string(d.Components["name"]) != "turret" {
		t.Fatalf("component payload corrupted: %q", d.Components["name"])
	}

	s.Entities[0].Components["health"][0] = 0
	if s.Verify() {
		t.Fatalf("expected verify to fail after mutating a component payload")
	}
}
