package inspector

import (
	"testing"

	"worldkernel/internal/kernel/entity"
	"worldkernel/internal/kernel/world"
)

func TestInspect_MatchesWorldShapeAndOrder(t *testing.T) {
	w := world.New(3)
	var ids []entity.ID
	for i := 0; i < 3; i++ {
		tr := entity.IdentityTransform
		tr.Position = entity.Vec3{X: float64(i)}
		ids = append(ids, w.Spawn(tr))
	}
	w.Step()

	view := Inspect(w)
	if view.Tick != w.Tick() || view.Seed != w.Seed() {
		t.Fatalf("view tick/seed mismatch: got %d/%d, want %d/%d",
			view.Tick, view.Seed, w.Tick(), w.Seed())
	}
	if len(view.Entities) != 3 {
		t.Fatalf("expected 3 entity views, got %d", len(view.Entities))
	}
	for i, ev := range view.Entities {
		if ev.ID != ids[i] {
			t.Fatalf("view order diverged from insertion order at %d", i)
		}
		if ev.Transform.Position.X != float64(i) {
			t.Fatalf("view %d carries the wrong transform: %+v", i, ev.Transform)
		}
	}
}

func TestFind(t *testing.T) {
	w := world.New(1)
	id := w.Spawn(entity.IdentityTransform)

	if _, ok := Find(w, entity.NewID()); ok {
		t.Fatalf("expected Find miss for an unknown id")
	}
	got, ok := Find(w, id)
	if !ok || got.ID != id {
		t.Fatalf("expected Find hit for %s, got %+v ok=%v", id, got, ok)
	}
}

func TestProject_VisitsEveryEntityInOrder(t *testing.T) {
	w := world.New(1)
	a := w.Spawn(entity.IdentityTransform)
	b := w.Spawn(entity.IdentityTransform)

	var seen []entity.ID
	Project(w, func(id entity.ID, _ entity.Transform) {
		seen = append(seen, id)
	})
	if len(seen) != 2 || seen[0] != a || seen[1] != b {
		t.Fatalf("projection order wrong: %v, want [%s %s]", seen, a, b)
	}
}
