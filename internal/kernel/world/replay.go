package world

import (
	"fmt"

	"worldkernel/internal/kernel/prng"
	"worldkernel/internal/worlderr"
)

// DefaultEnforceSteppedSeed is the enforcement level a World starts with:
// Replay verifies that a Stepped event's NewSeed matches prng.Next of the
// prior seed, so a mismatch is a contract violation. Callers that need to
// relax this (e.g. replaying logs captured before a mixer change) can turn
// it off per-world with SetEnforceSteppedSeed.
const DefaultEnforceSteppedSeed = true

// SetEnforceSteppedSeed overrides whether Replay verifies Stepped events'
// seed transitions on w.
func (w *World) SetEnforceSteppedSeed(enforce bool) {
	w.enforceSteppedSeed = enforce
}

// Replay applies events in order to w. It is a pure, total function of the
// event sequence: two worlds replaying the same sequence from the same
// starting state end up bit-identical. Events produced while replaying are
// not appended to pending; this is reconstruction, not new history.
func (w *World) Replay(events []Event) error {
	for i, ev := range events {
		if err := w.applyReplayEvent(ev); err != nil {
			return fmt.Errorf("replay event %d (%s): %w", i, ev.Kind, err)
		}
	}
	return nil
}

func (w *World) applyReplayEvent(ev Event) error {
	switch ev.Kind {
	case EventSpawned:
		if _, exists := w.entries[ev.EntityID]; exists {
			return fmt.Errorf("spawn %s: %w", ev.EntityID, worlderr.ErrReplayInconsistent)
		}
		w.insert(ev.EntityID, ev.Transform)
		w.advanceTickTo(ev.Tick)

	case EventDespawned:
		if _, exists := w.entries[ev.EntityID]; !exists {
			return fmt.Errorf("despawn %s: %w", ev.EntityID, worlderr.ErrReplayInconsistent)
		}
		w.removeFromOrder(ev.EntityID)
		delete(w.entries, ev.EntityID)
		w.advanceTickTo(ev.Tick)

	case EventTransformSet:
		d, exists := w.entries[ev.EntityID]
		if !exists {
			return fmt.Errorf("set transform %s: %w", ev.EntityID, worlderr.ErrReplayInconsistent)
		}
		if !d.Transform.Equal(ev.PrevTransform) {
			return fmt.Errorf("set transform %s: old mismatch: %w", ev.EntityID, worlderr.ErrReplayInconsistent)
		}
		d.Transform = ev.Transform
		w.entries[ev.EntityID] = d
		w.advanceTickTo(ev.Tick)

	case EventStepped:
		if w.enforceSteppedSeed {
			want, _ := prng.Next(w.seed)
			if want != ev.NewSeed {
				return fmt.Errorf("stepped seed mismatch: %w", worlderr.ErrReplayInconsistent)
			}
		}
		w.seed = ev.NewSeed
		w.advanceTickTo(ev.Tick)

	default:
		return fmt.Errorf("unknown event kind %d: %w", ev.Kind, worlderr.ErrReplayInconsistent)
	}
	return nil
}

func (w *World) advanceTickTo(tick uint64) {
	if tick > w.tick {
		w.tick = tick
	}
}
