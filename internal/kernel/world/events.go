package world

import "worldkernel/internal/kernel/entity"

// EventKind tags a WorldEvent variant. WorldEvent is a closed sum type: all
// variants are enumerated here and dispatched by a switch, never by
// dynamic polymorphism, so the event log stays enumerable and replayable.
type EventKind uint8

const (
	EventSpawned EventKind = iota + 1
	EventDespawned
	EventTransformSet
	EventStepped
)

// String names the event kind for logging.
func (k EventKind) String() string {
	switch k {
	case EventSpawned:
		return "Spawned"
	case EventDespawned:
		return "Despawned"
	case EventTransformSet:
		return "TransformSet"
	case EventStepped:
		return "Stepped"
	default:
		return "Unknown"
	}
}

// Event is a tagged variant recording one world mutation. Only the fields
// relevant to Kind are populated; every variant carries enough data to be
// its own inverse or to reproduce the forward transition during replay.
type Event struct {
	Kind EventKind
	Tick uint64

	// EventSpawned, EventDespawned, EventTransformSet
	EntityID entity.ID

	// EventSpawned: the transform the entity was spawned with.
	// EventTransformSet: the transform after the change.
	Transform entity.Transform

	// EventDespawned: the transform the entity had immediately before removal.
	// EventTransformSet: the transform before the change, used for replay
	// integrity checks only.
	PrevTransform entity.Transform

	// EventStepped: the seed produced by step's call to prng.Next.
	NewSeed uint64
}
