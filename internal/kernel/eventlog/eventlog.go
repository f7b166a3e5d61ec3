// Package eventlog implements the append-only, ordered record of every
// world mutation. It exposes no remove or mutate operation; the only way
// to shrink it is Truncate, and only from the tail (used for rollback).
package eventlog

import "worldkernel/internal/kernel/world"

// Log is an append-only ordered sequence of world events.
type Log struct {
	events []world.Event
}

// New returns an empty log.
func New() *Log { return &Log{} }

// Append adds ev to the tail of the log. O(1) amortized.
func (l *Log) Append(ev world.Event) { l.events = append(l.events, ev) }

// AppendAll appends a batch of events in order.
func (l *Log) AppendAll(evs []world.Event) { l.events = append(l.events, evs...) }

// Len reports the number of events recorded.
func (l *Log) Len() int { return len(l.events) }

// Iter calls fn for every event in order.
func (l *Log) Iter(fn func(world.Event)) {
	for _, ev := range l.events {
		fn(ev)
	}
}

// EventsAfter returns the events whose Tick is strictly greater than tick,
// in order.
func (l *Log) EventsAfter(tick uint64) []world.Event {
	out := make([]world.Event, 0)
	for _, ev := range l.events {
		if ev.Tick > tick {
			out = append(out, ev)
		}
	}
	return out
}

// ReplayFrom returns the events that should be replayed on top of a
// snapshot at the given tick: those whose recorded tick is strictly
// greater than snapshotTick.
func (l *Log) ReplayFrom(snapshotTick uint64) []world.Event {
	return l.EventsAfter(snapshotTick)
}

// Truncate shrinks the log to the first newLen events. It only ever
// shrinks from the tail; newLen must not exceed the current length.
func (l *Log) Truncate(newLen int) {
	if newLen < 0 || newLen > len(l.events) {
		panic("eventlog: truncate length out of range")
	}
	l.events = l.events[:newLen]
}

// Clear empties the log entirely (used when a new checkpoint absorbs all
// events recorded so far).
func (l *Log) Clear() { l.events = nil }
