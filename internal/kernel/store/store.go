// Package store owns the checkpoint-plus-pending-events pair that anchors
// a world's durable history: a SnapshotStore holds the latest snapshot and
// the event log recorded since it was taken, and knows how to checkpoint,
// flush, roll back, and replay from that pair.
package store

import (
	"fmt"

	"worldkernel/internal/kernel/eventlog"
	"worldkernel/internal/kernel/snapshot"
	"worldkernel/internal/kernel/world"
	"worldkernel/internal/worlderr"
	"worldkernel/internal/worldlog"
)

// SnapshotStore pairs the latest checkpoint with the events recorded since
// it was taken. Because every mutator emits an event, Flush is the only
// path from pending into the log, and Checkpoint clears the log after
// capturing a fresh snapshot, the invariant
// "world == latest.Restore() then Replay(log)" holds after every Flush.
type SnapshotStore struct {
	latest *snapshot.Snapshot
	log    *eventlog.Log

	logger             *worldlog.Logger
	enforceSteppedSeed bool
}

// New returns an empty store: no snapshot yet, empty log, replay enforcing
// stepped-seed transitions strictly and logging nothing until SetLogger is
// called.
func New() *SnapshotStore {
	return &SnapshotStore{log: eventlog.New(), enforceSteppedSeed: world.DefaultEnforceSteppedSeed}
}

// SetLogger attaches a Logger that Checkpoint, Rollback, and ReplayLatest
// report lifecycle events through. A nil logger (the default) means no
// logging.
func (s *SnapshotStore) SetLogger(logger *worldlog.Logger) {
	s.logger = logger
}

// SetEnforceSteppedSeed controls whether worlds produced by ReplayLatest
// verify Stepped events' seed transitions strictly.
func (s *SnapshotStore) SetEnforceSteppedSeed(enforce bool) {
	s.enforceSteppedSeed = enforce
}

// HasSnapshot reports whether a checkpoint has ever been taken.
func (s *SnapshotStore) HasSnapshot() bool { return s.latest != nil }

// Log exposes the event log recorded since the latest checkpoint, mainly
// for inspection and persistence sinks.
func (s *SnapshotStore) Log() *eventlog.Log { return s.log }

// AdoptSnapshot installs snap as the latest checkpoint without touching any
// world or the log. It exists for reconstructing a store from a
// previously-persisted snapshot on startup; ordinary checkpointing should
// go through Checkpoint instead.
func (s *SnapshotStore) AdoptSnapshot(snap snapshot.Snapshot) {
	s.latest = &snap
}

// Latest returns the current checkpoint and whether one exists.
func (s *SnapshotStore) Latest() (snapshot.Snapshot, bool) {
	if s.latest == nil {
		return snapshot.Snapshot{}, false
	}
	return *s.latest, true
}

// Checkpoint captures a fresh snapshot of w, replaces the latest snapshot,
// drains w's pending events (they are implicitly absorbed into the new
// snapshot rather than logged), and clears the event log.
func (s *SnapshotStore) Checkpoint(w *world.World) snapshot.Snapshot {
	snap := snapshot.Capture(w)
	s.latest = &snap
	w.DrainEvents()
	s.log.Clear()
	if s.logger != nil {
		s.logger.Checkpoint(snap.Tick)
	}
	return snap
}

// Flush drains w's pending events into the log and returns how many were
// flushed.
func (s *SnapshotStore) Flush(w *world.World) int {
	events := w.DrainEvents()
	s.log.AppendAll(events)
	if s.logger != nil {
		s.logger.Flush(len(events))
	}
	return len(events)
}

// Rollback discards *w and replaces it with the latest snapshot restored,
// clearing the log. Fails with ErrNoSnapshot if no checkpoint exists.
func (s *SnapshotStore) Rollback(w *world.World) error {
	if s.latest == nil {
		return worlderr.ErrNoSnapshot
	}
	*w = *s.latest.Restore()
	s.log.Clear()
	if s.logger != nil {
		s.logger.Rollback(w.Tick())
	}
	return nil
}

// VerifyLatest reports whether the latest checkpoint's fingerprint still
// matches its recorded contents, logging an integrity failure if not.
// Fails with ErrNoSnapshot if no checkpoint exists.
func (s *SnapshotStore) VerifyLatest() (bool, error) {
	if s.latest == nil {
		return false, worlderr.ErrNoSnapshot
	}
	ok := s.latest.Verify()
	if !ok && s.logger != nil {
		s.logger.IntegrityFailure(s.latest.Tick)
	}
	return ok, nil
}

// ReplayLatest restores the latest snapshot and applies the recorded log
// on top of it, returning the reconstructed world. Fails with
// ErrNoSnapshot if no checkpoint exists, or ErrReplayInconsistent if the
// log is corrupt.
func (s *SnapshotStore) ReplayLatest() (*world.World, error) {
	if s.latest == nil {
		return nil, worlderr.ErrNoSnapshot
	}
	w := s.latest.Restore()
	w.SetEnforceSteppedSeed(s.enforceSteppedSeed)
	var events []world.Event
	s.log.Iter(func(ev world.Event) { events = append(events, ev) })
	if err := w.Replay(events); err != nil {
		wrapped := fmt.Errorf("replay latest: %w", err)
		if s.logger != nil {
			s.logger.ReplayInconsistent(wrapped)
		}
		return nil, wrapped
	}
	return w, nil
}
