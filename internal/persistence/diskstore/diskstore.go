package diskstore

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"worldkernel/internal/kernel/snapshot"
	"worldkernel/internal/kernel/store"
	"worldkernel/internal/kernel/world"
	"worldkernel/internal/persistence/sqliteindex"
	"worldkernel/internal/worlderr"
	"worldkernel/internal/worldlog"
)

const (
	snapshotFileName = "snapshot.bin"
	eventsFileName   = "events.log"
	indexFileName    = "index.db"
)

// Store persists a SnapshotStore's checkpoint-and-flush discipline to a
// world directory. It keeps the in-memory store as the source of truth
// for a running process and mirrors every mutation to disk; nothing on
// the hot path ever reads back through the files.
type Store struct {
	dir   string
	mem   *store.SnapshotStore
	evw   *eventRecordWriter
	index *sqliteindex.Index
	opts  Options
}

// Options configures a Store's on-disk layout.
type Options struct {
	// SnapshotPath and EventsPath override the default file names within
	// Dir. Left empty, they default to snapshot.bin and events.log.
	SnapshotPath string
	EventsPath   string

	// IndexPath overrides the default checkpoint-history index file
	// (index.db within Dir). SkipIndex disables the index entirely.
	IndexPath string
	SkipIndex bool
}

func (o Options) snapshotPath(dir string) string {
	if o.SnapshotPath != "" {
		return o.SnapshotPath
	}
	return filepath.Join(dir, snapshotFileName)
}

func (o Options) eventsPath(dir string) string {
	if o.EventsPath != "" {
		return o.EventsPath
	}
	return filepath.Join(dir, eventsFileName)
}

func (o Options) indexPath(dir string) string {
	if o.IndexPath != "" {
		return o.IndexPath
	}
	return filepath.Join(dir, indexFileName)
}

// Open opens or creates a disk-backed store rooted at dir, loading any
// existing snapshot and event log found there. dir is created if absent.
func Open(dir string, opts Options) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create world dir %s: %w", dir, err)
	}

	s := &Store{dir: dir, mem: store.New(), opts: opts}

	snapPath := opts.snapshotPath(dir)
	if fileExists(snapPath) {
		snap, err := readSnapshotFile(snapPath)
		if err != nil {
			return nil, fmt.Errorf("load snapshot %s: %w", snapPath, err)
		}
		s.mem.AdoptSnapshot(snap)
	}

	events, err := readEventRecords(opts.eventsPath(dir))
	if err != nil {
		return nil, fmt.Errorf("load event log %s: %w", opts.eventsPath(dir), err)
	}
	s.mem.Log().AppendAll(events)

	evw, err := newEventRecordWriter(opts.eventsPath(dir))
	if err != nil {
		return nil, fmt.Errorf("open event log %s: %w", opts.eventsPath(dir), err)
	}
	s.evw = evw

	if !opts.SkipIndex {
		idx, err := sqliteindex.Open(opts.indexPath(dir))
		if err != nil {
			_ = evw.Close()
			return nil, fmt.Errorf("open checkpoint index %s: %w", opts.indexPath(dir), err)
		}
		s.index = idx
	}

	return s, nil
}

// SetLogger attaches a Logger that checkpoint, rollback, and replay
// lifecycle events are reported through. A nil logger (the default) means
// no logging.
func (s *Store) SetLogger(logger *worldlog.Logger) {
	s.mem.SetLogger(logger)
}

// SetEnforceSteppedSeed controls whether worlds produced by ReplayLatest
// verify Stepped events' seed transitions strictly.
func (s *Store) SetEnforceSteppedSeed(enforce bool) {
	s.mem.SetEnforceSteppedSeed(enforce)
}

// Close releases the underlying event log file handle and the checkpoint
// index, if open. It does not flush the in-memory store; callers that
// want durability for pending events should Checkpoint or Flush before
// closing.
func (s *Store) Close() error {
	if s.index != nil {
		if err := s.index.Close(); err != nil {
			return err
		}
	}
	return s.evw.Close()
}

// Checkpoint captures w's current state, writes it to snapshot.bin, and
// truncates the in-memory and on-disk event logs, matching
// store.SnapshotStore.Checkpoint plus persistence.
func (s *Store) Checkpoint(w *world.World) (snapshot.Snapshot, error) {
	snap := s.mem.Checkpoint(w)
	if err := writeSnapshotFile(s.opts.snapshotPath(s.dir), snap); err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("write snapshot: %w", err)
	}
	if err := s.rewriteEventLog(nil); err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("truncate event log: %w", err)
	}
	if s.index != nil {
		s.index.Record(sqliteindex.CheckpointRow{
			Tick:        snap.Tick,
			Seed:        snap.Seed,
			Entities:    len(snap.Entities),
			Fingerprint: snap.Fingerprint,
			RecordedAt:  sqliteindex.RecordedAtNow(time.Now()),
		})
	}
	return snap, nil
}

// Flush drains w's pending events into the log, appending each to
// events.log, and returns how many were drained.
func (s *Store) Flush(w *world.World) (int, error) {
	pending := w.DrainEvents()
	for _, ev := range pending {
		if err := s.evw.Append(ev); err != nil {
			return 0, fmt.Errorf("append event: %w", err)
		}
	}
	if len(pending) > 0 {
		if err := s.evw.Sync(); err != nil {
			return 0, fmt.Errorf("sync event log: %w", err)
		}
	}
	s.mem.Log().AppendAll(pending)
	return len(pending), nil
}

// Rollback restores *w to the last checkpoint on disk, failing with
// worlderr.ErrNoSnapshot if none exists.
func (s *Store) Rollback(w *world.World) error {
	if err := s.mem.Rollback(w); err != nil {
		return err
	}
	return s.rewriteEventLog(nil)
}

// ReplayLatest reconstructs a fresh world from the latest snapshot plus
// the events logged since, verifying the snapshot's fingerprint first.
func (s *Store) ReplayLatest() (*world.World, error) {
	ok, err := s.VerifyIntegrity()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("replay latest: %w", worlderr.ErrIntegrityFailed)
	}
	return s.mem.ReplayLatest()
}

// Latest returns the current checkpoint and whether one exists.
func (s *Store) Latest() (snapshot.Snapshot, bool) {
	return s.mem.Latest()
}

// VerifyIntegrity reports whether the last loaded or written snapshot's
// fingerprint still matches its recorded contents.
func (s *Store) VerifyIntegrity() (bool, error) {
	snap, ok := s.mem.Latest()
	if !ok {
		return false, worlderr.ErrNoSnapshot
	}
	return snap.Verify(), nil
}

// rewriteEventLog replaces events.log on disk with the given events (empty
// after a checkpoint or rollback), preserving the header.
func (s *Store) rewriteEventLog(events []world.Event) error {
	if err := s.evw.Close(); err != nil {
		return err
	}
	path := s.opts.eventsPath(s.dir)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	evw, err := newEventRecordWriter(path)
	if err != nil {
		return err
	}
	for _, ev := range events {
		if err := evw.Append(ev); err != nil {
			_ = evw.Close()
			return err
		}
	}
	s.evw = evw
	return nil
}
