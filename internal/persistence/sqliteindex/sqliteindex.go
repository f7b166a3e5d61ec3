// Package sqliteindex maintains a secondary, queryable index of a world's
// checkpoint history in SQLite — tick, seed, entity count, and fingerprint
// per checkpoint — so a CLI or dashboard can answer "when was this world
// last checkpointed" without reading snapshot.bin itself. It is secondary:
// a kernel that never opens one behaves identically. It is also the only
// record of past checkpoints, since the world directory keeps just the
// latest snapshot; this package has no way to rebuild lost rows.
//
// Writes are buffered over a channel and applied by a single background
// goroutine so recording a checkpoint never blocks the simulation on
// disk I/O.
package sqliteindex

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

// CheckpointRow is one recorded checkpoint.
type CheckpointRow struct {
	Tick        uint64
	Seed        uint64
	Entities    int
	Fingerprint uint64
	RecordedAt  string
}

// Index is an async-write SQLite sink for checkpoint metadata. Writes are
// buffered over a channel and applied by a single background goroutine, so
// Record never blocks the caller on disk I/O.
type Index struct {
	db *sql.DB

	ch   chan CheckpointRow
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
	errs   chan error
}

// Open opens (creating if absent) a SQLite index at path.
func Open(path string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("empty index path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	idx := &Index{
		db:   db,
		ch:   make(chan CheckpointRow, 4096),
		errs: make(chan error, 1),
	}
	idx.wg.Add(1)
	go func() {
		defer idx.wg.Done()
		idx.loop()
	}()
	return idx, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS checkpoints (
		tick INTEGER PRIMARY KEY,
		seed INTEGER NOT NULL,
		entities INTEGER NOT NULL,
		fingerprint INTEGER NOT NULL,
		recorded_at TEXT NOT NULL
	);`)
	return err
}

func (idx *Index) loop() {
	for row := range idx.ch {
		// SQLite integers are signed 64-bit and database/sql rejects
		// uint64 values with the high bit set, so seed and fingerprint
		// are stored as their int64 bit pattern and reinterpreted on read.
		if _, err := idx.db.Exec(
			`INSERT OR REPLACE INTO checkpoints (tick, seed, entities, fingerprint, recorded_at)
			 VALUES (?, ?, ?, ?, ?)`,
			int64(row.Tick), int64(row.Seed), row.Entities, int64(row.Fingerprint), row.RecordedAt,
		); err != nil {
			select {
			case idx.errs <- fmt.Errorf("record checkpoint tick=%d: %w", row.Tick, err):
			default:
			}
		}
	}
}

// Record enqueues a checkpoint row for the background writer. It never
// blocks on disk I/O and is a no-op after Close.
func (idx *Index) Record(row CheckpointRow) {
	if idx.closed.Load() {
		return
	}
	idx.ch <- row
}

// LastError returns the most recent background write error, if any, and
// clears it.
func (idx *Index) LastError() error {
	select {
	case err := <-idx.errs:
		return err
	default:
		return nil
	}
}

// Latest returns the recorded checkpoint row with the highest tick.
func (idx *Index) Latest() (CheckpointRow, bool, error) {
	var tick, seed, fingerprint int64
	var row CheckpointRow
	err := idx.db.QueryRow(
		`SELECT tick, seed, entities, fingerprint, recorded_at FROM checkpoints ORDER BY tick DESC LIMIT 1`,
	).Scan(&tick, &seed, &row.Entities, &fingerprint, &row.RecordedAt)
	if err == sql.ErrNoRows {
		return CheckpointRow{}, false, nil
	}
	if err != nil {
		return CheckpointRow{}, false, err
	}
	row.Tick, row.Seed, row.Fingerprint = uint64(tick), uint64(seed), uint64(fingerprint)
	return row, true, nil
}

// History returns every recorded checkpoint in ascending tick order.
func (idx *Index) History() ([]CheckpointRow, error) {
	rows, err := idx.db.Query(
		`SELECT tick, seed, entities, fingerprint, recorded_at FROM checkpoints ORDER BY tick ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CheckpointRow
	for rows.Next() {
		var tick, seed, fingerprint int64
		var row CheckpointRow
		if err := rows.Scan(&tick, &seed, &row.Entities, &fingerprint, &row.RecordedAt); err != nil {
			return nil, err
		}
		row.Tick, row.Seed, row.Fingerprint = uint64(tick), uint64(seed), uint64(fingerprint)
		out = append(out, row)
	}
	return out, rows.Err()
}

// Close stops the background writer and closes the database.
func (idx *Index) Close() error {
	var err error
	idx.once.Do(func() {
		idx.closed.Store(true)
		close(idx.ch)
		idx.wg.Wait()
		err = idx.db.Close()
	})
	return err
}

// RecordedAtNow formats t for the RecordedAt column: UTC, RFC 3339.
func RecordedAtNow(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
