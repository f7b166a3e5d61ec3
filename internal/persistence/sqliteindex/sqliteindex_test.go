package sqliteindex

import (
	"path/filepath"
	"testing"
	"time"
)

func TestRecord_PersistsAndReportsLatest(t *testing.T) {
	dir := t.TempDir()
	idx, err := Open(filepath.Join(dir, "index.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer idx.Close()

	idx.Record(CheckpointRow{Tick: 10, Seed: 1, Entities: 2, Fingerprint: 0xabc, RecordedAt: RecordedAtNow(time.Now())})
	idx.Record(CheckpointRow{Tick: 20, Seed: 2, Entities: 3, Fingerprint: 0xdef, RecordedAt: RecordedAtNow(time.Now())})

	row, ok, err := waitForLatest(t, idx, 20)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if !ok {
		t.Fatalf("expected a latest row")
	}
	if row.Tick != 20 || row.Seed != 2 || row.Entities != 3 || row.Fingerprint != 0xdef {
		t.Fatalf("unexpected latest row: %+v", row)
	}
}

func TestHistory_ReturnsOldestFirst(t *testing.T) {
	dir := t.TempDir()
	idx, err := Open(filepath.Join(dir, "index.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer idx.Close()

	for _, tick := range []uint64{5, 15, 25} {
		idx.Record(CheckpointRow{Tick: tick, RecordedAt: RecordedAtNow(time.Now())})
	}
	if _, _, err := waitForLatest(t, idx, 25); err != nil {
		t.Fatalf("wait: %v", err)
	}

	rows, err := idx.History()
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for i, want := range []uint64{5, 15, 25} {
		if rows[i].Tick != want {
			t.Fatalf("row %d: got tick=%d want=%d", i, rows[i].Tick, want)
		}
	}
}

func TestLatest_EmptyIndex_ReturnsFalse(t *testing.T) {
	dir := t.TempDir()
	idx, err := Open(filepath.Join(dir, "index.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer idx.Close()

	_, ok, err := idx.Latest()
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if ok {
		t.Fatalf("expected no latest row on an empty index")
	}
}

// waitForLatest polls until the background writer has applied the row for
// wantTick, since Record enqueues asynchronously.
func waitForLatest(t *testing.T, idx *Index, wantTick uint64) (CheckpointRow, bool, error) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		row, ok, err := idx.Latest()
		if err != nil {
			return CheckpointRow{}, false, err
		}
		if ok && row.Tick == wantTick {
			return row, true, nil
		}
		time.Sleep(5 * time.Millisecond)
	}
	return idx.Latest()
}
