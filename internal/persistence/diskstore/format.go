// Package diskstore persists a SnapshotStore to a world directory: one
// compressed snapshot file and one compressed, length-prefixed event log
// file, both framed with a fixed magic-and-version header so a reader can
// reject foreign or incompatible files before decoding anything.
package diskstore

import (
	"bufio"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"worldkernel/internal/kernel/snapshot"
	"worldkernel/internal/kernel/world"
	"worldkernel/internal/worlderr"
)

// magic identifies a worldkernel persisted file.
var magic = [4]byte{'W', 'E', 'V', '0'}

// formatVersion is the positional-schema version of the encoded payloads.
const formatVersion uint16 = 1

func writeHeader(w io.Writer) error {
	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, formatVersion)
}

func readHeader(r io.Reader) error {
	var got [4]byte
	if _, err := io.ReadFull(r, got[:]); err != nil {
		return fmt.Errorf("%w: read magic: %v", worlderr.ErrSerializationFailed, err)
	}
	if got != magic {
		return fmt.Errorf("%w: bad magic %q", worlderr.ErrSerializationFailed, got)
	}
	var version uint16
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return fmt.Errorf("%w: read version: %v", worlderr.ErrSerializationFailed, err)
	}
	if version != formatVersion {
		return fmt.Errorf("%w: unsupported format version %d", worlderr.ErrSerializationFailed, version)
	}
	return nil
}

// writeSnapshotFile writes snap to path as header + gob-encoded snapshot,
// zstd-compressed.
func writeSnapshotFile(path string, snap snapshot.Snapshot) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if err := writeHeader(f); err != nil {
		_ = f.Close()
		return err
	}

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = f.Close()
		return err
	}

	bw := bufio.NewWriterSize(enc, 64*1024)
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return fmt.Errorf("%w: gob encode snapshot: %v", worlderr.ErrSerializationFailed, err)
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return err
	}
	// Close the encoder explicitly: it writes the final zstd frame, and an
	// error here means a truncated snapshot on disk.
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// readSnapshotFile reads a snapshot written by writeSnapshotFile.
func readSnapshotFile(path string) (snapshot.Snapshot, error) {
	var snap snapshot.Snapshot
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	if err := readHeader(f); err != nil {
		return snap, err
	}

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	if err := gob.NewDecoder(dec).Decode(&snap); err != nil {
		return snap, fmt.Errorf("%w: gob decode snapshot: %v", worlderr.ErrSerializationFailed, err)
	}
	return snap, nil
}

// eventRecordWriter appends length-prefixed, gob-encoded WorldEvent records
// to a zstd stream. Records are framed individually (rather than one gob
// stream for the whole file) so a reader can stop at any record boundary.
type eventRecordWriter struct {
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

func newEventRecordWriter(path string) (*eventRecordWriter, error) {
	exists := fileExists(path)

	flags := os.O_CREATE | os.O_WRONLY
	if exists {
		flags |= os.O_APPEND
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, err
	}

	if !exists {
		if err := writeHeader(f); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &eventRecordWriter{f: f, enc: enc, w: bufio.NewWriterSize(enc, 32*1024)}, nil
}

func (w *eventRecordWriter) Append(ev world.Event) error {
	var buf []byte
	gw := &gobBuffer{}
	if err := gob.NewEncoder(gw).Encode(&ev); err != nil {
		return fmt.Errorf("%w: gob encode event: %v", worlderr.ErrSerializationFailed, err)
	}
	buf = gw.data

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(buf)))
	if _, err := w.w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.w.Write(buf)
	return err
}

// Sync pushes buffered records through the compressor to the file, so a
// crash after a flushed batch loses at most the batch in flight.
func (w *eventRecordWriter) Sync() error {
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.enc.Flush()
}

func (w *eventRecordWriter) Close() error {
	if err := w.w.Flush(); err != nil {
		return err
	}
	if err := w.enc.Close(); err != nil {
		return err
	}
	return w.f.Close()
}

// readEventRecords reads every event record from a file written by
// eventRecordWriter, in order.
func readEventRecords(path string) ([]world.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	if err := readHeader(f); err != nil {
		return nil, err
	}

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var events []world.Event
	for {
		var lenBuf [4]byte
		if _, err := io.ReadFull(dec, lenBuf[:]); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("%w: read record length: %v", worlderr.ErrSerializationFailed, err)
		}
		n := binary.LittleEndian.Uint32(lenBuf[:])
		buf := make([]byte, n)
		if _, err := io.ReadFull(dec, buf); err != nil {
			return nil, fmt.Errorf("%w: read record: %v", worlderr.ErrSerializationFailed, err)
		}
		var ev world.Event
		if err := gob.NewDecoder(&gobBuffer{data: buf}).Decode(&ev); err != nil {
			return nil, fmt.Errorf("%w: gob decode event: %v", worlderr.ErrSerializationFailed, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// gobBuffer is a minimal io.Writer/io.Reader over an in-memory byte slice,
// used to gob-encode a single record without pulling in bytes.Buffer at
// every call site.
type gobBuffer struct {
	data []byte
	pos  int
}

func (b *gobBuffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *gobBuffer) Read(p []byte) (int, error) {
	if b.pos >= len(b.data) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.pos:])
	b.pos += n
	return n, nil
}
