// Package codec implements the canonical, deterministic byte encoding used
// for snapshot fingerprinting. The on-disk files written by diskstore do not
// use it; they are gob-encoded. The encoding is a fixed-order, length-prefixed binary layout: integers are
// little-endian, byte sequences are length-prefixed, and map-typed fields
// are flattened by sorting keys first, so the same value always produces
// the same bytes regardless of map iteration order.
package codec

import (
	"encoding/binary"
	"hash"
	"math"
	"sort"
)

// Writer streams a canonical byte encoding into a sink. The sink needs only
// the io.Writer half of hash.Hash64, so it can be either a byte buffer or a
// running FNV-1a hash without the caller caring which.
type Writer struct {
	w   writeByter
	tmp [8]byte
}

type writeByter interface {
	Write(p []byte) (int, error)
}

// NewWriter wraps any io.Writer-like sink (a *bytes.Buffer or a
// hash.Hash64) in the canonical encoding helpers below.
func NewWriter(w writeByter) *Writer { return &Writer{w: w} }

// U8 writes a single byte.
func (e *Writer) U8(v uint8) { e.w.Write([]byte{v}) }

// Bool writes a byte: 1 for true, 0 for false.
func (e *Writer) Bool(v bool) {
	if v {
		e.U8(1)
	} else {
		e.U8(0)
	}
}

// U32 writes a uint32 little-endian.
func (e *Writer) U32(v uint32) {
	binary.LittleEndian.PutUint32(e.tmp[:4], v)
	e.w.Write(e.tmp[:4])
}

// U64 writes a uint64 little-endian.
func (e *Writer) U64(v uint64) {
	binary.LittleEndian.PutUint64(e.tmp[:8], v)
	e.w.Write(e.tmp[:8])
}

// I64 writes an int64 little-endian (reinterpreted as uint64).
func (e *Writer) I64(v int64) { e.U64(uint64(v)) }

// F64 writes a float64 via its IEEE-754 bit pattern, little-endian. Using
// the exact bit pattern (not a text rendering) keeps the encoding a pure
// function of the value, including for NaN payloads and signed zero.
func (e *Writer) F64(v float64) { e.U64(math.Float64bits(v)) }

// Bytes writes a length-prefixed (uint32) byte sequence.
func (e *Writer) Bytes(b []byte) {
	e.U32(uint32(len(b)))
	e.w.Write(b)
}

// String writes a length-prefixed (uint32) UTF-8 string.
func (e *Writer) String(s string) { e.Bytes([]byte(s)) }

// SortedKeys returns the keys of m in sorted order, for callers that need
// to iterate a map deterministically before encoding its values.
func SortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// hashSink adapts a hash.Hash64 to writeByter so Writer can stream directly
// into a running hash without materializing the encoded bytes.
type hashSink struct{ h hash.Hash64 }

func (s hashSink) Write(p []byte) (int, error) { return s.h.Write(p) }

// NewHashWriter returns a Writer that streams directly into h.
func NewHashWriter(h hash.Hash64) *Writer { return NewWriter(hashSink{h: h}) }
