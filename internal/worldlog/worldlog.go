// Package worldlog wraps the standard library logger with a small
// prefix-and-flags convention so kernel lifecycle events (checkpoint,
// rollback, integrity failure) are logged consistently wherever the
// kernel is embedded.
package worldlog

import (
	"log"
	"os"
)

// Logger is a thin wrapper over *log.Logger with named lifecycle events.
type Logger struct {
	l *log.Logger
}

// New returns a Logger writing to stdout with a bracketed prefix and
// microsecond timestamps.
func New(prefix string) *Logger {
	return &Logger{l: log.New(os.Stdout, "["+prefix+"] ", log.LstdFlags|log.Lmicroseconds)}
}

// Checkpoint logs a successful checkpoint at the given tick.
func (lg *Logger) Checkpoint(tick uint64) {
	lg.l.Printf("checkpoint tick=%d", tick)
}

// Flush logs a successful flush, reporting how many events moved to the log.
func (lg *Logger) Flush(count int) {
	lg.l.Printf("flush events=%d", count)
}

// Rollback logs a rollback to the given tick.
func (lg *Logger) Rollback(tick uint64) {
	lg.l.Printf("rollback tick=%d", tick)
}

// IntegrityFailure logs a fingerprint mismatch on snapshot verification.
func (lg *Logger) IntegrityFailure(tick uint64) {
	lg.l.Printf("integrity check failed tick=%d", tick)
}

// ReplayInconsistent logs a replay failure, including the underlying error.
func (lg *Logger) ReplayInconsistent(err error) {
	lg.l.Printf("replay inconsistent: %v", err)
}

// Errorf logs a formatted error-level message.
func (lg *Logger) Errorf(format string, args ...any) {
	lg.l.Printf("error: "+format, args...)
}
