// Package worlderr holds the kernel's error taxonomy as sentinel values,
// matched with errors.Is at call sites and wrapped with fmt.Errorf for
// context.
package worlderr

import "errors"

var (
	// ErrEntityNotFound is returned when an addressed entity is absent.
	ErrEntityNotFound = errors.New("entity not found")
	// ErrEntityAlreadyExists is returned on an id collision on explicit insert.
	ErrEntityAlreadyExists = errors.New("entity already exists")
	// ErrNothingToUndo is returned when the undo stack is empty.
	ErrNothingToUndo = errors.New("nothing to undo")
	// ErrNothingToRedo is returned when the redo stack is empty.
	ErrNothingToRedo = errors.New("nothing to redo")
	// ErrNoSnapshot is returned when rollback or replay is requested with no checkpoint.
	ErrNoSnapshot = errors.New("no snapshot")
	// ErrIntegrityFailed is returned on a fingerprint mismatch during snapshot verify.
	ErrIntegrityFailed = errors.New("integrity check failed")
	// ErrReplayInconsistent is returned when an event sequence is invalid for the current state.
	ErrReplayInconsistent = errors.New("replay inconsistent")
	// ErrSerializationFailed is returned when bytes are malformed or the version is unknown.
	ErrSerializationFailed = errors.New("serialization failed")
)
