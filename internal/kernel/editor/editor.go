// Package editor implements non-destructive, in-world authoring:
// invertible edit commands applied through an Editor that maintains
// undo/redo stacks with correct invalidation.
package editor

import (
	"fmt"

	"worldkernel/internal/kernel/entity"
	"worldkernel/internal/kernel/world"
	"worldkernel/internal/worlderr"
)

// CommandKind tags an EditCommand variant. Like WorldEvent, EditCommand is
// a closed sum type dispatched by a switch, not by dynamic polymorphism.
type CommandKind uint8

const (
	CommandSpawn CommandKind = iota + 1
	CommandDespawn
	CommandSetTransform
)

// Command is a user-intent-level, invertible edit applied via the
// authoring layer.
type Command struct {
	Kind CommandKind

	EntityID entity.ID

	// CommandSpawn, CommandDespawn: the transform to spawn/despawn with.
	Transform entity.Transform

	// CommandSetTransform: old and new transform.
	Old entity.Transform
	New entity.Transform
}

// Spawn builds a Spawn{id, transform} command. The id must be non-nil —
// Apply rejects a nil id, since the command on the undo stack has to name
// the exact entity it created. Use SpawnNew to mint a fresh id for a
// brand-new entity.
func Spawn(id entity.ID, t entity.Transform) Command {
	return Command{Kind: CommandSpawn, EntityID: id, Transform: t}
}

// SpawnNew builds a Spawn command for a freshly generated entity id, for
// translating a raw "create an entity" input action into a command. The id
// must be decided before Apply so that undo/redo and replay stay
// deterministic; it is returned alongside the command for the caller to
// track.
func SpawnNew(t entity.Transform) (Command, entity.ID) {
	id := entity.NewID()
	return Spawn(id, t), id
}

// Despawn builds a Despawn{id, transform} command.
func Despawn(id entity.ID, t entity.Transform) Command {
	return Command{Kind: CommandDespawn, EntityID: id, Transform: t}
}

// SetTransform builds a SetTransform{id, old, new} command.
func SetTransform(id entity.ID, old, new entity.Transform) Command {
	return Command{Kind: CommandSetTransform, EntityID: id, Old: old, New: new}
}

// Inverse returns the command that undoes c. Inverse(Inverse(c)) == c for
// every c.
func (c Command) Inverse() Command {
	switch c.Kind {
	case CommandSpawn:
		return Despawn(c.EntityID, c.Transform)
	case CommandDespawn:
		return Spawn(c.EntityID, c.Transform)
	case CommandSetTransform:
		return SetTransform(c.EntityID, c.New, c.Old)
	default:
		panic(fmt.Sprintf("editor: unknown command kind %d", c.Kind))
	}
}

// Editor owns the undo/redo stacks and is the single sanctioned path for
// in-world authoring: every mutation that should be undoable must go
// through Apply.
type Editor struct {
	undo []Command
	redo []Command
}

// New returns an editor with empty undo/redo stacks.
func New() *Editor { return &Editor{} }

// Apply executes cmd against w. On success cmd is pushed onto the undo
// stack and the redo stack is cleared. On failure neither stack is
// modified and the error propagates.
func (e *Editor) Apply(cmd Command, w *world.World) error {
	if err := execute(cmd, w); err != nil {
		return err
	}
	e.undo = append(e.undo, cmd)
	e.redo = nil
	return nil
}

// Undo pops the last command from the undo stack, applies its inverse to
// w, and pushes the original command onto the redo stack. Fails with
// ErrNothingToUndo if the undo stack is empty.
func (e *Editor) Undo(w *world.World) error {
	if len(e.undo) == 0 {
		return worlderr.ErrNothingToUndo
	}
	cmd := e.undo[len(e.undo)-1]
	if err := execute(cmd.Inverse(), w); err != nil {
		return fmt.Errorf("undo: %w", err)
	}
	e.undo = e.undo[:len(e.undo)-1]
	e.redo = append(e.redo, cmd)
	return nil
}

// Redo pops the last command from the redo stack, re-applies it to w, and
// pushes it back onto the undo stack. Fails with ErrNothingToRedo if the
// redo stack is empty.
func (e *Editor) Redo(w *world.World) error {
	if len(e.redo) == 0 {
		return worlderr.ErrNothingToRedo
	}
	cmd := e.redo[len(e.redo)-1]
	if err := execute(cmd, w); err != nil {
		return fmt.Errorf("redo: %w", err)
	}
	e.redo = e.redo[:len(e.redo)-1]
	e.undo = append(e.undo, cmd)
	return nil
}

// CanUndo reports whether Undo would succeed.
func (e *Editor) CanUndo() bool { return len(e.undo) > 0 }

// CanRedo reports whether Redo would succeed.
func (e *Editor) CanRedo() bool { return len(e.redo) > 0 }

// Depth returns the number of commands currently on the undo stack.
func (e *Editor) Depth() int { return len(e.undo) }

// InvalidateRedo clears the redo stack. A direct world mutation that
// bypasses Apply silently invalidates the semantic meaning of redo; the
// editor has no hook into the world to detect that happening, so an
// embedder performing such a mutation calls this itself.
func (e *Editor) InvalidateRedo() { e.redo = nil }

func execute(cmd Command, w *world.World) error {
	switch cmd.Kind {
	case CommandSpawn:
		if cmd.EntityID.IsNil() {
			return fmt.Errorf("editor: spawn command requires a non-nil entity id")
		}
		return w.SpawnWith(cmd.EntityID, cmd.Transform)
	case CommandDespawn:
		_, err := w.Despawn(cmd.EntityID)
		return err
	case CommandSetTransform:
		_, err := w.SetTransform(cmd.EntityID, cmd.New)
		return err
	default:
		return fmt.Errorf("editor: unknown command kind %d", cmd.Kind)
	}
}
