// Package entity holds the shared value types the rest of the kernel is
// built on: entity identity, 3D transforms, and the small vector/quaternion
// helpers transforms are made of.
package entity

import (
	"math"

	"github.com/google/uuid"
)

// ID is a version-4 UUID identifying an entity. Equality is by full value
// and it is stable across persistence.
type ID uuid.UUID

// NilID is the zero value; it is never a valid spawned entity id.
var NilID = ID(uuid.Nil)

// NewID generates a fresh random (v4) entity id.
func NewID() ID {
	return ID(uuid.New())
}

// String renders the canonical 8-4-4-4-12 hex form.
func (id ID) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether id is the zero value.
func (id ID) IsNil() bool {
	return id == NilID
}

// ParseID parses the canonical string form produced by String.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NilID, err
	}
	return ID(u), nil
}

// Vec3 is a 3D vector used for translation and scale.
type Vec3 struct {
	X, Y, Z float64
}

// ZeroVec3 is the additive identity.
var ZeroVec3 = Vec3{}

// OneVec3 is the multiplicative identity, the default scale.
var OneVec3 = Vec3{X: 1, Y: 1, Z: 1}

// Add returns the componentwise sum v+o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Sub returns the componentwise difference v-o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Scale returns v scaled uniformly by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Equal reports exact (non-fuzzy) componentwise equality.
func (v Vec3) Equal(o Vec3) bool {
	return v.X == o.X && v.Y == o.Y && v.Z == o.Z
}

// Quat is a unit quaternion rotation, (x, y, z, w).
type Quat struct {
	X, Y, Z, W float64
}

// IdentityQuat is the rotation-free quaternion, the default rotation.
var IdentityQuat = Quat{W: 1}

// Equal reports exact (non-fuzzy) componentwise equality.
func (q Quat) Equal(o Quat) bool {
	return q.X == o.X && q.Y == o.Y && q.Z == o.Z && q.W == o.W
}

// Mul composes two rotations: applying the result is equivalent to applying
// o then q.
func (q Quat) Mul(o Quat) Quat {
	return Quat{
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
	}
}

// Normalized returns q scaled to unit length. The zero quaternion is
// returned unchanged to avoid a division by zero.
func (q Quat) Normalized() Quat {
	n := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if n == 0 {
		return q
	}
	return Quat{X: q.X / n, Y: q.Y / n, Z: q.Z / n, W: q.W / n}
}

// Transform is the pose of an entity: position, rotation, and scale. The
// zero value is not the identity transform; use IdentityTransform.
type Transform struct {
	Position Vec3
	Rotation Quat
	Scale    Vec3
}

// IdentityTransform is the default transform: zero translation, unit
// quaternion, unit scale.
var IdentityTransform = Transform{
	Position: ZeroVec3,
	Rotation: IdentityQuat,
	Scale:    OneVec3,
}

// Equal reports exact (non-fuzzy) equality of every field.
func (t Transform) Equal(o Transform) bool {
	return t.Position.Equal(o.Position) && t.Rotation.Equal(o.Rotation) && t.Scale.Equal(o.Scale)
}

// ComponentTag names a component kind attached to an entity.
type ComponentTag string

// ComponentPayload is an opaque, serializer-agnostic component blob. The
// v0.1 core never interprets the bytes; it only guarantees they round-trip.
type ComponentPayload []byte

// Data is the per-entity record stored in the world.
type Data struct {
	ID         ID
	Transform  Transform
	Components map[ComponentTag]ComponentPayload
}

// Clone returns a deep copy of d, suitable for snapshot capture.
func (d Data) Clone() Data {
	out := Data{ID: d.ID, Transform: d.Transform}
	if d.Components != nil {
		out.Components = make(map[ComponentTag]ComponentPayload, len(d.Components))
		for k, v := range d.Components {
			cp := make(ComponentPayload, len(v))
			copy(cp, v)
			out.Components[k] = cp
		}
	}
	return out
}
