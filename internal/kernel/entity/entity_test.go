package entity

import "testing"

func TestNewID_NeverNil(t *testing.T) {
	for i := 0; i < 100; i++ {
		if NewID().IsNil() {
			t.Fatalf("NewID() produced the nil id")
		}
	}
}

func TestParseID_RoundTrips(t *testing.T) {
	id := NewID()
	parsed, err := ParseID(id.String())
	if err != nil {
		t.Fatalf("ParseID: %v", err)
	}
	if parsed != id {
		t.Fatalf("ParseID(String()) = %v, want %v", parsed, id)
	}
}

func TestQuat_MulIdentity(t *testing.T) {
	q := Quat{X: 0.1, Y: 0.2, Z: 0.3, W: 0.9}.Normalized()
	if got := q.Mul(IdentityQuat); !got.Equal(q) {
		t.Fatalf("q * identity = %+v, want %+v", got, q)
	}
}

func TestQuat_Normalized_ZeroUnchanged(t *testing.T) {
	var zero Quat
	if got := zero.Normalized(); !got.Equal(zero) {
		t.Fatalf("Normalized() of zero quat = %+v, want zero", got)
	}
}

func TestData_Clone_IsDeepCopy(t *testing.T) {
	d := Data{
		ID:        NewID(),
		Transform: IdentityTransform,
		Components: map[ComponentTag]ComponentPayload{
			"tag": {1, 2, 3},
		},
	}
	clone := d.Clone()
	clone.Components["tag"][0] = 99

	if d.Components["tag"][0] != 1 {
		t.Fatalf("mutating clone leaked into original: got %d, want 1", d.Components["tag"][0])
	}
}

func TestTransform_Equal(t *testing.T) {
	a := IdentityTransform
	b := IdentityTransform
	b.Position.X = 1

	if !a.Equal(IdentityTransform) {
		t.Fatalf("IdentityTransform should equal itself")
	}
	if a.Equal(b) {
		t.Fatalf("transforms with different positions should not be equal")
	}
}
