package math

import (
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	// Diagonal should be 1
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	// Off-diagonal should be 0
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	result := m.Mul(Identity())

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestTransformCoordinate(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
		p    Vec3
		want Vec3
	}{
		{"translate", Translate(10, 20, 30), Vec3{1, 2, 3}, Vec3{11, 22, 33}},
		{"scale", Scale(2, 2, 2), Vec3{1, 2, 3}, Vec3{2, 4, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.TransformCoordinate(tt.p); got != tt.want {
				t.Errorf("TransformCoordinate: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransformNormalIgnoresTranslation(t *testing.T) {
	got := Translate(5, 5, 5).TransformNormal(Vec3{0, 1, 0})
	if got != (Vec3{0, 1, 0}) {
		t.Errorf("TransformNormal: got %v, want (0, 1, 0)", got)
	}
}

func TestPerspective(t *testing.T) {
	m := Perspective(Pi/4, 1, 0.1, 100)

	// Element [15] should be 0 for perspective projection
	if m[15] != 0 {
		t.Errorf("Perspective [15] should be 0, got %f", m[15])
	}
	// Element [11] should be -1 for perspective projection
	if m[11] != -1 {
		t.Errorf("Perspective [11] should be -1, got %f", m[11])
	}

	// A point on the near plane maps to clip z = -1
	near := m.TransformCoordinate(Vec3{0, 0, -0.1})
	if Abs(near.Z+1) > 1e-4 {
		t.Errorf("near plane z: got %f, want -1", near.Z)
	}
}

func TestLookAtMapsEyeToOrigin(t *testing.T) {
	eye := Vec3{3, 2, 5}
	m := LookAt(eye, Vec3{}, UnitY)

	got := m.TransformCoordinate(eye)
	if !got.ApproxEqual(Vec3{}, 1e-5) {
		t.Errorf("LookAt(eye) = %v, want origin", got)
	}

	// Target lies straight ahead on -Z
	target := m.TransformCoordinate(Vec3{})
	if Abs(target.X) > 1e-5 || Abs(target.Y) > 1e-5 || target.Z >= 0 {
		t.Errorf("LookAt(target) = %v, want on negative Z axis", target)
	}
}

func TestInverse(t *testing.T) {
	view := LookAt(Vec3{4, 3, 6}, Vec3{0, 0.5, 0}, UnitY)
	viewProj := Perspective(0.6, 1.5, 0.1, 100).Mul(view)

	product := viewProj.Mul(viewProj.Inverse())
	id := Identity()
	for i := range product {
		if Abs(product[i]-id[i]) > 1e-4 {
			t.Fatalf("M * M^-1 element %d = %f, want %f", i, product[i], id[i])
		}
	}
}

func TestInverseSingular(t *testing.T) {
	var zero Mat4
	if zero.Inverse() != Identity() {
		t.Error("singular matrix should invert to identity")
	}
}

func TestRotations(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
		p    Vec3
		want Vec3
	}{
		{"y quarter turn", RotateY(Pi / 2), Vec3{1, 0, 0}, Vec3{0, 0, -1}},
		{"z quarter turn", RotateZ(Pi / 2), Vec3{1, 0, 0}, Vec3{0, 1, 0}},
		{"about pivot", RotateY(Pi).About(Vec3{1, 0, 0}), Vec3{2, 0, 0}, Vec3{0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.TransformCoordinate(tt.p); !got.ApproxEqual(tt.want, 1e-5) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
