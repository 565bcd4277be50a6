package reflection

import (
	"errors"
	"testing"

	"github.com/Faultbox/showroom/internal/engine/gpu/gputest"
	"github.com/Faultbox/showroom/internal/engine/scene"
	"github.com/Faultbox/showroom/pkg/math"
)

func TestUpdateThreshold(t *testing.T) {
	c, err := New(gputest.New(), 0, 1)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		center math.Vec3
		want   bool
	}{
		{math.Vec3{}, true},        // first capture
		{math.Vec3{X: 0.5}, false}, // within threshold
		{math.Vec3{X: 0.9}, false}, // still measured from the capture point
		{math.Vec3{X: 1.5}, true},  // moved past it
		{math.Vec3{X: 1.5}, false}, // settled
		{math.Vec3{Y: -10}, true},  // jump
	}
	for i, tt := range tests {
		if got := c.Update(tt.center); got != tt.want {
			t.Errorf("step %d: Update(%v) = %v, want %v", i, tt.center, got, tt.want)
		}
	}
	if c.Center() != (math.Vec3{Y: -10}) {
		t.Errorf("Center() = %v", c.Center())
	}
}

func TestDrawSceneRendersSixFaces(t *testing.T) {
	dev := gputest.New()
	c, err := New(dev, 128, 0)
	if err != nil {
		t.Fatal(err)
	}
	c.Update(math.Vec3{Y: 1})

	var passes []scene.Pass
	if err := c.DrawScene(func(p scene.Pass) error {
		passes = append(passes, p)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if len(passes) != 6 || dev.Cubemaps[0].Faces != 6 {
		t.Fatalf("passes = %d, faces = %d", len(passes), dev.Cubemaps[0].Faces)
	}
	for i, p := range passes {
		if p.Mode != scene.Reflection || p.Eye != (math.Vec3{Y: 1}) {
			t.Errorf("pass %d = %+v", i, p)
		}
	}
	if c.Draws() != 1 {
		t.Errorf("Draws() = %d", c.Draws())
	}
}

func TestFaceViewProjLooksAlongAxis(t *testing.T) {
	center := math.Vec3{X: 3, Y: 1, Z: -2}
	for face, f := range faces {
		p := FaceViewProj(center, face).TransformCoordinate(center.Add(f.look.Scale(10)))
		if math.Abs(p.X) > 1e-4 || math.Abs(p.Y) > 1e-4 || p.Z < -1 || p.Z > 1 {
			t.Errorf("face %d: point ahead projects to %v", face, p)
		}
	}
}

func TestDrawSceneStopsOnError(t *testing.T) {
	dev := gputest.New()
	c, err := New(dev, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	boom := errors.New("boom")
	calls := 0
	err = c.DrawScene(func(scene.Pass) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) || calls != 1 {
		t.Errorf("err = %v after %d calls", err, calls)
	}

	c.Release()
	if dev.Live() != 0 {
		t.Error("target not released")
	}
}
