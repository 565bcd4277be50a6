package camera

import (
	"testing"

	"github.com/Faultbox/showroom/internal/notify"
	"github.com/Faultbox/showroom/pkg/math"
)

type fakeSubject struct {
	box      math.AABB
	interior map[Interior]Fixed
	extras   []Fixed

	camerasChanged notify.Signal
	extrasChanged  notify.Signal
}

func newFakeSubject() *fakeSubject {
	return &fakeSubject{
		box: math.AABB{Min: math.Vec3{X: -1, Y: 0, Z: -2}, Max: math.Vec3{X: 1, Y: 1.4, Z: 2}},
		interior: map[Interior]Fixed{
			Driver:    LookAt(math.Vec3{X: 0.4, Y: 1.1, Z: 0.2}, math.Vec3{X: 0.4, Y: 1.1, Z: -5}, 1, 0.05, 100),
			Dashboard: LookAt(math.Vec3{Y: 1.0}, math.Vec3{Y: 1.0, Z: -5}, 1, 0.05, 100),
		},
		extras: []Fixed{
			LookAt(math.Vec3{X: 5, Y: 1, Z: 5}, math.Vec3{}, 0.8, 0.1, 100),
			LookAt(math.Vec3{X: -5, Y: 1, Z: 5}, math.Vec3{}, 0.8, 0.1, 100),
		},
	}
}

func (s *fakeSubject) BoundingBox() (math.AABB, bool) { return s.box, true }

func (s *fakeSubject) InteriorCamera(kind Interior) (Fixed, bool) {
	f, ok := s.interior[kind]
	return f, ok
}

func (s *fakeSubject) ExtraCameraCount() int { return len(s.extras) }

func (s *fakeSubject) ExtraCamera(index int) (Fixed, bool) {
	if index < 0 || index >= len(s.extras) {
		return Fixed{}, false
	}
	return s.extras[index], true
}

func (s *fakeSubject) OnCamerasChanged(fn func()) func() { return s.camerasChanged.Subscribe(fn) }

func (s *fakeSubject) OnExtraCamerasChanged(fn func()) func() { return s.extrasChanged.Subscribe(fn) }

func newTestController(s Subject) *Controller {
	opts := DefaultOptions()
	opts.AutoAdjustTarget = false
	c := NewController(opts)
	c.SetAspect(16.0 / 9.0)
	if s != nil {
		box, _ := s.BoundingBox()
		c.Init(DefaultOrbit(box, true))
	}
	c.SetSubject(s)
	return c
}

func TestDefaultOrbit(t *testing.T) {
	empty := DefaultOrbit(math.AABB{}, false)
	if empty.Radius != DefaultRadius || empty.Target != (math.Vec3{Y: -0.05}) {
		t.Errorf("empty scene orbit = %+v", empty)
	}

	box := math.AABB{Min: math.Vec3{X: -1, Y: 0, Z: -2}, Max: math.Vec3{X: 1, Y: 2, Z: 2}}
	o := DefaultOrbit(box, true)
	if got, want := o.Radius, box.Size().Length(); got != want {
		t.Errorf("radius = %v, want %v", got, want)
	}
	if !o.Target.ApproxEqual(math.Vec3{Y: 0.95}, 1e-6) {
		t.Errorf("target = %v", o.Target)
	}
	if o.Azimuth != 0.9 || o.Elevation != 0.1 {
		t.Errorf("angles = %v, %v", o.Azimuth, o.Elevation)
	}
}

func TestOrbitPosition(t *testing.T) {
	o := Orbit{Radius: 3, Target: math.Vec3{X: 1}}
	if got := o.Position(); !got.ApproxEqual(math.Vec3{X: 1, Z: 3}, 1e-6) {
		t.Errorf("Position() = %v", got)
	}
	if got := o.Right(); !got.ApproxEqual(math.Vec3{X: 1}, 1e-6) {
		t.Errorf("Right() = %v", got)
	}
}

func TestOrbitRoundTripThroughInterior(t *testing.T) {
	s := newFakeSubject()
	c := newTestController(s)
	c.SetOrbit(Orbit{Azimuth: 1.234, Elevation: 0.321, Radius: 6.5, Target: math.Vec3{X: 0.1, Y: 0.5}, FovY: 0.7, Near: 0.1, Far: 300})
	before := c.Orbit()

	c.SetMode(Driver)
	if c.IsOrbiting() {
		t.Fatal("driver camera should be active")
	}
	if got := c.Camera().Position(); got != s.interior[Driver].Eye {
		t.Errorf("camera position = %v, want driver eye", got)
	}
	for i := 0; i < 30; i++ {
		c.Tick(1.0 / 60)
	}

	c.SetMode(None)
	if !c.IsOrbiting() {
		t.Fatal("orbit should be active again")
	}
	if got := c.Orbit(); got != before {
		t.Errorf("orbit after round trip = %+v, want %+v", got, before)
	}
}

func TestMissingInteriorFallsBackToOrbit(t *testing.T) {
	c := newTestController(newFakeSubject())
	c.SetMode(Bonnet)
	if !c.IsOrbiting() {
		t.Error("bonnet camera is absent, orbit expected")
	}
	if c.Mode() != Bonnet {
		t.Errorf("Mode() = %v, selection should be kept", c.Mode())
	}
}

func TestNextCameraCycle(t *testing.T) {
	c := newTestController(newFakeSubject())
	want := []Interior{Driver, Dashboard, Bonnet, Bumper, None, Driver}
	for i, w := range want {
		c.NextCamera()
		if c.Mode() != w {
			t.Fatalf("step %d: Mode() = %v, want %v", i, c.Mode(), w)
		}
	}
}

func TestExtraCameras(t *testing.T) {
	s := newFakeSubject()
	c := newTestController(s)

	c.SetMode(Driver)
	c.NextExtraCamera()
	if c.ExtraCamera() != 0 || c.Mode() != None {
		t.Fatalf("extra = %d, mode = %v; selectors must be exclusive", c.ExtraCamera(), c.Mode())
	}
	if got := c.Camera().Position(); got != s.extras[0].Eye {
		t.Errorf("camera position = %v, want extra 0", got)
	}

	c.NextExtraCamera()
	c.NextExtraCamera()
	if c.ExtraCamera() != 0 {
		t.Errorf("extra camera should wrap to 0, got %d", c.ExtraCamera())
	}

	c.SetMode(Dashboard)
	if c.ExtraCamera() != NoExtra {
		t.Errorf("selecting an interior camera must clear the extra one")
	}

	s.extras = nil
	c.NextExtraCamera()
	if c.ExtraCamera() != NoExtra || !c.IsOrbiting() {
		t.Errorf("zero extra cameras: extra = %d, orbiting = %v", c.ExtraCamera(), c.IsOrbiting())
	}
}

func TestCamerasChangedReselects(t *testing.T) {
	s := newFakeSubject()
	c := newTestController(s)
	c.SetMode(Driver)

	moved := LookAt(math.Vec3{X: -0.4, Y: 1.1}, math.Vec3{X: -0.4, Y: 1.1, Z: -5}, 1, 0.05, 100)
	s.interior[Driver] = moved
	s.camerasChanged.Fire()
	if got := c.Camera().Position(); got != moved.Eye {
		t.Errorf("camera position = %v, want %v", got, moved.Eye)
	}

	delete(s.interior, Driver)
	s.camerasChanged.Fire()
	if !c.IsOrbiting() {
		t.Error("removed driver camera should fall back to orbit")
	}
}

func TestSetSubjectUnsubscribesPrevious(t *testing.T) {
	first := newFakeSubject()
	c := newTestController(first)
	c.SetSubject(newFakeSubject())

	if first.camerasChanged.Len() != 0 || first.extrasChanged.Len() != 0 {
		t.Error("previous subject still has listeners")
	}
}

func TestResetConverges(t *testing.T) {
	c := newTestController(newFakeSubject())
	snap := c.Snapshot()
	c.SetAutoRotate(false)
	c.SetOrbit(Orbit{
		Azimuth:   snap.Azimuth + 2,
		Elevation: snap.Elevation + 0.5,
		Radius:    snap.Radius * 3,
		Target:    snap.Target,
		FovY:      snap.FovY * 2,
		Near:      snap.Near,
		Far:       snap.Far,
	})
	start := c.Orbit()

	c.SetMode(Driver)
	c.Reset()
	if !c.IsOrbiting() || c.Mode() != None {
		t.Fatal("reset must return to the orbit")
	}
	if !c.AutoRotate() {
		t.Fatal("reset must enable auto-rotation")
	}

	const maxTicks = 200
	settled := -1
	for i := 0; i < maxTicks; i++ {
		c.Tick(1.0 / 60)
		if !c.AutoRotate() {
			settled = i
			break
		}
		if !c.Resetting() {
			t.Fatalf("tick %d: reset finished but auto-rotation still on", i)
		}
	}
	if settled < 0 {
		t.Fatalf("reset did not settle within %d ticks", maxTicks)
	}

	got := c.Orbit()
	checks := []struct {
		name           string
		got, want, was float32
	}{
		{"azimuth", got.Azimuth, snap.Azimuth, start.Azimuth},
		{"elevation", got.Elevation, snap.Elevation, start.Elevation},
		{"radius", got.Radius, snap.Radius, start.Radius},
		{"fov", got.FovY, snap.FovY, start.FovY},
	}
	for _, ch := range checks {
		if diff := math.Abs(ch.got - ch.want); diff > 0.002*math.Abs(ch.was-ch.want) {
			t.Errorf("%s = %v, want %v (settled after %d ticks)", ch.name, ch.got, ch.want, settled)
		}
	}

	// Settled: further ticks leave the orbit alone.
	after := c.Orbit()
	c.Tick(1.0 / 60)
	if c.Orbit() != after {
		t.Error("orbit moved after reset settled")
	}
}

func TestResetAbortedByAutoRotateOff(t *testing.T) {
	c := newTestController(newFakeSubject())
	c.SetOrbit(Orbit{Azimuth: 3, Elevation: 0.4, Radius: 20, FovY: 1, Near: 0.1, Far: 100})
	c.Reset()
	for i := 0; i < 5; i++ {
		c.Tick(1.0 / 60)
	}

	c.SetAutoRotate(false)
	before := c.Orbit()
	c.Tick(1.0 / 60)
	if c.Resetting() {
		t.Error("reset should be aborted")
	}
	if c.Orbit() != before {
		t.Error("aborted reset must not move the orbit")
	}
}

func TestAutoRotate(t *testing.T) {
	c := newTestController(newFakeSubject())
	az := c.Orbit().Azimuth
	if !c.Tick(0.5) {
		t.Error("auto-rotation should report a redraw")
	}
	if got, want := c.Orbit().Azimuth, az-0.5*rotateSpeed; math.Abs(got-want) > 1e-6 {
		t.Errorf("azimuth = %v, want %v", got, want)
	}

	c.SetAutoRotate(false)
	if c.Tick(0.5) {
		t.Error("idle controller should not report a redraw")
	}
}

func TestChangeFovRoundTrip(t *testing.T) {
	c := newTestController(newFakeSubject())
	c.SetAutoRotate(false)
	theta1 := c.Orbit().FovY
	r1 := c.Orbit().Radius

	theta2 := math.DegToRad(60)
	c.ChangeFov(theta2)
	want := r1 * math.Tan(theta1/2) / math.Tan(theta2/2)
	if got := c.Orbit().Radius; math.Abs(got-want) > 1e-4*want {
		t.Errorf("radius at %v = %v, want %v", theta2, got, want)
	}

	c.ChangeFov(theta1)
	if got := c.Orbit().Radius; math.Abs(got-r1) > 1e-4*r1 {
		t.Errorf("radius after round trip = %v, want %v", got, r1)
	}
}

func TestChangeFovClamps(t *testing.T) {
	c := newTestController(newFakeSubject())
	var got []any
	c.Changes.Subscribe(func(ch notify.Change) {
		if ch.Field == FieldFov {
			got = append(got, ch.Value)
		}
	})

	c.ChangeFov(10)
	_, hi := c.FovRange()
	if c.Orbit().FovY != hi {
		t.Errorf("FovY = %v, want clamp %v", c.Orbit().FovY, hi)
	}
	c.ChangeFov(0)
	lo, _ := c.FovRange()
	if c.Orbit().FovY != lo {
		t.Errorf("FovY = %v, want clamp %v", c.Orbit().FovY, lo)
	}
	if len(got) != 2 || got[0] != hi || got[1] != lo {
		t.Errorf("fov notifications = %v", got)
	}
}

func TestChangeFovIgnoredOnFixedCamera(t *testing.T) {
	c := newTestController(newFakeSubject())
	before := c.Orbit()
	c.SetMode(Driver)
	c.ChangeFov(1.2)
	if c.Orbit() != before {
		t.Error("fov change must not touch the orbit while a fixed camera is active")
	}
}

func TestAlignmentInsideBoxIsZero(t *testing.T) {
	s := newFakeSubject()
	c := newTestController(s)
	c.SetOrbit(Orbit{Azimuth: 0.3, Elevation: 0.1, Radius: 0.5, Target: s.box.Center(), FovY: 1, Near: 0.01, Far: 100})

	if !s.box.Contains(c.Orbit().Position()) {
		t.Fatal("test camera should be inside the box")
	}
	if got := c.AlignmentOffset(c.Orbit(), false); got != (math.Vec3{}) {
		t.Errorf("offset = %v, want exactly zero", got)
	}
}

func TestAlignmentConvergesToBoxCenter(t *testing.T) {
	s := newFakeSubject()
	opts := DefaultOptions()
	opts.AutoRotate = false
	c := NewController(opts)
	c.SetAspect(16.0 / 9.0)
	c.SetSubject(s)
	c.SetOrbit(Orbit{Azimuth: 0.9, Elevation: 0.2, Radius: 10, Target: math.Vec3{X: 3, Y: 2, Z: -1}, FovY: 0.6, Near: 0.1, Far: 200})

	if got := c.AlignmentOffset(c.Orbit(), true); got.Length() == 0 {
		t.Fatal("offset should be non-zero for an off-center box")
	}

	for i := 0; i < 120; i++ {
		c.Tick(1.0 / 60)
	}
	// Alignment only shifts across the view direction, so the box center
	// ends up on the line of sight through the target.
	o := c.Orbit()
	d := o.Position().Sub(o.Target).Normalize()
	toCenter := s.box.Center().Sub(o.Target)
	perp := toCenter.Sub(d.Scale(toCenter.Dot(d)))
	if perp.Length() > 0.2 {
		t.Errorf("box center is %v off the line of sight (target %v)", perp.Length(), o.Target)
	}
}

func TestModeNotifications(t *testing.T) {
	c := newTestController(newFakeSubject())
	var fields []string
	c.Changes.Subscribe(func(ch notify.Change) { fields = append(fields, ch.Field) })

	c.SetMode(Driver)
	c.SetMode(Driver)
	c.SetExtraCamera(1)

	want := []string{FieldMode, FieldExtraCamera, FieldExtraCamera, FieldMode}
	if len(fields) != len(want) {
		t.Fatalf("fields = %v, want %v", fields, want)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("fields[%d] = %q, want %q", i, fields[i], want[i])
		}
	}
}

func TestSetCameraAligned(t *testing.T) {
	s := newFakeSubject()
	c := newTestController(s)
	from := math.Vec3{X: 8, Y: 1, Z: 8}
	to := math.Vec3{X: 2, Y: 0.5}

	c.SetCamera(from, to, 0.8, true)
	if c.IsOrbiting() {
		t.Fatal("SetCamera should activate a fixed camera")
	}
	f := c.Camera().(Fixed)
	if f.Eye.Y != from.Y {
		t.Errorf("alignment must stay horizontal, eye = %v", f.Eye)
	}
	if f.Eye == from {
		t.Error("off-center target should shift the camera")
	}
}

func TestPrepareHook(t *testing.T) {
	opts := DefaultOptions()
	opts.Prepare = func(cam Camera) Camera {
		if f, ok := cam.(Fixed); ok {
			f.Near = 0.01
			return f
		}
		return cam
	}
	c := NewController(opts)
	c.SetSubject(newFakeSubject())
	c.SetMode(Driver)
	if got := c.Camera().(Fixed).Near; got != 0.01 {
		t.Errorf("prepared near = %v, want 0.01", got)
	}
}

func TestInteriorNames(t *testing.T) {
	for k := None; k < interiorCount; k++ {
		got, ok := ParseInterior(k.String())
		if !ok || got != k {
			t.Errorf("ParseInterior(%q) = %v, %v", k.String(), got, ok)
		}
	}
	if _, ok := ParseInterior("roof"); ok {
		t.Error("unknown name parsed")
	}
}
