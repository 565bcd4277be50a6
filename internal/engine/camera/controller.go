package camera

import (
	"github.com/Faultbox/showroom/internal/notify"
	"github.com/Faultbox/showroom/pkg/math"
)

// Property names emitted on Controller.Changes.
const (
	FieldMode        = "camera_mode"
	FieldExtraCamera = "extra_camera"
	FieldAutoRotate  = "auto_rotate"
	FieldFov         = "fov"
)

// NoExtra is the extra camera index when none is selected.
const NoExtra = -1

const (
	resetThreshold = 0.001
	resetDecay     = 10
	alignDecay     = 3
	alignLimit     = 15

	rotateSpeed       = 0.29
	elevationPeriod   = 0.39
	elevationSwing    = 0.2
	elevationBaseline = 0.15
)

// Subject is the active model as seen by the camera controller.
type Subject interface {
	BoundingBox() (math.AABB, bool)
	InteriorCamera(kind Interior) (Fixed, bool)
	ExtraCameraCount() int
	ExtraCamera(index int) (Fixed, bool)
	OnCamerasChanged(fn func()) (cancel func())
	OnExtraCamerasChanged(fn func()) (cancel func())
}

// Options configures a Controller.
type Options struct {
	MinFov           float32 // radians
	MaxFov           float32 // radians
	AutoRotate       bool
	AutoAdjustTarget bool
	// Prepare adjusts every camera before it becomes active.
	Prepare func(Camera) Camera
}

// DefaultOptions returns the showroom defaults.
func DefaultOptions() Options {
	return Options{
		MinFov:           math.Pi * 0.01,
		MaxFov:           math.Pi * 0.8,
		AutoRotate:       true,
		AutoAdjustTarget: true,
	}
}

// Controller owns the active camera. Exactly one of the orbit and a fixed
// camera is active; the orbit is kept untouched while a fixed one is in use.
// All methods must be called from the owning goroutine.
type Controller struct {
	Changes notify.Notifier

	orbit    Orbit
	snapshot Orbit
	fixed    *Fixed

	mode  Interior
	extra int

	subject     Subject
	unsubscribe []func()

	autoRotate bool
	autoAdjust bool
	minFov     float32
	maxFov     float32
	aspect     float32
	prepare    func(Camera) Camera

	resetState float32
	elapsed    float32
	dirty      bool
}

// NewController returns a controller orbiting the default framing of an empty scene.
func NewController(opts Options) *Controller {
	if opts.MinFov <= 0 {
		opts.MinFov = math.Pi * 0.01
	}
	if opts.MaxFov <= opts.MinFov {
		opts.MaxFov = math.Pi * 0.8
	}
	c := &Controller{
		extra:      NoExtra,
		autoRotate: opts.AutoRotate,
		autoAdjust: opts.AutoAdjustTarget,
		minFov:     opts.MinFov,
		maxFov:     opts.MaxFov,
		aspect:     1,
		prepare:    opts.Prepare,
	}
	c.Init(DefaultOrbit(math.AABB{}, false))
	return c
}

// Init installs o as the orbit and as the snapshot Reset returns to.
func (c *Controller) Init(o Orbit) {
	c.orbit = c.prepareOrbit(o)
	c.snapshot = c.orbit
	c.dirty = true
}

// Snapshot returns the orbit Reset converges to.
func (c *Controller) Snapshot() Orbit {
	return c.snapshot
}

// Camera returns the camera to render with.
func (c *Controller) Camera() Camera {
	if c.fixed != nil {
		return *c.fixed
	}
	return c.orbit
}

// Orbit returns the orbit parameters, also while a fixed camera is active.
func (c *Controller) Orbit() Orbit {
	return c.orbit
}

// IsOrbiting reports whether the orbit camera is active.
func (c *Controller) IsOrbiting() bool {
	return c.fixed == nil
}

// SetOrbit replaces the orbit parameters without touching the snapshot.
func (c *Controller) SetOrbit(o Orbit) {
	c.orbit = o
	c.dirty = true
}

// Aspect returns the viewport aspect ratio.
func (c *Controller) Aspect() float32 {
	return c.aspect
}

// SetAspect updates the viewport aspect ratio.
func (c *Controller) SetAspect(aspect float32) {
	if aspect <= 0 || aspect == c.aspect {
		return
	}
	c.aspect = aspect
	c.dirty = true
}

// ViewProj returns the active camera's view-projection matrix.
func (c *Controller) ViewProj() math.Mat4 {
	return ViewProj(c.Camera(), c.aspect)
}

// SetSubject follows a newly activated model and re-selects the current
// fixed camera from it. A nil subject leaves only the orbit available.
func (c *Controller) SetSubject(s Subject) {
	for _, cancel := range c.unsubscribe {
		cancel()
	}
	c.unsubscribe = nil
	c.subject = s

	if s != nil {
		c.unsubscribe = append(c.unsubscribe,
			s.OnCamerasChanged(c.onCamerasChanged),
			s.OnExtraCamerasChanged(c.onExtraCamerasChanged))
	}
	c.reselect()
}

func (c *Controller) onCamerasChanged() {
	if c.mode != None {
		c.switchInterior(c.mode)
	}
}

func (c *Controller) onExtraCamerasChanged() {
	if c.extra != NoExtra {
		c.switchExtra(c.extra)
	}
}

func (c *Controller) reselect() {
	switch {
	case c.mode != None:
		c.switchInterior(c.mode)
	case c.extra != NoExtra:
		c.switchExtra(c.extra)
	}
}

// Mode returns the selected interior camera kind.
func (c *Controller) Mode() Interior {
	return c.mode
}

// SetMode selects an interior camera and clears the extra selection.
// A kind the model does not provide falls back to the orbit.
func (c *Controller) SetMode(kind Interior) {
	if kind == c.mode {
		return
	}
	c.mode = kind
	c.extra = NoExtra
	c.Changes.Emit(FieldMode, kind)
	c.Changes.Emit(FieldExtraCamera, NoExtra)
	c.switchInterior(kind)
}

// NextCamera cycles None, Driver, Dashboard, Bonnet, Bumper.
func (c *Controller) NextCamera() {
	c.SetMode(c.mode.Next())
}

// ExtraCamera returns the selected scene camera index or NoExtra.
func (c *Controller) ExtraCamera() int {
	return c.extra
}

// SetExtraCamera selects a scene camera and clears the interior selection.
func (c *Controller) SetExtraCamera(index int) {
	if index < 0 {
		index = NoExtra
	}
	if index == c.extra {
		return
	}
	c.extra = index
	c.mode = None
	c.Changes.Emit(FieldExtraCamera, index)
	c.Changes.Emit(FieldMode, None)
	c.switchExtra(index)
}

// NextExtraCamera advances through the model's scene cameras.
func (c *Controller) NextExtraCamera() {
	count := 0
	if c.subject != nil {
		count = c.subject.ExtraCameraCount()
	}
	switch {
	case count == 0:
		c.SetExtraCamera(NoExtra)
	case c.extra == NoExtra:
		c.SetExtraCamera(0)
	default:
		c.SetExtraCamera((c.extra + 1) % count)
	}
}

func (c *Controller) switchInterior(kind Interior) {
	if kind == None || c.subject == nil {
		c.useOrbit()
		return
	}
	f, ok := c.subject.InteriorCamera(kind)
	if !ok {
		c.useOrbit()
		return
	}
	c.useFixed(f)
}

func (c *Controller) switchExtra(index int) {
	if index == NoExtra || c.subject == nil {
		c.useOrbit()
		return
	}
	f, ok := c.subject.ExtraCamera(index)
	if !ok {
		c.useOrbit()
		return
	}
	c.useFixed(f)
}

func (c *Controller) useOrbit() {
	c.fixed = nil
	c.dirty = true
}

func (c *Controller) useFixed(f Fixed) {
	if c.prepare != nil {
		if prepared, ok := c.prepare(f).(Fixed); ok {
			f = prepared
		}
	}
	c.fixed = &f
	c.dirty = true
}

func (c *Controller) prepareOrbit(o Orbit) Orbit {
	if c.prepare != nil {
		if prepared, ok := c.prepare(o).(Orbit); ok {
			return prepared
		}
	}
	return o
}

// SetCamera activates a free fixed camera. With alignCurrentCar the camera
// is shifted horizontally so the model's box is centered on screen.
func (c *Controller) SetCamera(from, to math.Vec3, fovY float32, alignCurrentCar bool) {
	f := LookAt(from, to, fovY, c.orbit.Near, c.orbit.Far)
	if alignCurrentCar {
		offset := c.alignmentOffset(f, false)
		offset.Y = 0
		f = LookAt(from.Add(offset), to.Add(offset), fovY, c.orbit.Near, c.orbit.Far)
	}
	c.useFixed(f)
}

// AutoRotate reports whether the orbit spins on its own.
func (c *Controller) AutoRotate() bool {
	return c.autoRotate
}

// SetAutoRotate turns the idle orbit rotation on or off.
func (c *Controller) SetAutoRotate(v bool) {
	if v == c.autoRotate {
		return
	}
	c.autoRotate = v
	c.Changes.Emit(FieldAutoRotate, v)
}

// AutoAdjustTarget reports whether the target follows the model's box.
func (c *Controller) AutoAdjustTarget() bool {
	return c.autoAdjust
}

// SetAutoAdjustTarget turns automatic target alignment on or off.
func (c *Controller) SetAutoAdjustTarget(v bool) {
	c.autoAdjust = v
}

// FovRange returns the allowed field of view in radians.
func (c *Controller) FovRange() (lo, hi float32) {
	return c.minFov, c.maxFov
}

// Reset returns to the orbit and eases it back to the snapshot over the
// following ticks, with auto-rotation on until it settles.
func (c *Controller) Reset() {
	if c.mode != None {
		c.mode = None
		c.Changes.Emit(FieldMode, None)
	}
	if c.extra != NoExtra {
		c.extra = NoExtra
		c.Changes.Emit(FieldExtraCamera, NoExtra)
	}
	c.useOrbit()
	c.SetAutoRotate(true)
	c.resetState = 1
}

// Resetting reports whether a reset is still easing.
func (c *Controller) Resetting() bool {
	return c.resetState > resetThreshold
}

// Rotate applies a mouse drag to the orbit. Manual control stops auto-rotation.
func (c *Controller) Rotate(deltaX, deltaY, sensitivity float32) {
	if c.fixed != nil {
		return
	}
	c.SetAutoRotate(false)
	c.orbit = c.orbit.Rotate(deltaX, deltaY, sensitivity)
	c.dirty = true
}

// Zoom applies a scroll delta to the orbit radius.
func (c *Controller) Zoom(delta, sensitivity float32) {
	if c.fixed != nil {
		return
	}
	c.orbit = c.orbit.Zoom(delta, sensitivity)
	c.dirty = true
}

// ChangeFov sets the orbit field of view, rescaling the radius so the model
// keeps its on-screen size. Ignored while a fixed camera is active.
func (c *Controller) ChangeFov(fovY float32) {
	if c.fixed != nil {
		return
	}
	offset := c.screenOffset(c.orbit)
	c.orbit.FovY = math.Clamp(fovY, c.minFov, c.maxFov)
	if newOffset := c.screenOffset(c.orbit); offset > 0 && newOffset > 0 {
		c.orbit.Radius *= newOffset / offset
	}
	if c.autoAdjust {
		c.orbit.Target = c.AlignedTarget()
	}
	c.dirty = true
	c.Changes.Emit(FieldFov, c.orbit.FovY)
}

// screenOffset projects a point one hundredth of the radius right of the
// target and returns its horizontal NDC distance.
func (c *Controller) screenOffset(o Orbit) float32 {
	p := o.Target.Add(o.Right().Scale(o.Radius * 0.01))
	return math.Abs(ViewProj(o, c.aspect).TransformCoordinate(p).X)
}

// AlignedTarget returns the orbit target that centers the model's box.
func (c *Controller) AlignedTarget() math.Vec3 {
	return c.orbit.Target.Add(c.alignmentOffset(c.orbit, true))
}

// AlignmentOffset returns the world-space shift that centers the model's
// box on screen for cam. It is zero without a model, when the camera is
// inside the box, and in limited mode when any corner projects too far out.
func (c *Controller) AlignmentOffset(cam Camera, limited bool) math.Vec3 {
	return c.alignmentOffset(cam, limited)
}

func (c *Controller) alignmentOffset(cam Camera, limited bool) math.Vec3 {
	if c.subject == nil {
		return math.Vec3{}
	}
	box, ok := c.subject.BoundingBox()
	if !ok || box.IsEmpty() || box.Contains(cam.Position()) {
		return math.Vec3{}
	}

	viewProj := ViewProj(cam, c.aspect)
	corners := box.Corners()
	var center math.Vec3
	for _, corner := range corners {
		p := viewProj.TransformCoordinate(corner)
		if limited && (math.Vec3{X: p.X, Y: p.Y}).Length() > alignLimit {
			return math.Vec3{}
		}
		center = center.Add(p.Scale(1 / float32(len(corners))))
	}

	inv := viewProj.Inverse()
	return inv.TransformCoordinate(center).Sub(inv.TransformCoordinate(math.Vec3{Z: center.Z}))
}

// Tick advances reset easing, auto-rotation and target alignment by dt
// seconds. It reports whether the view changed since the previous Tick.
func (c *Controller) Tick(dt float32) bool {
	c.tick(dt)
	dirty := c.dirty
	c.dirty = false
	return dirty
}

func (c *Controller) tick(dt float32) {
	orbiting := c.fixed == nil

	if c.resetState > resetThreshold {
		if !c.autoRotate {
			c.resetState = 0
			return
		}

		c.resetState -= c.resetState / resetDecay
		if c.resetState <= resetThreshold {
			c.SetAutoRotate(false)
		}

		if orbiting {
			s := c.snapshot
			c.orbit.Azimuth += (s.Azimuth - c.orbit.Azimuth) / resetDecay
			c.orbit.Elevation += (s.Elevation - c.orbit.Elevation) / resetDecay
			c.orbit.Radius += (s.Radius - c.orbit.Radius) / resetDecay
			c.orbit.FovY += (s.FovY - c.orbit.FovY) / resetDecay
			if !c.autoAdjust {
				c.orbit.Target = c.orbit.Target.Add(s.Target.Sub(c.orbit.Target).Scale(1.0 / resetDecay))
			}
		}

		c.elapsed = 0
		c.dirty = true
	} else if c.autoRotate && orbiting {
		c.orbit.Azimuth -= dt * rotateSpeed
		goal := math.Sin(c.elapsed*elevationPeriod)*elevationSwing + elevationBaseline
		c.orbit.Elevation += (goal - c.orbit.Elevation) / resetDecay
		c.elapsed += dt
		c.dirty = true
	}

	if c.autoAdjust && orbiting {
		t := c.AlignedTarget()
		if t != c.orbit.Target {
			c.orbit.Target = c.orbit.Target.Add(t.Sub(c.orbit.Target).Scale(1.0 / alignDecay))
			c.dirty = true
		}
	}
}

// MarkDirty forces the next Tick to report a change.
func (c *Controller) MarkDirty() {
	c.dirty = true
}
