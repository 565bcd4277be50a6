// Package camera provides the orbiting and fixed showroom cameras and the
// controller that switches between them.
package camera

import (
	"github.com/Faultbox/showroom/pkg/math"
)

// Camera is anything the renderer can look through.
type Camera interface {
	Position() math.Vec3
	View() math.Mat4
	Projection(aspect float32) math.Mat4
	FieldOfView() float32
}

// ViewProj returns projection * view for the given aspect ratio.
func ViewProj(c Camera, aspect float32) math.Mat4 {
	return c.Projection(aspect).Mul(c.View())
}

// Orbit circles a target point. It is a plain value: copies never share state.
type Orbit struct {
	Azimuth   float32 // radians around Y, 0 looks from +Z
	Elevation float32 // radians above the horizon
	Radius    float32
	Target    math.Vec3

	FovY float32
	Near float32
	Far  float32
}

// Default orbit lens settings.
const (
	DefaultFovDegrees = 32
	DefaultNear       = 0.1
	DefaultFar        = 500
	DefaultRadius     = 4.8
)

// DefaultOrbit frames box the way the showroom opens: slightly from the front
// left and above, far enough to fit the whole box diagonal.
func DefaultOrbit(box math.AABB, ok bool) Orbit {
	o := Orbit{
		Azimuth:   0.9,
		Elevation: 0.1,
		Radius:    DefaultRadius,
		Target:    math.Vec3{Y: -0.05},
		FovY:      math.DegToRad(DefaultFovDegrees),
		Near:      DefaultNear,
		Far:       DefaultFar,
	}
	if ok && !box.IsEmpty() {
		o.Radius = box.Size().Length()
		o.Target = box.Center().Sub(math.Vec3{Y: 0.05})
	}
	return o
}

// Position returns the camera position in world space.
func (o Orbit) Position() math.Vec3 {
	cosEl := math.Cos(o.Elevation)
	return math.Vec3{
		X: o.Target.X + o.Radius*cosEl*math.Sin(o.Azimuth),
		Y: o.Target.Y + o.Radius*math.Sin(o.Elevation),
		Z: o.Target.Z + o.Radius*cosEl*math.Cos(o.Azimuth),
	}
}

func (o Orbit) View() math.Mat4 {
	return math.LookAt(o.Position(), o.Target, math.UnitY)
}

func (o Orbit) Projection(aspect float32) math.Mat4 {
	return math.Perspective(o.FovY, aspect, o.Near, o.Far)
}

func (o Orbit) FieldOfView() float32 {
	return o.FovY
}

// Right returns the screen-space right axis in world coordinates.
func (o Orbit) Right() math.Vec3 {
	forward := o.Target.Sub(o.Position()).Normalize()
	return forward.Cross(math.UnitY).Normalize()
}

// Rotate applies a mouse drag in pixels.
func (o Orbit) Rotate(deltaX, deltaY, sensitivity float32) Orbit {
	o.Azimuth -= deltaX * sensitivity
	o.Elevation = math.Clamp(o.Elevation+deltaY*sensitivity, -1.5, 1.5)
	return o
}

// Zoom scales the radius by a scroll delta.
func (o Orbit) Zoom(delta, sensitivity float32) Orbit {
	o.Radius = math.Clamp(o.Radius-delta*o.Radius*sensitivity, o.Near*2, o.Far/2)
	return o
}

// Fixed is a camera placed by the model: driver seat, bonnet, scene cameras.
type Fixed struct {
	Eye  math.Vec3
	Look math.Vec3 // unit view direction
	Up   math.Vec3

	FovY float32
	Near float32
	Far  float32
}

// LookAt builds a fixed camera at from looking towards to.
func LookAt(from, to math.Vec3, fovY, near, far float32) Fixed {
	return Fixed{
		Eye:  from,
		Look: to.Sub(from).Normalize(),
		Up:   math.UnitY,
		FovY: fovY,
		Near: near,
		Far:  far,
	}
}

func (f Fixed) Position() math.Vec3 {
	return f.Eye
}

func (f Fixed) View() math.Mat4 {
	up := f.Up
	if up == (math.Vec3{}) {
		up = math.UnitY
	}
	return math.LookAt(f.Eye, f.Eye.Add(f.Look), up)
}

func (f Fixed) Projection(aspect float32) math.Mat4 {
	near, far := f.Near, f.Far
	if near <= 0 {
		near = DefaultNear
	}
	if far <= near {
		far = DefaultFar
	}
	return math.Perspective(f.FovY, aspect, near, far)
}

func (f Fixed) FieldOfView() float32 {
	return f.FovY
}

// Transform moves the camera from model space into world space.
func (f Fixed) Transform(m math.Mat4) Fixed {
	f.Eye = m.TransformCoordinate(f.Eye)
	f.Look = m.TransformNormal(f.Look).Normalize()
	f.Up = m.TransformNormal(f.Up).Normalize()
	return f
}

// Interior names the fixed cameras every car is expected to provide.
type Interior int

const (
	None Interior = iota
	Driver
	Dashboard
	Bonnet
	Bumper

	interiorCount
)

var interiorNames = [...]string{"none", "driver", "dashboard", "bonnet", "bumper"}

func (k Interior) String() string {
	if k < 0 || k >= interiorCount {
		return "unknown"
	}
	return interiorNames[k]
}

// Next returns the following kind, wrapping from Bumper back to None.
func (k Interior) Next() Interior {
	return (k + 1) % interiorCount
}

// ParseInterior parses a name produced by String.
func ParseInterior(s string) (Interior, bool) {
	for i, name := range interiorNames {
		if name == s {
			return Interior(i), true
		}
	}
	return None, false
}
