// Package reflection renders the surroundings of the car into a cubemap
// used for environment reflections.
package reflection

import (
	"fmt"

	"github.com/Faultbox/showroom/internal/engine/gpu"
	"github.com/Faultbox/showroom/internal/engine/scene"
	"github.com/Faultbox/showroom/pkg/math"
)

const (
	// DefaultResolution is the face size used when none is configured.
	DefaultResolution = 512
	// DefaultThreshold is how far the center may drift before a redraw.
	DefaultThreshold = 0.5

	near = 0.1
	far  = 500
)

// faces lists look directions and up vectors in GL cubemap face order:
// +X, -X, +Y, -Y, +Z, -Z.
var faces = [6]struct{ look, up math.Vec3 }{
	{math.Vec3{X: 1}, math.Vec3{Y: -1}},
	{math.Vec3{X: -1}, math.Vec3{Y: -1}},
	{math.Vec3{Y: 1}, math.Vec3{Z: 1}},
	{math.Vec3{Y: -1}, math.Vec3{Z: -1}},
	{math.Vec3{Z: 1}, math.Vec3{Y: -1}},
	{math.Vec3{Z: -1}, math.Vec3{Y: -1}},
}

// FaceViewProj returns the view-projection used to render one cubemap face
// seen from center.
func FaceViewProj(center math.Vec3, face int) math.Mat4 {
	f := faces[face]
	view := math.LookAt(center, center.Add(f.look), f.up)
	return math.Perspective(math.Pi/2, 1, near, far).Mul(view)
}

// Cubemap tracks where the environment was last captured.
type Cubemap struct {
	target    gpu.CubemapTarget
	threshold float32
	center    math.Vec3
	captured  bool
	draws     int
}

// New creates the cubemap target. A non-positive threshold uses DefaultThreshold.
func New(dev gpu.Device, resolution int32, threshold float32) (*Cubemap, error) {
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	target, err := dev.NewCubemapTarget(resolution)
	if err != nil {
		return nil, fmt.Errorf("reflection cubemap: %w", err)
	}
	return &Cubemap{target: target, threshold: threshold}, nil
}

// Update moves the capture point to center. It reports true when the
// previous capture is too far away to reuse, or when there was none.
func (c *Cubemap) Update(center math.Vec3) bool {
	if c.captured && c.center.Distance(center) <= c.threshold {
		return false
	}
	c.center = center
	c.captured = true
	return true
}

// DrawScene renders all six faces around the current center.
func (c *Cubemap) DrawScene(draw func(scene.Pass) error) error {
	c.draws++
	for face := range faces {
		c.target.BeginFace(face)
		err := draw(scene.Pass{
			Mode:     scene.Reflection,
			ViewProj: FaceViewProj(c.center, face),
			Eye:      c.center,
		})
		c.target.End()
		if err != nil {
			return fmt.Errorf("cubemap face %d: %w", face, err)
		}
	}
	return nil
}

// Center returns the capture point.
func (c *Cubemap) Center() math.Vec3 {
	return c.center
}

// Draws returns how many times the cubemap was rendered.
func (c *Cubemap) Draws() int {
	return c.draws
}

// Target returns the cubemap for sampling.
func (c *Cubemap) Target() gpu.CubemapTarget {
	return c.target
}

// Release frees the target.
func (c *Cubemap) Release() {
	c.target.Release()
}
