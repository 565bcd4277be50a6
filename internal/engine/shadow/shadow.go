// Package shadow renders a directional light depth map around the car.
package shadow

import (
	"fmt"

	"github.com/Faultbox/showroom/internal/engine/gpu"
	"github.com/Faultbox/showroom/internal/engine/scene"
	"github.com/Faultbox/showroom/pkg/math"
)

// DefaultResolution is the depth map size used when none is configured.
const DefaultResolution = 2048

// minRadius keeps the light frustum usable for tiny or empty scenes.
const minRadius = 3

// Directional owns one depth target and the light matrix it was last drawn with.
type Directional struct {
	target   gpu.ShadowTarget
	viewProj math.Mat4
	center   math.Vec3
	radius   float32
	updates  int
}

// New creates the depth target.
func New(dev gpu.Device, resolution int32) (*Directional, error) {
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	target, err := dev.NewShadowTarget(resolution)
	if err != nil {
		return nil, fmt.Errorf("shadow map: %w", err)
	}
	return &Directional{target: target, viewProj: math.Identity()}, nil
}

// Update refits the light frustum to box and redraws the depth map.
// lightDir points towards the light.
func (d *Directional) Update(lightDir math.Vec3, box math.AABB, draw func(scene.Pass) error) error {
	center, radius := math.Vec3{}, float32(minRadius)
	if !box.IsEmpty() {
		center = box.Center()
		radius = max(box.Radius(), minRadius)
	}

	vp, eye := LightMatrix(lightDir.Normalize(), center, radius)
	d.viewProj, d.center, d.radius = vp, center, radius
	d.updates++

	d.target.Begin()
	defer d.target.End()
	return draw(scene.Pass{Mode: scene.Shadow, ViewProj: vp, Eye: eye})
}

// Clear wipes the depth map so nothing is shadowed.
func (d *Directional) Clear() {
	d.target.Clear()
}

// Target returns the depth target for sampling.
func (d *Directional) Target() gpu.ShadowTarget {
	return d.target
}

// ViewProj returns the light matrix of the last update.
func (d *Directional) ViewProj() math.Mat4 {
	return d.viewProj
}

// Center returns the point the last update was fitted to.
func (d *Directional) Center() math.Vec3 {
	return d.center
}

// Updates returns how many times the map was redrawn.
func (d *Directional) Updates() int {
	return d.updates
}

// Release frees the depth target.
func (d *Directional) Release() {
	d.target.Release()
}
