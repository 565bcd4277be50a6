// Package gputest provides an in-memory gpu.Device for tests.
package gputest

import (
	"errors"
	"fmt"
	"image"

	"github.com/Faultbox/showroom/internal/engine/gpu"
	"github.com/Faultbox/showroom/pkg/math"
)

// ErrInjected is returned by constructors once FailAfter is exhausted.
var ErrInjected = errors.New("injected gpu failure")

// Device records every resource it creates.
type Device struct {
	// FailAfter makes the n-th and later constructions fail when positive.
	FailAfter int

	Created  int
	Released int
	Meshes   []*Mesh
	Textures []*Texture
	Shadows  []*ShadowTarget
	Cubemaps []*CubemapTarget
	Draws    []gpu.DrawParams

	effect Effect
}

// New returns an empty device.
func New() *Device {
	return &Device{}
}

func (d *Device) construct(kind string) error {
	if d.FailAfter > 0 && d.Created+1 >= d.FailAfter {
		return fmt.Errorf("%s #%d: %w", kind, d.Created+1, ErrInjected)
	}
	d.Created++
	return nil
}

// Live returns how many resources are created and not yet released.
func (d *Device) Live() int {
	return d.Created - d.Released
}

// NewMesh implements gpu.Device.
func (d *Device) NewMesh(data gpu.MeshData) (gpu.Mesh, error) {
	if err := d.construct("mesh"); err != nil {
		return nil, err
	}
	m := &Mesh{dev: d, Name: data.Name, ID: d.Created, indices: int32(len(data.Indices))}
	d.Meshes = append(d.Meshes, m)
	return m, nil
}

// NewTexture implements gpu.Device.
func (d *Device) NewTexture(img *image.RGBA) (gpu.Texture, error) {
	if err := d.construct("texture"); err != nil {
		return nil, err
	}
	b := img.Bounds()
	tex := &Texture{dev: d, ID: d.Created, w: int32(b.Dx()), h: int32(b.Dy())}
	d.Textures = append(d.Textures, tex)
	return tex, nil
}

// NewShadowTarget implements gpu.Device.
func (d *Device) NewShadowTarget(resolution int32) (gpu.ShadowTarget, error) {
	if err := d.construct("shadow target"); err != nil {
		return nil, err
	}
	s := &ShadowTarget{dev: d, res: resolution}
	d.Shadows = append(d.Shadows, s)
	return s, nil
}

// NewCubemapTarget implements gpu.Device.
func (d *Device) NewCubemapTarget(resolution int32) (gpu.CubemapTarget, error) {
	if err := d.construct("cubemap target"); err != nil {
		return nil, err
	}
	c := &CubemapTarget{dev: d, res: resolution}
	d.Cubemaps = append(d.Cubemaps, c)
	return c, nil
}

// Effect implements gpu.Device.
func (d *Device) Effect() gpu.Effect {
	return &d.effect
}

// LastEffect returns the uniforms pushed so far.
func (d *Device) LastEffect() Effect {
	return d.effect
}

// Draw implements gpu.Device.
func (d *Device) Draw(p gpu.DrawParams) error {
	if m, ok := p.Mesh.(*Mesh); ok && m.released {
		return fmt.Errorf("draw of released mesh %q", m.Name)
	}
	d.Draws = append(d.Draws, p)
	return nil
}

// Mesh is a fake mesh.
type Mesh struct {
	dev      *Device
	Name     string
	ID       int
	indices  int32
	released bool
}

func (m *Mesh) IndexCount() int32 { return m.indices }

// Released reports whether Release ran.
func (m *Mesh) Released() bool { return m.released }

func (m *Mesh) Release() {
	if m.released {
		return
	}
	m.released = true
	m.dev.Released++
}

// Texture is a fake texture.
type Texture struct {
	dev      *Device
	ID       int
	w, h     int32
	released bool
}

func (t *Texture) Size() (int32, int32) { return t.w, t.h }

func (t *Texture) Released() bool { return t.released }

func (t *Texture) Release() {
	if t.released {
		return
	}
	t.released = true
	t.dev.Released++
}

// ShadowTarget counts passes.
type ShadowTarget struct {
	dev      *Device
	res      int32
	Passes   int
	Clears   int
	released bool
}

func (s *ShadowTarget) Resolution() int32 { return s.res }
func (s *ShadowTarget) Begin()            { s.Passes++ }
func (s *ShadowTarget) End()              {}
func (s *ShadowTarget) Clear()            { s.Clears++ }

func (s *ShadowTarget) Release() {
	if s.released {
		return
	}
	s.released = true
	s.dev.Released++
}

// CubemapTarget counts face renders.
type CubemapTarget struct {
	dev      *Device
	res      int32
	Faces    int
	released bool
}

func (c *CubemapTarget) Resolution() int32 { return c.res }
func (c *CubemapTarget) BeginFace(int)     { c.Faces++ }
func (c *CubemapTarget) End()              {}

func (c *CubemapTarget) Release() {
	if c.released {
		return
	}
	c.released = true
	c.dev.Released++
}

// Effect stores the last pushed uniforms.
type Effect struct {
	Eye           math.Vec3
	Light         math.Vec3
	Shadow        gpu.ShadowTarget
	LightViewProj math.Mat4
	Reflection    gpu.CubemapTarget
	Pushes        int
}

func (e *Effect) SetEyePosition(eye math.Vec3) {
	e.Eye = eye
	e.Pushes++
}

func (e *Effect) SetLight(direction math.Vec3) { e.Light = direction }

func (e *Effect) SetShadowMap(target gpu.ShadowTarget, lightViewProj math.Mat4) {
	e.Shadow = target
	e.LightViewProj = lightViewProj
}

func (e *Effect) SetReflectionMap(target gpu.CubemapTarget) { e.Reflection = target }
