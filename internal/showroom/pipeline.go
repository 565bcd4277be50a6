package showroom

import (
	"fmt"

	"github.com/Faultbox/showroom/internal/engine/gpu"
	"github.com/Faultbox/showroom/internal/engine/scene"
	"github.com/Faultbox/showroom/pkg/math"
)

// Light returns the normalized direction towards the light.
func (r *Renderer) Light() math.Vec3 {
	return r.light
}

// SetLight changes the light direction. Shadows are redrawn on the next
// DrawPrepare when the normalized direction differs.
func (r *Renderer) SetLight(direction math.Vec3) {
	if direction == (math.Vec3{}) {
		return
	}
	n := direction.Normalize()
	if n == r.light {
		return
	}
	r.light = n
	r.markSceneDirty()
	r.Changes.Emit(FieldLight, n)
}

// ShadowsEnabled reports whether the shadow pass runs.
func (r *Renderer) ShadowsEnabled() bool {
	return r.shadowsEnabled
}

// SetShadowsEnabled toggles the shadow pass. Disabling clears the depth
// map on the next DrawPrepare.
func (r *Renderer) SetShadowsEnabled(v bool) {
	if v == r.shadowsEnabled {
		return
	}
	r.shadowsEnabled = v
	r.dirty = true
	r.Changes.Emit(FieldShadows, v)
}

// ReflectionsEnabled reports whether the cubemap pass runs.
func (r *Renderer) ReflectionsEnabled() bool {
	return r.reflectionsEnabled
}

// SetReflectionsEnabled toggles the cubemap pass.
func (r *Renderer) SetReflectionsEnabled(v bool) {
	if v == r.reflectionsEnabled {
		return
	}
	r.reflectionsEnabled = v
	r.reflectionDirty = true
	r.dirty = true
	r.Changes.Emit(FieldReflections, v)
}

// InvalidateReflection forces the cubemap to be redrawn on the next frame.
func (r *Renderer) InvalidateReflection() {
	r.reflectionDirty = true
	r.dirty = true
}

// BoundingBox returns the scene box the last frame was prepared with.
func (r *Renderer) BoundingBox() (math.AABB, bool) {
	return r.box, r.hasBox
}

// DrawPrepare brings the scene box, shadow map, reflection cubemap and
// effect uniforms up to date for a frame seen from eye.
func (r *Renderer) DrawPrepare(eye, light math.Vec3) error {
	if r.disposed {
		return ErrDisposed
	}
	r.SetLight(light)

	sceneDirty := r.sceneDirty
	r.sceneDirty = false
	switch {
	case r.bboxPending, sceneDirty && !r.opts.DelayedBoundingBoxUpdate:
		r.box, r.hasBox = r.scene.BoundingBox()
		r.bboxPending = false
	case sceneDirty:
		r.bboxPending = true
	}

	box, center := math.EmptyAABB(), math.Vec3{}
	if r.hasBox {
		box, center = r.box, r.box.Center()
	}

	if err := r.prepareShadows(box, center, sceneDirty); err != nil {
		return err
	}
	if err := r.prepareReflection(center); err != nil {
		return err
	}

	effect := r.dev.Effect()
	effect.SetEyePosition(eye)
	effect.SetLight(r.light)
	if r.shadowsEnabled && r.shadows != nil {
		effect.SetShadowMap(r.shadows.Target(), r.shadows.ViewProj())
	} else {
		effect.SetShadowMap(nil, math.Identity())
	}
	if r.reflectionsEnabled && r.reflection != nil {
		effect.SetReflectionMap(r.reflection.Target())
	} else {
		effect.SetReflectionMap(nil)
	}
	if r.hooks.PrepareEffect != nil {
		r.hooks.PrepareEffect(effect, eye)
	}
	return nil
}

func (r *Renderer) prepareShadows(box math.AABB, center math.Vec3, sceneDirty bool) error {
	toggled := r.shadowsEnabled != r.shadowsWereEnabled
	r.shadowsWereEnabled = r.shadowsEnabled

	if !r.shadowsEnabled {
		if toggled && r.shadows != nil {
			r.shadows.Clear()
			r.shadowValid = false
		}
		return nil
	}
	if err := r.ensureShadows(); err != nil {
		return err
	}
	if !toggled && !sceneDirty && r.shadowValid && r.shadowCenter == center {
		return nil
	}
	if err := r.shadows.Update(r.light, box, r.drawPass); err != nil {
		return fmt.Errorf("shadow pass: %w", err)
	}
	r.shadowCenter, r.shadowValid = center, true
	return nil
}

func (r *Renderer) prepareReflection(center math.Vec3) error {
	if !r.reflectionsEnabled {
		return nil
	}
	if err := r.ensureReflection(); err != nil {
		return err
	}
	moved := r.reflection.Update(center)
	if !moved && !r.reflectionDirty {
		return nil
	}
	r.reflectionDirty = false
	if err := r.reflection.DrawScene(r.drawPass); err != nil {
		return fmt.Errorf("reflection pass: %w", err)
	}
	return nil
}

func (r *Renderer) drawPass(p scene.Pass) error {
	return r.scene.Draw(r.dev, p)
}

// Draw renders the scene from the active camera.
func (r *Renderer) Draw() error {
	if r.disposed {
		return ErrDisposed
	}
	cam := r.cameras.Camera()
	return r.scene.Draw(r.dev, scene.Pass{
		Mode:     scene.Main,
		ViewProj: r.cameras.ViewProj(),
		Eye:      cam.Position(),
	})
}

// Render prepares and draws one frame from the active camera.
func (r *Renderer) Render() error {
	if err := r.DrawPrepare(r.cameras.Camera().Position(), r.light); err != nil {
		return err
	}
	return r.Draw()
}

// Effect exposes the device effect for hosts that add their own uniforms.
func (r *Renderer) Effect() gpu.Effect {
	return r.dev.Effect()
}
