package glgpu

import (
	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/showroom/internal/engine/gpu"
	"github.com/Faultbox/showroom/pkg/math"
)

// Texture units used by the main program.
const (
	unitAlbedo     = 0
	unitShadow     = 1
	unitReflection = 2
)

type effectUniforms struct {
	viewProj, model, lightViewProj int32
	eyePos, lightDir               int32
	texture, useTexture            int32
	shadowMap, shadowsEnabled      int32
	reflection, reflectionEnabled  int32
}

// effect keeps the per-frame shading state and pushes it into the main program.
type effect struct {
	program uint32
	u       effectUniforms
	eye     math.Vec3
	light   math.Vec3
	shadow  *shadowTarget
	lightVP math.Mat4
	cube    *cubemapTarget
}

func newEffect(program uint32) *effect {
	return &effect{
		program: program,
		light:   math.Vec3{X: 0, Y: 1, Z: 0},
		lightVP: math.Identity(),
		u: effectUniforms{
			viewProj:          uniform(program, "uViewProj"),
			model:             uniform(program, "uModel"),
			lightViewProj:     uniform(program, "uLightViewProj"),
			eyePos:            uniform(program, "uEyePos"),
			lightDir:          uniform(program, "uLightDir"),
			texture:           uniform(program, "uTexture"),
			useTexture:        uniform(program, "uUseTexture"),
			shadowMap:         uniform(program, "uShadowMap"),
			shadowsEnabled:    uniform(program, "uShadowsEnabled"),
			reflection:        uniform(program, "uReflection"),
			reflectionEnabled: uniform(program, "uReflectionEnabled"),
		},
	}
}

func (e *effect) SetEyePosition(eye math.Vec3) {
	e.eye = eye
}

func (e *effect) SetLight(direction math.Vec3) {
	e.light = direction
}

func (e *effect) SetShadowMap(target gpu.ShadowTarget, lightViewProj math.Mat4) {
	e.shadow, _ = target.(*shadowTarget)
	e.lightVP = lightViewProj
}

func (e *effect) SetReflectionMap(target gpu.CubemapTarget) {
	e.cube, _ = target.(*cubemapTarget)
}

// apply binds the program and uploads the frame state.
func (e *effect) apply() {
	gl.UseProgram(e.program)
	gl.Uniform3f(e.u.eyePos, e.eye.X, e.eye.Y, e.eye.Z)
	gl.Uniform3f(e.u.lightDir, e.light.X, e.light.Y, e.light.Z)
	gl.UniformMatrix4fv(e.u.lightViewProj, 1, false, e.lightVP.Ptr())

	gl.Uniform1i(e.u.texture, unitAlbedo)
	gl.Uniform1i(e.u.shadowMap, unitShadow)
	gl.Uniform1i(e.u.reflection, unitReflection)

	if e.shadow != nil && e.shadow.depthTexture != 0 {
		gl.ActiveTexture(gl.TEXTURE0 + unitShadow)
		gl.BindTexture(gl.TEXTURE_2D, e.shadow.depthTexture)
		gl.Uniform1i(e.u.shadowsEnabled, 1)
	} else {
		gl.Uniform1i(e.u.shadowsEnabled, 0)
	}

	if e.cube != nil && e.cube.colorTexture != 0 {
		gl.ActiveTexture(gl.TEXTURE0 + unitReflection)
		gl.BindTexture(gl.TEXTURE_CUBE_MAP, e.cube.colorTexture)
		gl.Uniform1i(e.u.reflectionEnabled, 1)
	} else {
		gl.Uniform1i(e.u.reflectionEnabled, 0)
	}
	gl.ActiveTexture(gl.TEXTURE0)
}
