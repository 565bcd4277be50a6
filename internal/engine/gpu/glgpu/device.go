// Package glgpu implements gpu.Device on OpenGL 4.1 core.
package glgpu

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/showroom/internal/engine/gpu"
	"github.com/Faultbox/showroom/internal/logger"
)

// Device owns the shader programs. It must be created after the GL context.
type Device struct {
	mainProgram  uint32
	depthProgram uint32
	depthVP      int32
	depthModel   int32
	effect       *effect
	width        int32
	height       int32
	log          *zap.Logger
}

var _ gpu.Device = (*Device)(nil)

// New compiles the shading programs. Init must have succeeded first.
func New() (*Device, error) {
	mainProgram, err := buildProgram("main",
		stage{gl.VERTEX_SHADER, "vertex", mainVertexShader},
		stage{gl.FRAGMENT_SHADER, "fragment", mainFragmentShader})
	if err != nil {
		return nil, err
	}
	depthProgram, err := buildProgram("depth",
		stage{gl.VERTEX_SHADER, "vertex", depthVertexShader},
		stage{gl.FRAGMENT_SHADER, "fragment", depthFragmentShader})
	if err != nil {
		gl.DeleteProgram(mainProgram)
		return nil, err
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
	gl.Enable(gl.TEXTURE_CUBE_MAP_SEAMLESS)
	gl.DepthFunc(gl.LESS)
	gl.ClearColor(0.1, 0.1, 0.15, 1.0)

	d := &Device{
		mainProgram:  mainProgram,
		depthProgram: depthProgram,
		depthVP:      uniform(depthProgram, "uViewProj"),
		depthModel:   uniform(depthProgram, "uModel"),
		effect:       newEffect(mainProgram),
		log:          logger.Named("gpu"),
	}
	d.log.Info("gl device ready",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))))
	return d, nil
}

// Destroy deletes the programs.
func (d *Device) Destroy() {
	if d.mainProgram != 0 {
		gl.DeleteProgram(d.mainProgram)
		d.mainProgram = 0
	}
	if d.depthProgram != 0 {
		gl.DeleteProgram(d.depthProgram)
		d.depthProgram = 0
	}
}

func (d *Device) NewMesh(data gpu.MeshData) (gpu.Mesh, error) {
	m, err := newMesh(data)
	if err != nil {
		return nil, &gpu.ResourceError{Kind: "mesh", Name: data.Name, Err: err}
	}
	return m, nil
}

func (d *Device) NewTexture(img *image.RGBA) (gpu.Texture, error) {
	t, err := newTexture(img)
	if err != nil {
		return nil, &gpu.ResourceError{Kind: "texture", Err: err}
	}
	return t, nil
}

func (d *Device) NewShadowTarget(resolution int32) (gpu.ShadowTarget, error) {
	st, err := newShadowTarget(resolution)
	if err != nil {
		return nil, &gpu.ResourceError{Kind: "shadow target", Err: err}
	}
	return st, nil
}

func (d *Device) NewCubemapTarget(resolution int32) (gpu.CubemapTarget, error) {
	ct, err := newCubemapTarget(resolution)
	if err != nil {
		return nil, &gpu.ResourceError{Kind: "cubemap target", Err: err}
	}
	return ct, nil
}

func (d *Device) Effect() gpu.Effect {
	return d.effect
}

// Draw issues one indexed draw with either the depth or the main program.
func (d *Device) Draw(p gpu.DrawParams) error {
	m, ok := p.Mesh.(*mesh)
	if !ok || m.vao == 0 {
		return fmt.Errorf("draw: invalid mesh")
	}

	if p.DepthOnly {
		gl.UseProgram(d.depthProgram)
		gl.UniformMatrix4fv(d.depthVP, 1, false, p.ViewProj.Ptr())
		gl.UniformMatrix4fv(d.depthModel, 1, false, p.Model.Ptr())
	} else {
		d.effect.apply()
		gl.UniformMatrix4fv(d.effect.u.viewProj, 1, false, p.ViewProj.Ptr())
		gl.UniformMatrix4fv(d.effect.u.model, 1, false, p.Model.Ptr())
		if t, ok := p.Texture.(*texture); ok && t.id != 0 {
			gl.ActiveTexture(gl.TEXTURE0 + unitAlbedo)
			gl.BindTexture(gl.TEXTURE_2D, t.id)
			gl.Uniform1i(d.effect.u.useTexture, 1)
		} else {
			gl.Uniform1i(d.effect.u.useTexture, 0)
		}
	}

	gl.BindVertexArray(m.vao)
	gl.DrawElements(gl.TRIANGLES, m.indexCount, gl.UNSIGNED_INT, unsafe.Pointer(nil))
	gl.BindVertexArray(0)
	return nil
}

type glError uint32

func (e glError) Error() string {
	return fmt.Sprintf("gl error 0x%x", uint32(e))
}
