package glgpu

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// cubemapTarget renders the surroundings into six color faces sharing one depth buffer.
type cubemapTarget struct {
	fbo          uint32
	colorTexture uint32
	depthRBO     uint32
	resolution   int32
	prevViewport [4]int32
	prevFBO      int32
}

func newCubemapTarget(resolution int32) (*cubemapTarget, error) {
	ct := &cubemapTarget{resolution: resolution}

	gl.GenTextures(1, &ct.colorTexture)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, ct.colorTexture)
	for face := uint32(0); face < 6; face++ {
		gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+face, 0, gl.RGBA8, resolution, resolution, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	}
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_R, gl.CLAMP_TO_EDGE)

	gl.GenRenderbuffers(1, &ct.depthRBO)
	gl.BindRenderbuffer(gl.RENDERBUFFER, ct.depthRBO)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, resolution, resolution)

	gl.GenFramebuffers(1, &ct.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, ct.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_CUBE_MAP_POSITIVE_X, ct.colorTexture, 0)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, ct.depthRBO)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		ct.Release()
		return nil, fmt.Errorf("incomplete framebuffer: 0x%x", status)
	}
	return ct, nil
}

func (ct *cubemapTarget) Resolution() int32 {
	return ct.resolution
}

// BeginFace attaches one cube face and clears it.
func (ct *cubemapTarget) BeginFace(face int) {
	gl.GetIntegerv(gl.VIEWPORT, &ct.prevViewport[0])
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &ct.prevFBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, ct.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(face), ct.colorTexture, 0)
	gl.Viewport(0, 0, ct.resolution, ct.resolution)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (ct *cubemapTarget) End() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(ct.prevFBO))
	gl.Viewport(ct.prevViewport[0], ct.prevViewport[1], ct.prevViewport[2], ct.prevViewport[3])
}

func (ct *cubemapTarget) Release() {
	if ct.fbo != 0 {
		gl.DeleteFramebuffers(1, &ct.fbo)
		ct.fbo = 0
	}
	if ct.depthRBO != 0 {
		gl.DeleteRenderbuffers(1, &ct.depthRBO)
		ct.depthRBO = 0
	}
	if ct.colorTexture != 0 {
		gl.DeleteTextures(1, &ct.colorTexture)
		ct.colorTexture = 0
	}
}
