package glgpu

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// shadowTarget is a depth-only framebuffer sampled with sampler2DShadow.
type shadowTarget struct {
	fbo          uint32
	depthTexture uint32
	resolution   int32
	prevViewport [4]int32
	prevFBO      int32
}

func newShadowTarget(resolution int32) (*shadowTarget, error) {
	st := &shadowTarget{resolution: resolution}

	gl.GenFramebuffers(1, &st.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, st.fbo)

	gl.GenTextures(1, &st.depthTexture)
	gl.BindTexture(gl.TEXTURE_2D, st.depthTexture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT24, resolution, resolution, 0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)

	// White border: nothing outside the light frustum is shadowed.
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_BORDER)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_BORDER)
	borderColor := []float32{1.0, 1.0, 1.0, 1.0}
	gl.TexParameterfv(gl.TEXTURE_2D, gl.TEXTURE_BORDER_COLOR, &borderColor[0])

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_COMPARE_MODE, gl.COMPARE_REF_TO_TEXTURE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_COMPARE_FUNC, gl.LEQUAL)

	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, st.depthTexture, 0)

	gl.DrawBuffer(gl.NONE)
	gl.ReadBuffer(gl.NONE)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		st.Release()
		return nil, fmt.Errorf("incomplete framebuffer: 0x%x", status)
	}
	return st, nil
}

func (st *shadowTarget) Resolution() int32 {
	return st.resolution
}

// Begin binds the depth framebuffer and clears it.
func (st *shadowTarget) Begin() {
	gl.GetIntegerv(gl.VIEWPORT, &st.prevViewport[0])
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &st.prevFBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, st.fbo)
	gl.Viewport(0, 0, st.resolution, st.resolution)
	gl.Clear(gl.DEPTH_BUFFER_BIT)
	// Front-face culling reduces acne on closed car bodies.
	gl.CullFace(gl.FRONT)
}

func (st *shadowTarget) End() {
	gl.CullFace(gl.BACK)
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(st.prevFBO))
	gl.Viewport(st.prevViewport[0], st.prevViewport[1], st.prevViewport[2], st.prevViewport[3])
}

// Clear resets the depth map to the far plane.
func (st *shadowTarget) Clear() {
	var prev int32
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &prev)
	gl.BindFramebuffer(gl.FRAMEBUFFER, st.fbo)
	gl.Clear(gl.DEPTH_BUFFER_BIT)
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(prev))
}

func (st *shadowTarget) Release() {
	if st.fbo != 0 {
		gl.DeleteFramebuffers(1, &st.fbo)
		st.fbo = 0
	}
	if st.depthTexture != 0 {
		gl.DeleteTextures(1, &st.depthTexture)
		st.depthTexture = 0
	}
}
