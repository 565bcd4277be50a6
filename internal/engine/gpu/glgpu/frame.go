package glgpu

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Init loads the GL function pointers.
// IMPORTANT: Must be called AFTER the OpenGL context is created!
func Init() error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	return nil
}

// SetClearColor sets the background used by BeginFrame.
func (d *Device) SetClearColor(r, g, b float32) {
	gl.ClearColor(r, g, b, 1.0)
}

// Resize sets the viewport for the default framebuffer.
func (d *Device) Resize(width, height int32) {
	d.width, d.height = width, height
	gl.Viewport(0, 0, width, height)
}

// BeginFrame binds the default framebuffer and clears it.
func (d *Device) BeginFrame() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, d.width, d.height)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// CheckError returns the first pending GL error, if any.
func (d *Device) CheckError() error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return glError(code)
	}
	return nil
}

// ReadPixels returns the default framebuffer as bottom-up RGBA rows.
func (d *Device) ReadPixels() ([]byte, int, int) {
	w, h := int(d.width), int(d.height)
	pixels := make([]byte, w*h*4)
	if len(pixels) == 0 {
		return pixels, w, h
	}
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, d.width, d.height, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, w, h
}
