package gldevice

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/richinsley/glook/graphics"
)

// NewRenderTarget creates a float color texture and a depth/stencil
// renderbuffer attached to one framebuffer. Every stage target uses the same
// format: RGBA32F, linear filtering, clamp-to-edge, no mipmaps.
func (d *Device) NewRenderTarget(width, height int) (*graphics.RenderTarget, error) {
	t := &graphics.RenderTarget{Width: width, Height: height}

	gl.GenTextures(1, &t.Texture)
	gl.BindTexture(gl.TEXTURE_2D, t.Texture)
	// Use a floating-point texture format so feedback stages can accumulate.
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA32F, int32(width), int32(height), 0, gl.RGBA, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAX_LEVEL, 0)

	gl.GenRenderbuffers(1, &t.DepthStencil)
	gl.BindRenderbuffer(gl.RENDERBUFFER, t.DepthStencil)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH24_STENCIL8, int32(width), int32(height))

	gl.GenFramebuffers(1, &t.FBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.FBO)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, t.Texture, 0)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_STENCIL_ATTACHMENT, gl.RENDERBUFFER, t.DepthStencil)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)

	// Unbind to avoid accidental modifications
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if status != gl.FRAMEBUFFER_COMPLETE {
		d.DeleteRenderTarget(t)
		return nil, fmt.Errorf("%w: status 0x%x", graphics.ErrIncompleteTarget, status)
	}

	// Start from transparent black so the first feedback frame reads zeros.
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.FBO)
	gl.ClearColor(0, 0, 0, 0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT | gl.STENCIL_BUFFER_BIT)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return t, nil
}

func (d *Device) DeleteRenderTarget(t *graphics.RenderTarget) {
	if t == nil {
		return
	}
	if t.FBO != 0 {
		gl.DeleteFramebuffers(1, &t.FBO)
	}
	if t.Texture != 0 {
		gl.DeleteTextures(1, &t.Texture)
	}
	if t.DepthStencil != 0 {
		gl.DeleteRenderbuffers(1, &t.DepthStencil)
	}
	*t = graphics.RenderTarget{}
}

// ReadPixels reads t back as RGBA8, bottom row first.
func (d *Device) ReadPixels(t *graphics.RenderTarget) ([]byte, error) {
	if t == nil || t.FBO == 0 {
		return nil, fmt.Errorf("cannot read pixels from a released target")
	}
	pixels := make([]byte, t.Width*t.Height*4)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, t.FBO)
	gl.ReadBuffer(gl.COLOR_ATTACHMENT0)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(t.Width), int32(t.Height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	if e := gl.GetError(); e != gl.NO_ERROR {
		return nil, fmt.Errorf("glReadPixels failed: 0x%x", e)
	}
	return pixels, nil
}
