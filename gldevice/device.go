// Package gldevice implements graphics.Device on an OpenGL 4.1 core context.
package gldevice

import (
	"fmt"
	"sync"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/richinsley/glook/graphics"
	"github.com/richinsley/glook/shader"
)

// glInitOnce ensures gl.Init() is called only once.
var glInitOnce sync.Once

var quadVertices = []float32{
	-1.0, 1.0, -1.0, -1.0, 1.0, -1.0,
	-1.0, 1.0, 1.0, -1.0, 1.0, 1.0,
}

// Device owns the resources shared by every stage: the full-screen quad, the
// compiled vertex shader and the present program.
type Device struct {
	quadVAO      uint32
	quadVBO      uint32
	vertexShader uint32
	blitProgram  uint32
	blitTexLoc   int32
}

// New initializes the GL bindings on the current context and creates the
// shared resources. ctx must already be current on the calling thread.
func New(ctx graphics.Context) (*Device, error) {
	ctx.MakeCurrent()

	var initErr error
	glInitOnce.Do(func() {
		initErr = gl.Init()
	})
	if initErr != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", initErr)
	}

	d := &Device{}
	gl.GenVertexArrays(1, &d.quadVAO)
	gl.GenBuffers(1, &d.quadVBO)
	gl.BindVertexArray(d.quadVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, d.quadVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(quadVertices)*4, gl.Ptr(quadVertices), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, 2*4, gl.PtrOffset(0))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	var err error
	d.vertexShader, err = compileShader(shader.GenerateVertexShader(), gl.VERTEX_SHADER)
	if err != nil {
		d.Destroy()
		return nil, fmt.Errorf("failed to compile quad vertex shader: %w", err)
	}

	d.blitProgram, err = newProgram(shader.GenerateVertexShader(), shader.GetBlitFragmentShader(false))
	if err != nil {
		d.Destroy()
		return nil, fmt.Errorf("failed to create blit program: %w", err)
	}
	d.blitTexLoc = gl.GetUniformLocation(d.blitProgram, gl.Str("u_texture\x00"))
	return d, nil
}

// Destroy releases the shared resources. Stage programs and targets are
// released by their owners.
func (d *Device) Destroy() {
	if d.blitProgram != 0 {
		gl.DeleteProgram(d.blitProgram)
		d.blitProgram = 0
	}
	if d.vertexShader != 0 {
		gl.DeleteShader(d.vertexShader)
		d.vertexShader = 0
	}
	if d.quadVBO != 0 {
		gl.DeleteBuffers(1, &d.quadVBO)
		d.quadVBO = 0
	}
	if d.quadVAO != 0 {
		gl.DeleteVertexArrays(1, &d.quadVAO)
		d.quadVAO = 0
	}
}

// Draw renders one full-screen quad with pass.Program into pass.Target.
func (d *Device) Draw(pass graphics.Pass) {
	if pass.Program == nil || pass.Program.Handle == 0 {
		return
	}
	width, height := int32(pass.Uniforms.Resolution[0]), int32(pass.Uniforms.Resolution[1])
	if pass.Target != nil {
		gl.BindFramebuffer(gl.FRAMEBUFFER, pass.Target.FBO)
		width, height = int32(pass.Target.Width), int32(pass.Target.Height)
	} else {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	}

	gl.UseProgram(pass.Program.Handle)
	updateUniforms(&pass.Program.Locations, &pass.Uniforms)
	bindChannels(&pass.Program.Locations, &pass.Inputs)

	gl.Viewport(0, 0, width, height)
	gl.ClearColor(0, 0, 0, 0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT | gl.STENCIL_BUFFER_BIT)
	gl.BindVertexArray(d.quadVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
	gl.BindVertexArray(0)

	unbindChannels(&pass.Inputs)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// Present blits t into the window framebuffer.
func (d *Device) Present(t *graphics.RenderTarget, width, height int) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	if t == nil || t.Texture == 0 {
		return
	}
	gl.UseProgram(d.blitProgram)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, t.Texture)
	if d.blitTexLoc != -1 {
		gl.Uniform1i(d.blitTexLoc, 0)
	}
	gl.BindVertexArray(d.quadVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
	gl.BindVertexArray(0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

func updateUniforms(loc *graphics.UniformLocations, u *graphics.Uniforms) {
	if loc.Resolution != -1 {
		gl.Uniform3f(loc.Resolution, u.Resolution[0], u.Resolution[1], u.Resolution[2])
	}
	if loc.Time != -1 {
		gl.Uniform1f(loc.Time, u.Time)
	}
	if loc.TimeDelta != -1 {
		gl.Uniform1f(loc.TimeDelta, u.TimeDelta)
	}
	if loc.FrameRate != -1 {
		gl.Uniform1f(loc.FrameRate, u.FrameRate)
	}
	if loc.Frame != -1 {
		gl.Uniform1i(loc.Frame, u.Frame)
	}
	if loc.Mouse != -1 {
		gl.Uniform4f(loc.Mouse, u.Mouse[0], u.Mouse[1], u.Mouse[2], u.Mouse[3])
	}
	if loc.Date != -1 {
		gl.Uniform4f(loc.Date, u.Date[0], u.Date[1], u.Date[2], u.Date[3])
	}
}

func bindChannels(loc *graphics.UniformLocations, inputs *[graphics.MaxChannels]*graphics.RenderTarget) {
	for i, in := range inputs {
		if in == nil {
			continue
		}
		gl.ActiveTexture(gl.TEXTURE0 + uint32(i))
		gl.BindTexture(gl.TEXTURE_2D, in.Texture)
		if loc.ChannelResolution[i] != -1 {
			res := in.Resolution()
			gl.Uniform3fv(loc.ChannelResolution[i], 1, &res[0])
		}
	}
}

func unbindChannels(inputs *[graphics.MaxChannels]*graphics.RenderTarget) {
	for i, in := range inputs {
		if in != nil {
			gl.ActiveTexture(gl.TEXTURE0 + uint32(i))
			gl.BindTexture(gl.TEXTURE_2D, 0)
		}
	}
	gl.ActiveTexture(gl.TEXTURE0)
}
