package graphics

import (
	"errors"
	"fmt"
)

// MaxChannels is the number of iChannel samplers a stage can read.
const MaxChannels = 4

// ErrIncompleteTarget is returned when the driver rejects a render target configuration.
var ErrIncompleteTarget = errors.New("render target framebuffer is not complete")

// UniformLocations caches the locations of the built-in uniforms of a linked
// program. A location of -1 means the uniform is not used by the program.
type UniformLocations struct {
	Time              int32
	TimeDelta         int32
	Frame             int32
	FrameRate         int32
	Date              int32
	Resolution        int32
	Mouse             int32
	Channel           [MaxChannels]int32
	ChannelResolution [MaxChannels]int32
}

// NoUniforms returns a cache with every location unset.
func NoUniforms() UniformLocations {
	u := UniformLocations{
		Time:       -1,
		TimeDelta:  -1,
		Frame:      -1,
		FrameRate:  -1,
		Date:       -1,
		Resolution: -1,
		Mouse:      -1,
	}
	for i := 0; i < MaxChannels; i++ {
		u.Channel[i] = -1
		u.ChannelResolution[i] = -1
	}
	return u
}

// Program is a linked full-screen-quad program.
type Program struct {
	Handle    uint32
	Locations UniformLocations
}

// RenderTarget is an offscreen color texture plus depth/stencil attachment
// bound into one framebuffer.
type RenderTarget struct {
	FBO          uint32
	Texture      uint32
	DepthStencil uint32
	Width        int
	Height       int
}

// Resolution returns the target size as an iChannelResolution vector.
func (t *RenderTarget) Resolution() [3]float32 {
	if t == nil {
		return [3]float32{}
	}
	return [3]float32{float32(t.Width), float32(t.Height), 1.0}
}

// Uniforms holds the per-frame values handed to every stage.
type Uniforms struct {
	Time       float32
	TimeDelta  float32
	FrameRate  float32
	Frame      int32
	Date       [4]float32
	Resolution [3]float32
	Mouse      [4]float32
}

// Pass describes one full-screen-quad draw.
type Pass struct {
	Program *Program
	// Target receives the output. Nil draws into the window framebuffer.
	Target   *RenderTarget
	Inputs   [MaxChannels]*RenderTarget
	Uniforms Uniforms
}

// Device is the GPU collaborator the pipeline renders through.
// All methods must be called from the thread owning the GL context.
type Device interface {
	// CompileProgram compiles a complete fragment shader and links it against
	// the shared full-screen-quad vertex shader. Failures are *CompileError.
	CompileProgram(fragmentSource string) (*Program, error)
	DeleteProgram(p *Program)
	NewRenderTarget(width, height int) (*RenderTarget, error)
	DeleteRenderTarget(t *RenderTarget)
	Draw(pass Pass)
	// Present copies t into the window framebuffer of the given size.
	Present(t *RenderTarget, width, height int)
	// ReadPixels returns the RGBA8 contents of t, bottom row first.
	ReadPixels(t *RenderTarget) ([]byte, error)
}

// CompilePhase names the step in which a program failed to build.
type CompilePhase string

const (
	PhaseTranslate CompilePhase = "translate"
	PhaseVertex    CompilePhase = "vertex"
	PhaseFragment  CompilePhase = "fragment"
	PhaseLink      CompilePhase = "link"
)

// CompileError carries the raw driver or translator log of a failed build.
type CompileError struct {
	Phase CompilePhase
	Log   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Phase, e.Log)
}
