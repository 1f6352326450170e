package renderer

import (
	"fmt"

	"github.com/richinsley/glook/graphics"
)

// Stage is one compiled fragment shader in the pipeline together with the
// render target it exclusively owns.
type Stage struct {
	// Path is the source file the stage was compiled from.
	Path string

	index   int
	program *graphics.Program
	// inputs holds, per iChannel, the index of the stage sampled. The stage's
	// own index means its previous frame.
	inputs []int
	target *graphics.RenderTarget
	// feedback holds the snapshot of the previous frame for self-reading stages.
	feedback *graphics.RenderTarget

	// per frame state, reset before traversal
	rendered      bool
	snapshotTaken bool

	pipeline *Pipeline
}

func (s *Stage) Index() int { return s.index }

func (s *Stage) Program() *graphics.Program { return s.program }

func (s *Stage) Target() *graphics.RenderTarget { return s.target }

func (s *Stage) Pipeline() *Pipeline { return s.pipeline }

// Rendered reports whether the stage has been drawn in the current frame.
func (s *Stage) Rendered() bool { return s.rendered }

// Inputs returns a copy of the input bindings.
func (s *Stage) Inputs() []int {
	out := make([]int, len(s.inputs))
	copy(out, s.inputs)
	return out
}

// SelfReferencing reports whether any input reads the stage's own output.
func (s *Stage) SelfReferencing() bool {
	for _, in := range s.inputs {
		if in == s.index {
			return true
		}
	}
	return false
}

func (s *Stage) phaseName() string {
	return fmt.Sprintf("stage%d", s.index)
}

// release frees the program and targets owned by the stage.
func (s *Stage) release(device graphics.Device) {
	if s.program != nil {
		device.DeleteProgram(s.program)
		s.program = nil
	}
	if s.target != nil {
		device.DeleteRenderTarget(s.target)
		s.target = nil
	}
	if s.feedback != nil {
		device.DeleteRenderTarget(s.feedback)
		s.feedback = nil
	}
}
