package renderer

import (
	"fmt"

	"github.com/richinsley/glook/graphics"
	"github.com/richinsley/glook/shader"
)

// A stage cannot sample the texture it is rendering into, so a stage reading
// itself samples a copy of its target taken just before it draws. The copy
// still holds the previous frame at that point.

// attachFeedback gives s a snapshot target and makes sure the copy pass exists.
func (p *Pipeline) attachFeedback(s *Stage) error {
	if err := p.ensureCopyPass(); err != nil {
		return err
	}
	var err error
	s.feedback, err = p.device.NewRenderTarget(p.config.Width, p.config.Height)
	return err
}

func (p *Pipeline) ensureCopyPass() error {
	if p.copyPass != nil {
		return nil
	}
	program, err := p.device.CompileProgram(shader.CopyFragmentShader())
	if err != nil {
		return fmt.Errorf("failed to build feedback copy pass: %w", err)
	}
	p.copyPass = program
	return nil
}

// resolveFeedback copies the current content of s.target into s.feedback,
// at most once per frame.
func (p *Pipeline) resolveFeedback(s *Stage) *graphics.RenderTarget {
	if s.snapshotTaken {
		return s.feedback
	}
	pass := graphics.Pass{
		Program: p.copyPass,
		Target:  s.feedback,
		Uniforms: graphics.Uniforms{
			Resolution: s.feedback.Resolution(),
		},
	}
	pass.Inputs[0] = s.target
	p.device.Draw(pass)
	s.snapshotTaken = true
	return s.feedback
}
