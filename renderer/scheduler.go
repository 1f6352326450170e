package renderer

import (
	"time"

	"github.com/richinsley/glook/graphics"
)

// FrameState carries the per-frame inputs of RenderFrame.
type FrameState struct {
	Frame     int32
	Time      float64
	TimeDelta float64
	Mouse     [4]float32
	Date      time.Time
}

func (f FrameState) uniforms(width, height int) graphics.Uniforms {
	u := graphics.Uniforms{
		Time:       float32(f.Time),
		TimeDelta:  float32(f.TimeDelta),
		Frame:      f.Frame,
		Mouse:      f.Mouse,
		Resolution: [3]float32{float32(width), float32(height), 1.0},
	}
	if f.TimeDelta > 0 {
		u.FrameRate = float32(1.0 / f.TimeDelta)
	}
	if !f.Date.IsZero() {
		d := f.Date
		hour := float64(d.Hour()) + float64(d.Minute())/60 + float64(d.Second())/3600
		u.Date = [4]float32{float32(d.Year()), float32(d.Month()), float32(d.Day()), float32(hour)}
	}
	return u
}

// RenderFrame draws the head stage and everything it depends on, each at most
// once, and returns the head's target.
func (p *Pipeline) RenderFrame(f FrameState) *graphics.RenderTarget {
	if len(p.stages) == 0 {
		return nil
	}
	for _, s := range p.stages {
		s.rendered = false
		s.snapshotTaken = false
	}
	u := f.uniforms(p.config.Width, p.config.Height)
	p.renderStage(p.stages[p.head], &u)
	return p.stages[p.head].target
}

// renderStage is a post-order walk from root over the input bindings with an
// explicit stack. A stage is drawn once all the stages it reads are drawn;
// self-references are satisfied by the feedback snapshot instead.
func (p *Pipeline) renderStage(root *Stage, u *graphics.Uniforms) {
	if root.rendered {
		return
	}
	type visit struct {
		stage *Stage
		next  int
	}
	onStack := make([]bool, len(p.stages))
	stack := []visit{{stage: root}}
	onStack[root.index] = true

	for len(stack) > 0 {
		top := len(stack) - 1
		s := stack[top].stage
		if stack[top].next < len(s.inputs) {
			dep := s.inputs[stack[top].next]
			stack[top].next++
			if dep == s.index {
				continue
			}
			d := p.stages[dep]
			// onStack guards against cycles, which push never creates
			if d.rendered || onStack[dep] {
				continue
			}
			onStack[dep] = true
			stack = append(stack, visit{stage: d})
			continue
		}
		p.draw(s, u)
		onStack[s.index] = false
		stack = stack[:top]
	}
}

// draw binds the resolved inputs of s and renders it into its target.
func (p *Pipeline) draw(s *Stage, u *graphics.Uniforms) {
	if p.timer != nil {
		p.timer.StartPhase(s.phaseName())
	}
	pass := graphics.Pass{
		Program:  s.program,
		Target:   s.target,
		Uniforms: *u,
	}
	for i, in := range s.inputs {
		if in == s.index {
			pass.Inputs[i] = p.resolveFeedback(s)
			continue
		}
		pass.Inputs[i] = p.stages[in].target
	}
	p.device.Draw(pass)
	s.rendered = true
}
