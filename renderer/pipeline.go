package renderer

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/richinsley/glook/graphics"
	"github.com/richinsley/glook/shader"
)

var (
	ErrCapacity         = errors.New("pipeline is full")
	ErrTooManyInputs    = errors.New("too many inputs")
	ErrForwardReference = errors.New("input refers to a later stage")
	ErrInputIndex       = errors.New("invalid input index")
	ErrStageIndex       = errors.New("stage index out of range")
	ErrLastStage        = errors.New("cannot remove the only stage")
	ErrNoStages         = errors.New("no stage could be loaded")
)

// DefaultMaxStages is used when PipelineConfig.MaxStages is zero.
const DefaultMaxStages = 8

// PipelineConfig holds what the pipeline needs from the configuration.
type PipelineConfig struct {
	// Width and Height size every render target.
	Width  int
	Height int
	// Chain makes a stage without explicit inputs read only the previous stage.
	Chain bool
	// CommonPath is an optional file appended to the built-in header.
	CommonPath string
	MaxStages  int
	MaxInputs  int
	// ReadFile defaults to os.ReadFile.
	ReadFile shader.ReadFileFunc
}

// PhaseTimer receives a phase name before every draw of a stage.
type PhaseTimer interface {
	StartPhase(phase string)
}

// Pipeline is an ordered, bounded set of stages rendering into each other.
// It is not safe for concurrent use; every call must happen on the thread
// owning the GL context, between frames.
type Pipeline struct {
	device graphics.Device
	config PipelineConfig
	header *shader.Header
	stages []*Stage
	head   int

	// copyPass is the shared identity program used to snapshot feedback
	// stages. Created on the first self-reference.
	copyPass *graphics.Program
	timer    PhaseTimer
}

// NewPipeline creates an empty pipeline and builds its header.
func NewPipeline(device graphics.Device, config PipelineConfig) (*Pipeline, error) {
	if config.Width <= 0 || config.Height <= 0 {
		return nil, fmt.Errorf("invalid pipeline size %dx%d", config.Width, config.Height)
	}
	if config.MaxStages <= 0 {
		config.MaxStages = DefaultMaxStages
	}
	if config.MaxInputs < 0 || config.MaxInputs > graphics.MaxChannels {
		config.MaxInputs = graphics.MaxChannels
	}
	if config.ReadFile == nil {
		config.ReadFile = os.ReadFile
	}
	p := &Pipeline{
		device: device,
		config: config,
		stages: make([]*Stage, 0, config.MaxStages),
	}
	p.header = shader.NewHeader(config.CommonPath, config.ReadFile)
	return p, nil
}

// SetPhaseTimer installs t to be told about every stage draw. Nil disables it.
func (p *Pipeline) SetPhaseTimer(t PhaseTimer) {
	p.timer = t
}

func (p *Pipeline) Len() int { return len(p.stages) }

func (p *Pipeline) Capacity() int { return p.config.MaxStages }

func (p *Pipeline) Header() *shader.Header { return p.header }

func (p *Pipeline) Size() (int, int) { return p.config.Width, p.config.Height }

// Stage returns the stage at index, or nil.
func (p *Pipeline) Stage(index int) *Stage {
	if index < 0 || index >= len(p.stages) {
		return nil
	}
	return p.stages[index]
}

// Head returns the index of the stage whose output is presented, -1 when empty.
func (p *Pipeline) Head() int {
	if len(p.stages) == 0 {
		return -1
	}
	return p.head
}

// SetHead selects the presented stage.
func (p *Pipeline) SetHead(index int) error {
	if index < 0 || index >= len(p.stages) {
		return fmt.Errorf("%w: %d (have %d)", ErrStageIndex, index, len(p.stages))
	}
	p.head = index
	return nil
}

// Output returns the target of the head stage.
func (p *Pipeline) Output() *graphics.RenderTarget {
	if len(p.stages) == 0 {
		return nil
	}
	return p.stages[p.head].target
}

// Push parses a "path[:inputs]" argument and appends the stage.
func (p *Pipeline) Push(arg string) (*Stage, error) {
	path, inputs, explicit, err := ParseStageArg(arg)
	if err != nil {
		return nil, err
	}
	return p.PushStage(path, inputs, explicit)
}

// PushStage compiles path and appends it as the last stage. When explicit is
// false the inputs are chosen by the default wiring rule. On any error the
// pipeline is left unchanged.
func (p *Pipeline) PushStage(path string, inputs []int, explicit bool) (*Stage, error) {
	if len(p.stages) >= p.config.MaxStages {
		return nil, fmt.Errorf("%w: %d of %d stages in use, cannot add %s", ErrCapacity, len(p.stages), p.config.MaxStages, path)
	}
	index := len(p.stages)
	bindings, err := p.resolveInputs(index, inputs, explicit)
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", path, err)
	}

	s := &Stage{
		Path:     path,
		index:    index,
		inputs:   bindings,
		pipeline: p,
	}
	s.program, err = p.compileStage(path)
	if err != nil {
		return nil, err
	}
	if err := p.allocateTargets(s); err != nil {
		s.release(p.device)
		return nil, fmt.Errorf("stage %s: %w", path, err)
	}

	wasTail := len(p.stages) == 0 || p.head == len(p.stages)-1
	p.stages = append(p.stages, s)
	if wasTail {
		p.head = index
	}
	log.Printf("Loaded stage %d: %s inputs=%v", index, path, bindings)
	return s, nil
}

// Pop removes the last stage. The only remaining stage cannot be removed.
func (p *Pipeline) Pop() error {
	n := len(p.stages)
	if n <= 1 {
		return ErrLastStage
	}
	s := p.stages[n-1]
	p.stages[n-1] = nil
	p.stages = p.stages[:n-1]
	s.release(p.device)
	if p.head >= len(p.stages) {
		p.head = len(p.stages) - 1
	}
	log.Printf("Removed stage %d: %s", n-1, s.Path)
	return nil
}

// Destroy releases every stage and the copy pass.
func (p *Pipeline) Destroy() {
	for i, s := range p.stages {
		s.release(p.device)
		p.stages[i] = nil
	}
	p.stages = p.stages[:0]
	p.head = 0
	if p.copyPass != nil {
		p.device.DeleteProgram(p.copyPass)
		p.copyPass = nil
	}
}

// resolveInputs validates explicit inputs of the stage about to take index,
// or computes the default wiring.
func (p *Pipeline) resolveInputs(index int, inputs []int, explicit bool) ([]int, error) {
	limit := p.config.MaxInputs
	if !explicit {
		if p.config.Chain {
			if index == 0 || limit == 0 {
				return nil, nil
			}
			return []int{index - 1}, nil
		}
		n := min(index, limit)
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out, nil
	}

	if len(inputs) > limit {
		return nil, fmt.Errorf("%w: %d given, at most %d", ErrTooManyInputs, len(inputs), limit)
	}
	out := make([]int, len(inputs))
	for i, in := range inputs {
		switch {
		case in < 0:
			return nil, fmt.Errorf("%w: %d", ErrInputIndex, in)
		case in > index:
			return nil, fmt.Errorf("%w: input %d of stage %d", ErrForwardReference, in, index)
		}
		out[i] = in
	}
	return out, nil
}

// allocateTargets gives s its render target, plus the snapshot target and the
// shared copy pass when s reads itself.
func (p *Pipeline) allocateTargets(s *Stage) error {
	var err error
	s.target, err = p.device.NewRenderTarget(p.config.Width, p.config.Height)
	if err != nil {
		return err
	}
	if s.SelfReferencing() {
		return p.attachFeedback(s)
	}
	return nil
}
