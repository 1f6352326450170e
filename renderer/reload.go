package renderer

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"github.com/richinsley/glook/shader"
)

// Reload recompiles the stage at index from its source file.
func (p *Pipeline) Reload(index int) error {
	s := p.Stage(index)
	if s == nil {
		return fmt.Errorf("%w: %d (have %d)", ErrStageIndex, index, len(p.stages))
	}
	return p.replace(index, s.Path)
}

// ReloadFrom recompiles the stage at index from a new source file.
func (p *Pipeline) ReloadFrom(index int, path string) error {
	if p.Stage(index) == nil {
		return fmt.Errorf("%w: %d (have %d)", ErrStageIndex, index, len(p.stages))
	}
	return p.replace(index, path)
}

// replace builds a new stage at index from path. The new stage takes over the
// input wiring and the render targets of the old one; only the old program is
// freed. If compilation fails nothing changes.
func (p *Pipeline) replace(index int, path string) error {
	old := p.stages[index]
	program, err := p.compileStage(path)
	if err != nil {
		return err
	}

	next := &Stage{
		Path:     path,
		index:    index,
		program:  program,
		inputs:   old.Inputs(),
		target:   old.target,
		feedback: old.feedback,
		pipeline: p,
	}
	old.target = nil
	old.feedback = nil
	p.stages[index] = next
	old.release(p.device)

	log.Printf("Reloaded stage %d: %s", index, path)
	return nil
}

// ReloadPath reloads every stage compiled from path and returns how many
// stages matched.
func (p *Pipeline) ReloadPath(path string) (int, error) {
	var errs []error
	matched := 0
	for i, s := range p.stages {
		if !samePath(s.Path, path) {
			continue
		}
		matched++
		if err := p.Reload(i); err != nil {
			errs = append(errs, err)
		}
	}
	return matched, errors.Join(errs...)
}

// ReloadAll rebuilds the header from the common file and reloads every stage.
// Each stage succeeds or fails on its own; failures are joined.
func (p *Pipeline) ReloadAll() error {
	p.header = shader.NewHeader(p.config.CommonPath, p.config.ReadFile)
	var errs []error
	for i := range p.stages {
		if err := p.Reload(i); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// IsCommonPath reports whether path is the pipeline's common file.
func (p *Pipeline) IsCommonPath(path string) bool {
	return p.config.CommonPath != "" && samePath(p.config.CommonPath, path)
}

func samePath(a, b string) bool {
	if a == b {
		return true
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
