package renderer

import (
	"errors"
	"fmt"

	"github.com/richinsley/glook/graphics"
)

// compileStage reads path and builds its program behind the current header.
// Driver failures come back as *shader.CompileError with lines mapped to the
// stage or common file.
func (p *Pipeline) compileStage(path string) (*graphics.Program, error) {
	src, err := p.config.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stage %s: %w", path, err)
	}
	program, err := p.device.CompileProgram(p.header.Source(string(src)))
	if err != nil {
		var ce *graphics.CompileError
		if errors.As(err, &ce) {
			return nil, p.header.NewCompileError(path, ce)
		}
		return nil, fmt.Errorf("failed to compile stage %s: %w", path, err)
	}
	return program, nil
}
