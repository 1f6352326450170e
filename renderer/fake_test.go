package renderer

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/richinsley/glook/graphics"
	"github.com/richinsley/glook/shader"
)

type color [4]float32

// fakeShader computes the single color a program fills its target with.
type fakeShader func(in [graphics.MaxChannels]color, u graphics.Uniforms) color

var fakeShaders = map[string]fakeShader{
	"red":   func(_ [4]color, _ graphics.Uniforms) color { return color{1, 0, 0, 1} },
	"green": func(_ [4]color, _ graphics.Uniforms) color { return color{0, 1, 0, 1} },
	"blue":  func(_ [4]color, _ graphics.Uniforms) color { return color{0, 0, 1, 1} },
	"pass":  func(in [4]color, _ graphics.Uniforms) color { return in[0] },
	"add": func(in [4]color, _ graphics.Uniforms) color {
		var out color
		for _, c := range in {
			for i := range out {
				out[i] += c[i]
			}
		}
		return out
	},
	// accum adds one to the red channel of its own previous frame
	"accum": func(in [4]color, _ graphics.Uniforms) color {
		return color{in[0][0] + 1, 0, 0, 1}
	},
	"time": func(_ [4]color, u graphics.Uniforms) color {
		return color{u.Time, float32(u.Frame), u.TimeDelta, 1}
	},
}

var reFakeMarker = regexp.MustCompile(`// fake:(\S+)`)

type fakeDraw struct {
	program string
	target  *graphics.RenderTarget
	inputs  [graphics.MaxChannels]*graphics.RenderTarget
	uniform graphics.Uniforms
}

// fakeDevice evaluates programs on the CPU. Every target holds one color.
type fakeDevice struct {
	nextHandle uint32
	programs   map[uint32]string
	colors     map[*graphics.RenderTarget]color
	targets    int
	draws      []fakeDraw
	presented  []*graphics.RenderTarget
	compiles   int
	failTarget bool
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		programs: make(map[uint32]string),
		colors:   make(map[*graphics.RenderTarget]color),
	}
}

// stageSource is a stage body the fake device compiles to the named shader.
func stageSource(name string) string {
	return fmt.Sprintf("void mainImage(out vec4 fragColor, in vec2 fragCoord)\n{\n    // fake:%s\n}\n", name)
}

func (d *fakeDevice) CompileProgram(source string) (*graphics.Program, error) {
	d.compiles++
	name := "copy"
	if source != shader.CopyFragmentShader() {
		m := reFakeMarker.FindStringSubmatch(source)
		if m == nil {
			return nil, &graphics.CompileError{Phase: graphics.PhaseFragment, Log: "ERROR: 0:1: no marker"}
		}
		name = m[1]
		if _, ok := fakeShaders[name]; !ok {
			// report the error on the marker line like a driver would
			line := 1 + strings.Count(source[:strings.Index(source, m[0])], "\n")
			return nil, &graphics.CompileError{
				Phase: graphics.PhaseFragment,
				Log:   fmt.Sprintf("ERROR: 0:%d: '%s' : undeclared identifier\nERROR: 1 compilation errors.  No code generated.\n", line, name),
			}
		}
	}
	d.nextHandle++
	d.programs[d.nextHandle] = name
	return &graphics.Program{Handle: d.nextHandle, Locations: graphics.NoUniforms()}, nil
}

func (d *fakeDevice) DeleteProgram(p *graphics.Program) {
	delete(d.programs, p.Handle)
}

func (d *fakeDevice) NewRenderTarget(width, height int) (*graphics.RenderTarget, error) {
	if d.failTarget {
		return nil, graphics.ErrIncompleteTarget
	}
	d.nextHandle++
	t := &graphics.RenderTarget{FBO: d.nextHandle, Texture: d.nextHandle, Width: width, Height: height}
	d.colors[t] = color{}
	d.targets++
	return t, nil
}

func (d *fakeDevice) DeleteRenderTarget(t *graphics.RenderTarget) {
	if _, ok := d.colors[t]; ok {
		delete(d.colors, t)
		d.targets--
	}
}

func (d *fakeDevice) Draw(pass graphics.Pass) {
	name := d.programs[pass.Program.Handle]
	var in [graphics.MaxChannels]color
	for i, t := range pass.Inputs {
		if t != nil {
			in[i] = d.colors[t]
		}
	}
	var out color
	if name == "copy" {
		out = in[0]
	} else {
		out = fakeShaders[name](in, pass.Uniforms)
	}
	d.colors[pass.Target] = out
	d.draws = append(d.draws, fakeDraw{program: name, target: pass.Target, inputs: pass.Inputs, uniform: pass.Uniforms})
}

func (d *fakeDevice) Present(t *graphics.RenderTarget, width, height int) {
	d.presented = append(d.presented, t)
}

func (d *fakeDevice) ReadPixels(t *graphics.RenderTarget) ([]byte, error) {
	c := d.colors[t]
	px := make([]byte, t.Width*t.Height*4)
	for i := 0; i < len(px); i += 4 {
		for j := 0; j < 4; j++ {
			v := c[j]
			if v > 1 {
				v = 1
			}
			px[i+j] = byte(v * 255)
		}
	}
	return px, nil
}

func (d *fakeDevice) drawNames() []string {
	names := make([]string, len(d.draws))
	for i, dr := range d.draws {
		names[i] = dr.program
	}
	return names
}

func (d *fakeDevice) resetDraws() { d.draws = nil }

// memFiles is an in-memory source tree.
type memFiles map[string]string

func (m memFiles) ReadFile(path string) ([]byte, error) {
	src, ok := m[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	}
	return []byte(src), nil
}

func newTestPipeline(t *testing.T, d *fakeDevice, files memFiles, config PipelineConfig) *Pipeline {
	t.Helper()
	if config.Width == 0 {
		config.Width, config.Height = 4, 2
	}
	config.ReadFile = files.ReadFile
	p, err := NewPipeline(d, config)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return p
}
