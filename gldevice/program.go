package gldevice

import (
	"fmt"
	"strings"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/richinsley/glook/graphics"
	"github.com/richinsley/glook/translator"
)

// CompileProgram translates a GLSL ES stage, compiles it and links it against
// the shared vertex shader. Uniform locations are resolved through the
// translator's name map and the samplers are fixed to units 0..3.
func (d *Device) CompileProgram(fragmentSource string) (*graphics.Program, error) {
	code, names, err := translator.Fragment(fragmentSource)
	if err != nil {
		return nil, &graphics.CompileError{Phase: graphics.PhaseTranslate, Log: err.Error()}
	}

	handle, err := d.linkProgram(code)
	if err != nil {
		return nil, err
	}

	p := &graphics.Program{Handle: handle, Locations: graphics.NoUniforms()}
	gl.UseProgram(handle)
	loc := &p.Locations
	loc.Time = uniformLocation(handle, names, "iTime")
	loc.TimeDelta = uniformLocation(handle, names, "iTimeDelta")
	loc.Frame = uniformLocation(handle, names, "iFrame")
	loc.FrameRate = uniformLocation(handle, names, "iFrameRate")
	loc.Date = uniformLocation(handle, names, "iDate")
	loc.Resolution = uniformLocation(handle, names, "iResolution")
	loc.Mouse = uniformLocation(handle, names, "iMouse")
	for i := 0; i < graphics.MaxChannels; i++ {
		loc.Channel[i] = uniformLocation(handle, names, fmt.Sprintf("iChannel%d", i))
		if loc.Channel[i] != -1 {
			gl.Uniform1i(loc.Channel[i], int32(i))
		}
		loc.ChannelResolution[i] = arrayElementLocation(handle, names, "iChannelResolution", i)
	}
	gl.UseProgram(0)
	return p, nil
}

func (d *Device) DeleteProgram(p *graphics.Program) {
	if p == nil || p.Handle == 0 {
		return
	}
	gl.DeleteProgram(p.Handle)
	p.Handle = 0
}

// linkProgram compiles already translated fragment code with the cached vertex shader.
func (d *Device) linkProgram(fragmentCode string) (uint32, error) {
	fragmentShader, err := compileShader(fragmentCode, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragmentShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, d.vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)
	gl.DetachShader(program, d.vertexShader)
	gl.DetachShader(program, fragmentShader)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, &graphics.CompileError{Phase: graphics.PhaseLink, Log: log}
	}
	return program, nil
}

// newProgram builds a program from desktop GLSL sources that need no translation.
func newProgram(vertexShaderSource, fragmentShaderSource string) (uint32, error) {
	vertexShader, err := compileShader(vertexShaderSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertexShader)
	fragmentShader, err := compileShader(fragmentShaderSource, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragmentShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, &graphics.CompileError{Phase: graphics.PhaseLink, Log: log}
	}
	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(logText))
		gl.DeleteShader(shader)
		phase := graphics.PhaseFragment
		if shaderType == gl.VERTEX_SHADER {
			phase = graphics.PhaseVertex
		}
		return 0, &graphics.CompileError{Phase: phase, Log: logText}
	}
	return shader, nil
}

// uniformLocation resolves a uniform by its source name. Uniforms the
// translator dropped as unused resolve to -1.
func uniformLocation(program uint32, names map[string]string, name string) int32 {
	mapped, ok := names[name]
	if !ok {
		return -1
	}
	return gl.GetUniformLocation(program, gl.Str(mapped+"\x00"))
}

func arrayElementLocation(program uint32, names map[string]string, name string, index int) int32 {
	mapped, ok := names[name]
	if !ok {
		if mapped, ok = names[name+"[0]"]; !ok {
			return -1
		}
		mapped = strings.TrimSuffix(mapped, "[0]")
	}
	return gl.GetUniformLocation(program, gl.Str(fmt.Sprintf("%s[%d]\x00", mapped, index)))
}
