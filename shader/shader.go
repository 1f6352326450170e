package shader

import (
	"fmt"
	"os"
)

// ────────────────────────────────── Desktop GL ──────────────────────────────────

const vertexShaderSourceGL = `#version 410 core
layout (location = 0) in vec2 in_vert;
out vec2 frag_uv;
void main() {
    frag_uv = in_vert * 0.5 + 0.5;
    gl_Position = vec4(in_vert, 0.0, 1.0);
}
`

const blitFragmentShaderSourceFlipGL = `#version 410 core
in vec2 frag_uv;
out vec4 fragColor;
uniform sampler2D u_texture;
void main() { fragColor = texture(u_texture, vec2(frag_uv.x, 1.0 - frag_uv.y)); }
`

const blitFragmentShaderSourceGL = `#version 410 core
in vec2 frag_uv;
out vec4 fragColor;
uniform sampler2D u_texture;
void main() { fragColor = texture(u_texture, frag_uv); }
`

// ─────────────────────────────── WebGL2 / GLSL ES ───────────────────────────────

// Stage sources and the copy pass are written against GLSL ES 3.00 and go
// through the translator before reaching the driver.

const builtinPreamble = `#version 300 es
precision highp float;
precision highp int;

uniform vec3  iResolution;
uniform float iTime;
uniform float iTimeDelta;
uniform float iFrameRate;
uniform int   iFrame;
uniform vec3  iChannelResolution[4];
uniform vec4  iMouse;
uniform vec4  iDate;
uniform sampler2D iChannel0;
uniform sampler2D iChannel1;
uniform sampler2D iChannel2;
uniform sampler2D iChannel3;

out vec4 glookFragColor;

void mainImage(out vec4 fragColor, in vec2 fragCoord);

void main(void)
{
    mainImage(glookFragColor, gl_FragCoord.xy);
}
`

// The copy pass samples iChannel0 at the fragment's own texel, so the output
// is an exact snapshot of the input when both have the same size.
const copyFragmentShaderSource = `#version 300 es
precision highp float;
uniform vec3 iResolution;
uniform sampler2D iChannel0;
out vec4 fragColor;
void main(void)
{
    fragColor = texture(iChannel0, gl_FragCoord.xy / iResolution.xy);
}
`

const templateSource = `// glook template: edit and press R to reload.
void mainImage(out vec4 fragColor, in vec2 fragCoord)
{
    vec2 uv = fragCoord / iResolution.xy;
    vec3 col = 0.5 + 0.5 * cos(iTime + uv.xyx + vec3(0.0, 2.0, 4.0));
    fragColor = vec4(col, 1.0);
}
`

// ────────────────────────────────── Public API ─────────────────────────────────

// GenerateVertexShader returns the full-screen-quad vertex shader shared by every program.
func GenerateVertexShader() string {
	return vertexShaderSourceGL
}

// GetBlitFragmentShader returns the program used to present a target on screen.
func GetBlitFragmentShader(flip bool) string {
	if flip {
		return blitFragmentShaderSourceFlipGL
	}
	return blitFragmentShaderSourceGL
}

// CopyFragmentShader returns the identity copy used to snapshot feedback stages.
func CopyFragmentShader() string {
	return copyFragmentShaderSource
}

// Template returns the starter stage source.
func Template() string {
	return templateSource
}

// WriteTemplate writes the starter stage source to path.
func WriteTemplate(path string) error {
	if err := os.WriteFile(path, []byte(templateSource), 0o644); err != nil {
		return fmt.Errorf("could not write template %s: %w", path, err)
	}
	return nil
}
