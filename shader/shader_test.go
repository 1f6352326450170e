package shader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.glsl")
	require.NoError(t, WriteTemplate(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Template(), string(data))
	assert.Contains(t, string(data), "void mainImage(out vec4 fragColor, in vec2 fragCoord)")
}

func TestWriteTemplateFails(t *testing.T) {
	err := WriteTemplate(filepath.Join(t.TempDir(), "missing", "template.glsl"))
	assert.Error(t, err)
}

func TestInternalShaders(t *testing.T) {
	assert.True(t, strings.HasPrefix(GenerateVertexShader(), "#version 410 core"))
	assert.Contains(t, GetBlitFragmentShader(true), "1.0 - frag_uv.y")
	assert.NotContains(t, GetBlitFragmentShader(false), "1.0 - frag_uv.y")
	assert.Contains(t, CopyFragmentShader(), "iChannel0")
}
