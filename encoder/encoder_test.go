package encoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInputArgs(t *testing.T) {
	args := inputArgs(Options{Width: 640, Height: 360, FPS: 30})
	assert.Equal(t, "rawvideo", args["f"])
	assert.Equal(t, "rgba", args["pix_fmt"])
	assert.Equal(t, "640x360", args["s"])
	assert.Equal(t, 30, args["framerate"])
}

func TestOutputArgs(t *testing.T) {
	linux := outputArgs("linux")
	assert.Equal(t, "libx264", linux["c:v"])
	assert.Equal(t, "fast", linux["preset"])
	assert.Equal(t, "vflip", linux["vf"])
	assert.Equal(t, "yuv420p", linux["pix_fmt"])

	darwin := outputArgs("darwin")
	assert.Equal(t, "h264_videotoolbox", darwin["c:v"])
	assert.NotContains(t, darwin, "preset")
}

func TestNewRejectsBadOptions(t *testing.T) {
	_, err := New(Options{Output: "out.mp4", Width: 0, Height: 10, FPS: 30})
	assert.Error(t, err)
	_, err = New(Options{Output: "out.mp4", Width: 10, Height: 10, FPS: 0})
	assert.Error(t, err)
	_, err = New(Options{Width: 10, Height: 10, FPS: 30})
	assert.Error(t, err)
}

func TestWriteFrameChecksSize(t *testing.T) {
	e := &Encoder{frameSize: 16}
	assert.Error(t, e.WriteFrame(make([]byte, 8)))
}
